package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix is the only accepted authorization scheme.
	BearerPrefix = "Bearer "

	// DefaultPageLimit is used when a list request carries no limit.
	DefaultPageLimit = 10

	// MaxPageLimit bounds the size of any paginated response.
	MaxPageLimit = 100
)
