package auth

import (
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>"
// header value. Any other shape, including an empty token, yields false.
func ExtractBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(common.BearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
