// Package policy decides whether an actor may perform an action. Every
// function is total and side-effect free; the anonymous actor fails every
// check.
package policy

import "github.com/dmitrijs2005/portfolio/internal/server/models"

// Actor is the identity a request acts as.
type Actor struct {
	ID   string
	Role models.Role
}

// Anonymous is the actor of a request without valid credentials.
var Anonymous = Actor{}

// ActorOf derives the actor from a freshly loaded user record.
func ActorOf(u *models.User) Actor {
	if u == nil {
		return Anonymous
	}
	return Actor{ID: u.ID, Role: u.Role}
}

func (a Actor) Authenticated() bool {
	return a.ID != ""
}

func IsAdmin(a Actor) bool {
	return a.Authenticated() && a.Role == models.RoleAdmin
}

// IsModerator holds for moderators and admins.
func IsModerator(a Actor) bool {
	return a.Authenticated() && (a.Role == models.RoleModerator || a.Role == models.RoleAdmin)
}

func HasRole(a Actor, role models.Role) bool {
	return a.Authenticated() && a.Role == role
}

func IsOwner(a Actor, resourceOwnerID string) bool {
	return a.Authenticated() && resourceOwnerID != "" && a.ID == resourceOwnerID
}

// CanAccess holds for the owner of a resource and for admins.
func CanAccess(a Actor, resourceOwnerID string) bool {
	return IsOwner(a, resourceOwnerID) || IsAdmin(a)
}

// Authorize returns a predicate that holds iff the actor's role is one of
// allowed. With no roles it never holds.
func Authorize(allowed ...models.Role) func(Actor) bool {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(a Actor) bool {
		if !a.Authenticated() {
			return false
		}
		_, ok := set[a.Role]
		return ok
	}
}
