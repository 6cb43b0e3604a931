// Package httpapi exposes the portfolio services over HTTP. Every route is a
// chain of pipeline steps in front of a handler; steps authenticate the
// caller, check its permissions and validate path parameters.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/policy"
)

// Rejection stops a pipeline and becomes the failure envelope.
type Rejection struct {
	Status  int
	Message string
	Errors  []string
}

func reject(status int, message string) *Rejection {
	return &Rejection{Status: status, Message: message}
}

// Step is one stage of a request pipeline. Run either returns the request
// to pass on (possibly with a derived context) or a Rejection.
//
// ProvidesActor marks steps that guarantee an authenticated actor downstream;
// RequiresActor marks steps that only make sense after one.
type Step struct {
	Name          string
	ProvidesActor bool
	RequiresActor bool
	Run           func(r *http.Request) (*http.Request, *Rejection)
}

// Pipeline runs steps in order in front of the handler and short-circuits on
// the first rejection.
func Pipeline(steps ...Step) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range steps {
				var rej *Rejection
				r, rej = s.Run(r)
				if rej != nil {
					writeFailure(w, rej.Status, rej.Message, rej.Errors)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidatePipeline rejects step lists in which a step that needs an actor is
// not preceded by one that provides it.
func ValidatePipeline(steps ...Step) error {
	provided := false
	for i, s := range steps {
		if s.RequiresActor && !provided {
			return fmt.Errorf("step %d (%s) requires an authenticated actor but no earlier step provides one", i, s.Name)
		}
		if s.ProvidesActor {
			provided = true
		}
	}
	return nil
}

type ctxKey int

const (
	userKey ctxKey = iota
)

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the user loaded by an authentication step, or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// ActorFrom returns the actor of the request; Anonymous when no user was loaded.
func ActorFrom(ctx context.Context) policy.Actor {
	return policy.ActorOf(UserFrom(ctx))
}
