package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yasboss/storefront-backend/api/responses"
	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
	"github.com/yasboss/storefront-backend/pkg/logger"
)

// Identity headers are stamped by the authenticating gateway in front of
// this service. The core never reads ambient identity; handlers pull the
// actor out of the context and pass it into every service call explicitly.
const (
	actorEmailHeader = "X-Actor-Email"
	actorRoleHeader  = "X-Actor-Role"
)

type contextKey string

const (
	ctxActorEmail contextKey = "actor_email"
	ctxActorRole  contextKey = "actor_role"
)

// Identity seeds the request context with the caller identity when the
// gateway headers are present. It never rejects; RequireActor does that.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.ToLower(strings.TrimSpace(r.Header.Get(actorEmailHeader)))
			role := strings.ToUpper(strings.TrimSpace(r.Header.Get(actorRoleHeader)))
			if email == "" && role == "" {
				next.ServeHTTP(w, r)
				return
			}
			if role == "" {
				role = string(enums.ActorRoleCustomer)
			}

			ctx := context.WithValue(r.Context(), ctxActorEmail, email)
			ctx = context.WithValue(ctx, ctxActorRole, role)
			if logg != nil {
				ctx = logg.WithActor(ctx, email, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext rebuilds the explicit actor handlers hand to services.
func ActorFromContext(ctx context.Context) (orders.Actor, bool) {
	if ctx == nil {
		return orders.Actor{}, false
	}
	email, _ := ctx.Value(ctxActorEmail).(string)
	rawRole, _ := ctx.Value(ctxActorRole).(string)
	if email == "" && rawRole == "" {
		return orders.Actor{}, false
	}
	role, err := enums.ParseActorRole(rawRole)
	if err != nil {
		return orders.Actor{}, false
	}
	return orders.Actor{Email: email, Role: role}, true
}

// RequireActor rejects requests that carry no resolvable identity.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ActorFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a subtree to the listed roles.
func RequireRole(logg *logger.Logger, roles ...enums.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
		})
	}
}
