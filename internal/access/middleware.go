package access

import (
	"log/slog"
	"net/http"
	"slices"

	dErrors "promisetracker/pkg/domain-errors"
	"promisetracker/pkg/platform/httputil"
	request "promisetracker/pkg/platform/middleware/request"
	"promisetracker/pkg/requestcontext"
)

// Middleware resolves the actor for the authenticated user id (if any) and
// stores it in the request context.
func Middleware(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor, err := resolver.Resolve(ctx, requestcontext.UserID(ctx))
			if err != nil {
				logger.WarnContext(ctx, "actor resolution failed",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(ctx, actor)))
		})
	}
}

// RequireRoles lets through only actors holding one of roles.
func RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := FromContext(r.Context())
			if actor.IsGuest() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided."))
				return
			}
			if !slices.ContainsFunc(roles, actor.HasRole) {
				httputil.WriteError(w, dErrors.PermissionViolation())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified gates write endpoints on a verified e-mail address.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := FromContext(r.Context())
		if actor.IsGuest() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided."))
			return
		}
		if !actor.IsVerified() {
			httputil.WriteError(w, dErrors.New(dErrors.CodePermissionViolation, "Please verify your email address first."))
			return
		}
		next.ServeHTTP(w, r)
	})
}
