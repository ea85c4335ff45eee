package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/scoreboard-manager/api/responses"
	pkgAuth "github.com/angelmondragon/scoreboard-manager/pkg/auth"
	"github.com/angelmondragon/scoreboard-manager/pkg/auth/session"
	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

// Auth admits requests carrying a valid bearer token and seeds the context with
// the caller id and role. When verifier is set the token id must also name a
// live session; a nil verifier trusts the token alone.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			fail := func(err error) { responses.WriteError(ctx, logg, w, err) }

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if verifier != nil {
				if claims.ID == "" {
					fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
					return
				}
				live, err := verifier.HasSession(ctx, claims.ID)
				if err != nil {
					fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !live {
					fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			userID, role := claims.UserID.String(), claims.Role.String()
			ctx = WithRole(WithUserID(ctx, userID), role)
			if logg != nil {
				ctx = logg.WithActorRole(logg.WithUserID(ctx, userID), role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts only the Bearer scheme, case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
