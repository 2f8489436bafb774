package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/studylens/document-analysis-service/common/auth"
	"github.com/studylens/document-analysis-service/common/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Authentication rejects requests that do not carry a verifiable bearer
// token. The resolved user ID is stored on the request context.
func Authentication(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				utils.WriteError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("Identity token rejected")
				utils.WriteError(w, http.StatusUnauthorized, "Invalid identity token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user ID stored by Authentication, or an
// empty string when the request was not authenticated.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
