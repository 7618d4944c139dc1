package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"gitlab.com/yelinaung/expenditure-manager/internal/auth"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenVerifier resolves a session token to its user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireSession rejects requests without a valid bearer token and puts the
// session's user ID on the request context.
func RequireSession(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, r, auth.ErrInvalidToken)
				return
			}
			userID, err := v.Verify(token)
			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// UserID returns the authenticated user ID set by RequireSession.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestLogger logs each request with zerolog. User IDs are hashed.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		event := logger.Log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = logger.Log.Error()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
