package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/contractwatch/internal/security/audit"
	"github.com/yourorg/contractwatch/internal/security/auth"
	"github.com/yourorg/contractwatch/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

func isPublicPath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		path == "/ws/events" ||
		path == "/api/auth/register" || path == "/api/auth/login"
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID := ""
			if c := r.Context().Value(ClaimsContextKey{}); c != nil {
				userID = c.(*auth.Claims).UserID
			}

			if !limiter.Allow(userID) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if c := r.Context().Value(ClaimsContextKey{}); c != nil {
				userID = c.(*auth.Claims).UserID
			}

			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/api/contracts":
				auditLog.LogContractChange(r.Context(), userID, "create", "", "initiated", "")
			case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/contracts/"):
				auditLog.LogContractChange(r.Context(), userID, "delete", r.PathValue("id"), "initiated", "")
			case r.Method == http.MethodPost && r.URL.Path == "/api/notifications/check-renewals":
				auditLog.LogScanTrigger(r.Context(), userID, "initiated", "")
			case r.Method == http.MethodPost && r.URL.Path == "/api/jobs":
				auditLog.LogJobChange(r.Context(), userID, "add", "", "initiated", "")
			case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/jobs/"):
				auditLog.LogJobChange(r.Context(), userID, "remove", r.PathValue("id"), "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
