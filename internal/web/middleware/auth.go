package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/logging"
)

type tenantKey struct{}

// TenantID returns the tenant resolved for the request by APIKeyAuth.
// The second return is false on routes that skipped authentication.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantKey{}).(uuid.UUID)
	return id, ok
}

// WithTenantID returns a context carrying the tenant ID. Exported for
// handler tests that bypass the auth middleware.
func WithTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey{}, id)
}

// APIKeyAuth returns middleware that validates the X-API-Key header
// against the configured key-to-tenant mapping and places the resolved
// tenant ID in the request context.
//
// If require is false, all requests pass through with the zero tenant;
// that mode is for local development against the memory store only.
func APIKeyAuth(require bool, tenants map[string]uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !require {
				next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), uuid.Nil)))
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				logging.FromContext(r.Context()).Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, `{"error":"missing API key","code":"AUTH_MISSING_KEY"}`)
				return
			}

			tenantID, ok := resolveKey(apiKey, tenants)
			if !ok {
				logging.FromContext(r.Context()).Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, `{"error":"invalid API key","code":"AUTH_INVALID_KEY"}`)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body + "\n"))
}

// resolveKey finds the tenant for a key using constant-time comparison.
// Every configured key is compared regardless of an earlier match, so
// the comparison time does not reveal which key (if any) matched.
func resolveKey(key string, tenants map[string]uuid.UUID) (uuid.UUID, bool) {
	var (
		matched  int
		tenantID uuid.UUID
	)
	for candidate, id := range tenants {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			matched = 1
			tenantID = id
		}
	}
	return tenantID, matched == 1
}
