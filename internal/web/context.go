package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/web/middleware"
)

// tenantID extracts the tenant resolved by the auth middleware. All API
// routes sit behind APIKeyAuth, so a missing tenant means a wiring bug;
// the caller turns the false return into a 500.
func tenantID(r *http.Request) (uuid.UUID, bool) {
	return middleware.TenantID(r.Context())
}
