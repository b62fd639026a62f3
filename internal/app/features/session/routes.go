// internal/app/features/session/routes.go
package session

import (
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers sign-in (public) and sign-out (signed in).
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Post("/auth/session", h.HandleLogin)
	r.With(sm.RequireSignedIn).Delete("/auth/session", h.HandleLogout)
}
