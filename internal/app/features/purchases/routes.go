// internal/app/features/purchases/routes.go
package purchases

import (
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the purchase endpoints for signed-in users.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/courses/{id}/purchase", h.HandlePurchase)
		pr.Get("/purchased", h.ServePurchased)
		pr.Post("/purchased/{id}/archive", h.HandleArchive)
		pr.Delete("/purchased/{id}/archive", h.HandleUnarchive)
	})
}
