// internal/app/features/cart/routes.go
package cart

import (
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers /cart and /wishlist for signed-in users.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		c := h.cart()
		pr.Get("/cart", h.serveGet(c))
		pr.Post("/cart", h.serveAdd(c))
		pr.Delete("/cart/{id}", h.serveRemove(c))

		wl := h.wishlist()
		pr.Get("/wishlist", h.serveGet(wl))
		pr.Post("/wishlist", h.serveAdd(wl))
		pr.Delete("/wishlist/{id}", h.serveRemove(wl))
	})
}
