// internal/app/features/courses/routes.go
package courses

import (
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the /courses endpoints. Reads are public; the
// session user, when present, lets authors see their own drafts.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/courses", h.ServeList)
	r.Get("/courses/search", h.ServeSearch)
	r.Get("/courses/category", h.ServeCategory)
	r.Get("/courses/{id}", h.ServeCourse)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleInstructor, models.RoleBoth))
		pr.Post("/courses", h.HandleCreate)
		pr.Get("/courses/mine", h.ServeMine)
		pr.Put("/courses/{id}", h.HandleEdit)
		pr.Delete("/courses/{id}", h.HandleDelete)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/courses/{id}/reviews", h.HandleReview)
	})
}
