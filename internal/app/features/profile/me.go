// internal/app/features/profile/me.go
package profile

import (
	"context"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
)

// ServeProfile handles GET /me.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Enroll.Profile(ctx, u.ID)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, struct {
		Success bool               `json:"success"`
		User    enrollment.Profile `json:"user"`
	}{true, p})
}

// ServeLists handles GET /me/lists: purchased, wishlist, cart and
// archived courses in one response.
func (h *Handler) ServeLists(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	lists, err := h.Enroll.GetMyLists(ctx, u.ID)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	if lists.IsEmpty() {
		uierrors.RenderNotFound(w, r, "no courses found")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		enrollment.MyLists
	}{true, lists})
}
