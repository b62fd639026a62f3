// internal/app/features/courses/reviews.go
package courses

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
)

type reviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// HandleReview handles POST /courses/{id}/reviews.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, ok := formutil.PathID(r, "id")
	if !ok {
		uierrors.RenderNotFound(w, r, "course not found")
		return
	}

	var in reviewInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Enroll.AddReview(ctx, u.ID, id, in.Rating, in.Comment)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	h.AuditLog.ReviewAdded(ctx, r, u.ID, id, in.Rating)

	uierrors.WriteJSON(w, http.StatusCreated, courseResponse{
		Success: true,
		Message: "review added",
		Course:  view,
	})
}
