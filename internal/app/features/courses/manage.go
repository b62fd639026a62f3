// internal/app/features/courses/manage.go
package courses

import (
	"context"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// authorView shows c to its own author, so the author's email is included.
func authorView(c models.Course, u *auth.SessionUser) models.CourseView {
	return models.NewCourseView(c, models.AuthorRef{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

// HandleCreate handles POST /courses. New courses start as drafts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var in enrollment.CourseInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Enroll.AddCourse(ctx, u.Principal(), in)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	h.Log.Info("course created",
		zap.String("course_id", c.ID.Hex()),
		zap.String("author_id", u.ID.Hex()))
	h.AuditLog.CourseCreated(ctx, r, u.ID, c.ID, c.Title, c.Status)

	uierrors.WriteJSON(w, http.StatusCreated, courseResponse{
		Success: true,
		Message: "course created",
		Course:  authorView(c, u),
	})
}

// HandleEdit handles PUT /courses/{id}. Only the fields present in the
// body change.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
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

	var patch models.CoursePatch
	if err := formutil.DecodeJSON(w, r, &patch); err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}
	if patch.IsEmpty() {
		uierrors.RenderBadRequest(w, r, "no fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Enroll.EditCourse(ctx, id, patch, u.Principal())
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	h.AuditLog.CourseUpdated(ctx, r, u.ID, c.ID, patchFields(patch))
	if patch.Status != nil && *patch.Status == models.StatusPublished {
		h.AuditLog.CoursePublished(ctx, r, u.ID, c.ID)
	}

	uierrors.WriteJSON(w, http.StatusOK, courseResponse{
		Success: true,
		Message: "course updated",
		Course:  authorView(c, u),
	})
}

// patchFields lists the json names of the fields set in p.
func patchFields(p models.CoursePatch) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Title != nil, "title")
	add(p.Description != nil, "description")
	add(p.Price != nil, "price")
	add(p.Category != nil, "category")
	add(p.SubCategory != nil, "sub_category")
	add(p.Tags != nil, "tags")
	add(p.DurationHours != nil, "duration_hours")
	add(p.Status != nil, "status")
	return fields
}

// HandleDelete handles DELETE /courses/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Enroll.DeleteCourse(ctx, id, u.Principal()); err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	h.Log.Info("course deleted",
		zap.String("course_id", id.Hex()),
		zap.String("author_id", u.ID.Hex()))
	h.AuditLog.CourseDeleted(ctx, r, u.ID, id)

	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "course deleted",
	})
}

// ServeMine handles GET /courses/mine?status=draft|published.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.Enroll.MyAuthoredCourses(ctx, u.Principal(), query.Get(r, "status"))
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	if len(views) == 0 {
		uierrors.RenderNotFound(w, r, msgNoCourses)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{Success: true, Courses: views})
}
