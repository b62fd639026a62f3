// internal/app/features/courses/browse.go
package courses

import (
	"context"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/catalog"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/app/system/paging"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type pageResponse struct {
	Success bool `json:"success"`
	catalog.PageResult
}

type listResponse struct {
	Success bool                `json:"success"`
	Courses []models.CourseView `json:"courses"`
}

type courseResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Course  models.CourseView `json:"course"`
}

// ServeList handles GET /courses.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, err := paging.Parse(r)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Catalog.ListPublished(ctx, p)
	h.writePage(w, r, res, err)
}

// ServeSearch handles GET /courses/search?q=.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	p, err := paging.Parse(r)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Catalog.Search(ctx, query.Get(r, "q"), p)
	h.writePage(w, r, res, err)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, res catalog.PageResult, err error) {
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	if len(res.Courses) == 0 {
		uierrors.RenderNotFound(w, r, msgNoCourses)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, pageResponse{Success: true, PageResult: res})
}

// ServeCategory handles GET /courses/category?c=.
func (h *Handler) ServeCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.Catalog.ByCategory(ctx, query.Get(r, "c"))
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

// ServeCourse handles GET /courses/{id}. Drafts are only found by their author.
func (h *Handler) ServeCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.PathID(r, "id")
	if !ok {
		uierrors.RenderNotFound(w, r, "course not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Catalog.GetByID(ctx, id, formutil.Viewer(r))
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, courseResponse{Success: true, Course: view})
}
