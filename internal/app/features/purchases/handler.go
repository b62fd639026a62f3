// internal/app/features/purchases/handler.go
package purchases

import (
	"context"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves purchasing and the purchased-course library.
type Handler struct {
	Enroll   *enrollment.Engine
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(enroll *enrollment.Engine, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	return &Handler{Enroll: enroll, Log: logger, ErrLog: errLog, AuditLog: auditLog}
}

// HandlePurchase handles POST /courses/{id}/purchase. The course leaves
// the buyer's cart and wishlist.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Enroll.Purchase(ctx, u.ID, id); err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}

	h.Log.Info("course purchased",
		zap.String("course_id", id.Hex()),
		zap.String("user_id", u.ID.Hex()))
	h.AuditLog.CoursePurchased(ctx, r, u.ID, id)

	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "course purchased",
	})
}

// ServePurchased handles GET /purchased.
func (h *Handler) ServePurchased(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.Enroll.GetPurchased(ctx, u.ID)
	if err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	if len(views) == 0 {
		uierrors.RenderNotFound(w, r, "no purchased courses")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, struct {
		Success bool                `json:"success"`
		Courses []models.CourseView `json:"courses"`
	}{true, views})
}

// HandleArchive handles POST /purchased/{id}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.archive(w, r, h.Enroll.Archive, "course archived")
}

// HandleUnarchive handles DELETE /purchased/{id}/archive.
func (h *Handler) HandleUnarchive(w http.ResponseWriter, r *http.Request) {
	h.archive(w, r, h.Enroll.Unarchive, "course unarchived")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, courseID primitive.ObjectID) error, msg string) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := op(ctx, u.ID, id); err != nil {
		h.ErrLog.Render(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msg,
	})
}
