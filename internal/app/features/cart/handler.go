// internal/app/features/cart/handler.go
package cart

import (
	"context"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the cart and wishlist of the signed-in user.
type Handler struct {
	Enroll *enrollment.Engine
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(enroll *enrollment.Engine, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	return &Handler{Enroll: enroll, Log: logger, ErrLog: errLog}
}

type addInput struct {
	CourseID string `json:"course_id"`
}

type itemsResponse struct {
	Success bool                  `json:"success"`
	Items   []enrollment.CartItem `json:"items"`
}

// list binds the engine operations for one list so cart and wishlist
// share the handlers below.
type list struct {
	name   string
	add    func(ctx context.Context, userID, courseID primitive.ObjectID) error
	remove func(ctx context.Context, userID, courseID primitive.ObjectID) error
	get    func(ctx context.Context, userID primitive.ObjectID) ([]enrollment.CartItem, error)
}

func (h *Handler) cart() list {
	return list{name: "cart", add: h.Enroll.AddToCart, remove: h.Enroll.RemoveFromCart, get: h.Enroll.GetCart}
}

func (h *Handler) wishlist() list {
	return list{name: "wishlist", add: h.Enroll.AddToWishlist, remove: h.Enroll.RemoveFromWishlist, get: h.Enroll.GetWishlist}
}

func (h *Handler) serveAdd(l list) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			uierrors.RenderUnauthorized(w, r)
			return
		}
		var in addInput
		if err := formutil.DecodeJSON(w, r, &in); err != nil {
			uierrors.RenderBadRequest(w, r, err.Error())
			return
		}
		courseID, ok := formutil.ParseID(in.CourseID)
		if !ok {
			uierrors.RenderBadRequest(w, r, "course_id must be a valid id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		if err := l.add(ctx, u.ID, courseID); err != nil {
			h.ErrLog.Render(w, r, err)
			return
		}
		uierrors.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "course added to " + l.name,
		})
	}
}

func (h *Handler) serveRemove(l list) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			uierrors.RenderUnauthorized(w, r)
			return
		}
		courseID, ok := formutil.PathID(r, "id")
		if !ok {
			uierrors.RenderNotFound(w, r, "course not found")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		if err := l.remove(ctx, u.ID, courseID); err != nil {
			h.ErrLog.Render(w, r, err)
			return
		}
		uierrors.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "course removed from " + l.name,
		})
	}
}

func (h *Handler) serveGet(l list) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			uierrors.RenderUnauthorized(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		items, err := l.get(ctx, u.ID)
		if err != nil {
			h.ErrLog.Render(w, r, err)
			return
		}
		if items == nil {
			items = []enrollment.CartItem{}
		}
		uierrors.WriteJSON(w, http.StatusOK, itemsResponse{Success: true, Items: items})
	}
}
