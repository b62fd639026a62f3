// internal/app/features/session/handler.go
package session

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserStore is the part of the user store sign-in needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	SetSessionToken(ctx context.Context, id primitive.ObjectID, token string) error
	ClearSessionToken(ctx context.Context, id primitive.ObjectID, token string) (bool, error)
}

// Handler signs users in and out.
type Handler struct {
	Users      UserStore
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.Limiter // nil disables login throttling
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
}

func NewHandler(users UserStore, sessionMgr *auth.SessionManager, limiter *ratelimit.Limiter, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   auditLog,
	}
}

// account is the signed-in user as returned to the client.
type account struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Role     string             `json:"role"`
	Avatar   string             `json:"avatar,omitempty"`
}

type startedResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Token     string  `json:"token"`
	Role      string  `json:"role"`
	User      account `json:"user"`
	ReturnURL string  `json:"return_url,omitempty"`
}

// Start describes how a session began.
type Start struct {
	Method    string // credential used: "password" or "google"
	Status    int    // 200 for a sign-in, 201 for a new account
	Message   string
	ReturnURL string // echoed back to the client when set
}

// Begin starts a session for u: it issues a token, makes it the user's
// only active token, stores it in the session cookie and writes the
// token response.
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request, u models.User, st Start) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token, err := h.SessionMgr.Tokens().Issue(u.ID, u.Role)
	if err != nil {
		h.ErrLog.LogServerError(r, "issue session token failed", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not start session")
		return
	}
	if err := h.Users.SetSessionToken(ctx, u.ID, token); err != nil {
		h.ErrLog.LogServerError(r, "store session token failed", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not start session")
		return
	}
	if err := h.SessionMgr.SaveToken(w, r, token); err != nil {
		// The bearer token still works without the cookie.
		h.Log.Warn("save session cookie failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	h.Log.Info("session started",
		zap.String("user_id", u.ID.Hex()),
		zap.String("method", st.Method))
	h.AuditLog.LoginSuccess(ctx, r, u.ID, st.Method, u.Email)

	uierrors.WriteJSON(w, st.Status, startedResponse{
		Success: true,
		Message: st.Message,
		Token:   token,
		Role:    u.Role,
		User: account{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
			Avatar:   u.Avatar,
		},
		ReturnURL: st.ReturnURL,
	})
}
