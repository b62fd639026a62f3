// internal/app/features/session/login.go
package session

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/authutil"
	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.uber.org/zap"
)

const msgBadCredentials = "invalid email or password"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Registration fields. Supplying either for an unknown email creates
	// the account.
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (req loginRequest) wantsRegistration() bool {
	return req.Username != "" || req.Role != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/session                                                           |
| Signs in with email + password, or registers when the email is unknown and  |
| registration fields are present.                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		h.AuditLog.LoginFailedRateLimit(r.Context(), r)
		uierrors.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many sign-in attempts, try again later")
		return
	}

	var req loginRequest
	if err := formutil.DecodeJSON(w, r, &req); err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}
	email := userstore.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		uierrors.RenderBadRequest(w, r, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		if !req.wantsRegistration() {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
			uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized", msgBadCredentials)
			return
		}
		h.register(ctx, w, r, req)
		return
	case err != nil:
		h.ErrLog.LogServerError(r, "load user for login failed", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not sign in")
		return
	}

	if u.PasswordHash == "" {
		uierrors.WriteError(w, http.StatusForbidden, "forbidden", "this account signs in with "+providerName(u.Provider))
		return
	}
	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		uierrors.WriteError(w, http.StatusUnauthorized, "unauthorized", msgBadCredentials)
		return
	}

	h.Begin(w, r, u, Start{Method: "password", Status: http.StatusOK, Message: "signed in"})
}

func (h *Handler) register(ctx context.Context, w http.ResponseWriter, r *http.Request, req loginRequest) {
	reg, err := authutil.ValidateRegistration(authutil.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		uierrors.RenderBadRequest(w, r, err.Error())
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		Role:         reg.Role,
		PasswordHash: reg.PasswordHash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Lost a race with a concurrent registration.
		uierrors.WriteError(w, http.StatusBadRequest, "duplicate_email", err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(r, "create user failed", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not create account")
		return
	}

	h.Log.Info("user registered",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role))
	h.AuditLog.UserRegistered(ctx, r, u.ID, "password", u.Role)

	h.Begin(w, r, u, Start{Method: "password", Status: http.StatusCreated, Message: "account created"})
}

func providerName(p string) string {
	if p == "" {
		return "an external provider"
	}
	return p
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /auth/session                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.ClearSessionToken(ctx, u.ID, auth.CurrentToken(r)); err != nil {
		h.ErrLog.LogServerError(r, "clear session token failed", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not sign out")
		return
	}
	if err := h.SessionMgr.ClearToken(w, r); err != nil {
		h.Log.Warn("clear session cookie failed", zap.Error(err))
	}

	h.AuditLog.Logout(ctx, r, u.ID)
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "signed out",
	})
}
