// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/features/session"
	"github.com/dalemusser/coursehub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Provider is the value stored in User.Provider for Google accounts.
const Provider = "google"

const (
	stateTTL           = 10 * time.Minute
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// UserStore is the part of the user store the callback needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// StateStore keeps OAuth state between the redirect and the callback.
// *oauthstate.Store satisfies it.
type StateStore interface {
	Save(ctx context.Context, st oauthstate.State) error
	Validate(ctx context.Context, state string) (oauthstate.State, bool, error)
}

// SessionStarter issues the session once Google has vouched for the user.
// *session.Handler satisfies it.
type SessionStarter interface {
	Begin(w http.ResponseWriter, r *http.Request, u models.User, st session.Start)
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      UserStore
	StateStore StateStore
	Sessions   SessionStarter
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://coursehub.example.com/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	users UserStore,
	stateStore StateStore,
	sessions SessionStarter,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	return &Handler{
		Users:        users,
		StateStore:   stateStore,
		Sessions:     sessions,
		Log:          logger,
		ErrLog:       errLog,
		AuditLog:     audit,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/login                                                       |
| Redirects to Google's consent screen with a one-time state and a PKCE        |
| challenge.                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		uierrors.RenderNotFound(w, r, "google sign-in is not configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.ErrLog.LogServerError(r, "failed to generate OAuth state", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not start google sign-in")
		return
	}
	verifier := oauth2.GenerateVerifier()
	returnURL := ""
	if raw := query.Get(r, "return"); raw != "" {
		returnURL = urlutil.SafeReturn(raw, "", "/")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, oauthstate.State{
		State:     state,
		ReturnURL: returnURL,
		Verifier:  verifier,
		ExpiresAt: time.Now().UTC().Add(stateTTL),
	}); err != nil {
		h.ErrLog.LogServerError(r, "failed to save OAuth state", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not start google sign-in")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusFound)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile and signs the user in,       |
| creating the account on first use.                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		uierrors.WriteError(w, http.StatusForbidden, "forbidden", "google sign-in was denied")
		return
	}

	state := q.Get("state")
	if state == "" {
		uierrors.WriteError(w, http.StatusForbidden, "forbidden", "missing sign-in state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		h.ErrLog.LogServerError(r, "failed to validate OAuth state", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not complete google sign-in")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		uierrors.WriteError(w, http.StatusForbidden, "forbidden", "sign-in state is invalid or expired")
		return
	}

	code := q.Get("code")
	if code == "" {
		uierrors.RenderBadRequest(w, r, "missing authorization code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code, oauth2.VerifierOption(st.Verifier))
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		uierrors.WriteError(w, http.StatusBadGateway, "bad_gateway", "google token exchange failed")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		uierrors.WriteError(w, http.StatusBadGateway, "bad_gateway", "could not read google profile")
		return
	}
	if info.Email == "" || !info.EmailVerified {
		uierrors.WriteError(w, http.StatusForbidden, "forbidden", "google account email is not verified")
		return
	}

	h.loginOrRegister(ctx, w, r, info, st.ReturnURL)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// loginOrRegister signs in the account that owns the Google email, or
// creates a student account for it.
func (h *Handler) loginOrRegister(ctx context.Context, w http.ResponseWriter, r *http.Request, info *googleUserInfo, returnURL string) {
	email := userstore.NormalizeEmail(info.Email)

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Provider != Provider || u.ProviderID != info.ID {
			h.Log.Info("Google OAuth: email belongs to another sign-in method",
				zap.String("user_id", u.ID.Hex()))
			uierrors.WriteError(w, http.StatusForbidden, "forbidden", "this email is registered with a different sign-in method")
			return
		}
		h.Sessions.Begin(w, r, u, session.Start{
			Method:    Provider,
			Status:    http.StatusOK,
			Message:   "signed in",
			ReturnURL: returnURL,
		})
		return
	case !errors.Is(err, userstore.ErrNotFound):
		h.ErrLog.LogServerError(r, "failed to look up user", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not complete google sign-in")
		return
	}

	u, err = h.Users.Create(ctx, models.User{
		Username:   displayName(info),
		Email:      email,
		Avatar:     info.Picture,
		Role:       models.RoleStudent,
		Provider:   Provider,
		ProviderID: info.ID,
	})
	if err != nil {
		h.ErrLog.LogServerError(r, "failed to create Google user", err)
		uierrors.WriteError(w, http.StatusInternalServerError, "internal", "could not create account")
		return
	}

	h.Log.Info("Google OAuth: user registered", zap.String("user_id", u.ID.Hex()))
	h.AuditLog.UserRegistered(ctx, r, u.ID, Provider, u.Role)

	h.Sessions.Begin(w, r, u, session.Start{
		Method:    Provider,
		Status:    http.StatusCreated,
		Message:   "account created",
		ReturnURL: returnURL,
	})
}

func displayName(info *googleUserInfo) string {
	if name := strings.TrimSpace(info.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(info.Email, "@")
	return local
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
