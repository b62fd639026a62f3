package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const tokenKey = "session_token"

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated user injected into r.Context().
type SessionUser struct {
	ID       primitive.ObjectID
	Username string
	Email    string
	Role     string

	// ActiveToken is the token stored on the user document. Only a request
	// presenting exactly this token is authenticated.
	ActiveToken string
}

// Principal returns the identity the engines authorize against.
func (u *SessionUser) Principal() models.Principal {
	return models.Principal{ID: u.ID, Role: u.Role}
}

// UserFetcher loads fresh user data on each request.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID primitive.ObjectID) *SessionUser
}

type ctxKey string

const (
	currentUserKey  ctxKey = "currentUser"
	currentTokenKey ctxKey = "currentToken"
)

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// CurrentToken returns the token the request authenticated with.
func CurrentToken(r *http.Request) string {
	t, _ := r.Context().Value(currentTokenKey).(string)
	return t
}

// WithTestUser injects u into the request context. Handler tests use it
// to bypass token verification.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u, u.ActiveToken)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager resolves the caller of a request from a bearer token or
// the session cookie.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	tokens  *TokenIssuer
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "coursehub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetTokenIssuer sets the issuer used to verify tokens.
func (sm *SessionManager) SetTokenIssuer(ti *TokenIssuer) { sm.tokens = ti }

// SetUserFetcher sets the loader used to resolve token subjects.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Tokens returns the configured issuer.
func (sm *SessionManager) Tokens() *TokenIssuer { return sm.tokens }

// SaveToken stores token in the session cookie.
func (sm *SessionManager) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// ClearToken expires the session cookie.
func (sm *SessionManager) ClearToken(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// requestToken returns the bearer token, falling back to the cookie.
func (sm *SessionManager) requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// A cookie signed with a rotated key fails to decode. Treat it as
		// no session; the next sign-in overwrites it.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Debug("ignoring undecodable session cookie", zap.Error(err))
		} else {
			sm.log.Warn("session cookie read failed", zap.Error(err))
		}
		return ""
	}
	t, _ := sess.Values[tokenKey].(string)
	return t
}

// Authenticate resolves token to a user. It returns nil unless the token
// verifies and is the user's active session token.
func (sm *SessionManager) Authenticate(ctx context.Context, token string) *SessionUser {
	if token == "" || sm.tokens == nil || sm.fetcher == nil {
		return nil
	}
	claims, err := sm.tokens.Parse(token)
	if err != nil {
		sm.log.Debug("rejecting session token", zap.Error(err))
		return nil
	}
	uid, _ := claims.UserID()
	u := sm.fetcher.FetchUser(ctx, uid)
	if u == nil || u.ActiveToken == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(u.ActiveToken), []byte(token)) != 1 {
		return nil
	}
	return u
}

// LoadSessionUser injects the user into context if the request carries a
// valid token. Requests without one continue anonymously.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sm.requestToken(r)
		if u := sm.Authenticate(r.Context(), token); u != nil {
			r = withUser(r, u, token)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeJSONError(w, http.StatusForbidden, "forbidden", "your role cannot do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser, token string) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, u)
	ctx = context.WithValue(ctx, currentTokenKey, token)
	return r.WithContext(ctx)
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"message": msg,
	})
}
