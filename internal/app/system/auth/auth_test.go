package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-token-secret-must-be-32-chars-long"

// fakeFetcher returns users from a map.
type fakeFetcher map[primitive.ObjectID]*auth.SessionUser

func (f fakeFetcher) FetchUser(_ context.Context, id primitive.ObjectID) *auth.SessionUser {
	return f[id]
}

func newTestSessionManager(t *testing.T, users fakeFetcher) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	ti, err := auth.NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	sm.SetTokenIssuer(ti)
	sm.SetUserFetcher(users)
	return sm
}

// signedInUser issues a token for a new user and stores it as active.
func signedInUser(t *testing.T, sm *auth.SessionManager, users fakeFetcher, role string) (*auth.SessionUser, string) {
	t.Helper()
	u := &auth.SessionUser{ID: primitive.NewObjectID(), Username: "u", Role: role}
	tok, err := sm.Tokens().Issue(u.ID, role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	u.ActiveToken = tok
	users[u.ID] = u
	return u, tok
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := auth.CurrentUser(r); ok {
			w.Write([]byte(u.ID.Hex()))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestLoadSessionUser_BearerToken(t *testing.T) {
	users := fakeFetcher{}
	sm := newTestSessionManager(t, users)
	u, tok := signedInUser(t, sm, users, "student")

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != u.ID.Hex() {
		t.Errorf("expected user %s, got %q", u.ID.Hex(), rec.Body.String())
	}
}

func TestLoadSessionUser_SupersededTokenIsAnonymous(t *testing.T) {
	users := fakeFetcher{}
	sm := newTestSessionManager(t, users)
	u, oldTok := signedInUser(t, sm, users, "student")

	// A second login replaces the active token.
	newTok, _ := sm.Tokens().Issue(u.ID, u.Role)
	u.ActiveToken = newTok

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+oldTok)
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "anonymous" {
		t.Errorf("old token must not authenticate, got %q", rec.Body.String())
	}
}

func TestLoadSessionUser_LoggedOutIsAnonymous(t *testing.T) {
	users := fakeFetcher{}
	sm := newTestSessionManager(t, users)
	u, tok := signedInUser(t, sm, users, "student")
	u.ActiveToken = ""

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "anonymous" {
		t.Errorf("cleared token must not authenticate, got %q", rec.Body.String())
	}
}

func TestLoadSessionUser_Cookie(t *testing.T) {
	users := fakeFetcher{}
	sm := newTestSessionManager(t, users)
	u, tok := signedInUser(t, sm, users, "both")

	// Save the token into a cookie via a first response.
	saveRec := httptest.NewRecorder()
	if err := sm.SaveToken(saveRec, httptest.NewRequest("POST", "/auth/session", nil), tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/me", nil)
	for _, c := range saveRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != u.ID.Hex() {
		t.Errorf("expected cookie to authenticate %s, got %q", u.ID.Hex(), rec.Body.String())
	}
}

func TestLoadSessionUser_CookieFromRotatedKeyIsAnonymous(t *testing.T) {
	users := fakeFetcher{}
	old := newTestSessionManager(t, users)
	_, tok := signedInUser(t, old, users, "student")

	saveRec := httptest.NewRecorder()
	if err := old.SaveToken(saveRec, httptest.NewRequest("POST", "/auth/session", nil), tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	rotated, err := auth.NewSessionManager(
		"rotated-session-key-also-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	ti, _ := auth.NewTokenIssuer(testSecret, time.Hour)
	rotated.SetTokenIssuer(ti)
	rotated.SetUserFetcher(users)

	req := httptest.NewRequest("GET", "/me", nil)
	for _, c := range saveRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	rotated.LoadSessionUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "anonymous" {
		t.Errorf("expected anonymous, got %q", rec.Body.String())
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t, fakeFetcher{})

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t, fakeFetcher{})

	tests := []struct {
		name     string
		role     string
		signedIn bool
		want     int
	}{
		{"no user", "", false, http.StatusUnauthorized},
		{"student", "student", true, http.StatusForbidden},
		{"instructor", "instructor", true, http.StatusOK},
		{"both", "both", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := sm.RequireRole("instructor", "both")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("POST", "/courses", nil)
			if tt.signedIn {
				req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID(), Role: tt.role})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
