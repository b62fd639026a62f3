package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/features/health"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context, *readpref.ReadPref) error { return s.err }

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

func serve(t *testing.T, p health.Pinger) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.Routes(health.NewHandler(p, zap.NewNop())).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		database string
	}{
		{"connected", nil, http.StatusOK, "connected"},
		{"ping fails", errors.New("server selection timeout: 10.0.0.5"), http.StatusServiceUnavailable, "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, stubPinger{err: tt.err})
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if body.Database != tt.database {
				t.Errorf("database = %q, want %q", body.Database, tt.database)
			}
			if strings.Contains(rec.Body.String(), "10.0.0.5") {
				t.Error("driver errors must not reach the client")
			}
		})
	}
}

func TestServe_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec, body := serve(t, db.Client())
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Errorf("status = %d body = %+v", rec.Code, body)
	}
}
