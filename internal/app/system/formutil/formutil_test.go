package formutil_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/formutil"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type payload struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"Go","price":9.5}`, ""},
		{"empty", ``, "request body is required"},
		{"malformed", `{"title":`, "not valid JSON"},
		{"wrong type", `{"price":"free"}`, `field "price" has the wrong type`},
		{"unknown field", `{"titel":"Go"}`, `unknown field "titel"`},
		{"two objects", `{"title":"a"}{"title":"b"}`, "single JSON object"},
		{"too large", `{"title":"` + strings.Repeat("x", formutil.MaxBodyBytes) + `"}`, "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var p payload
			err := formutil.DecodeJSON(rec, req, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				if p.Title != "Go" || p.Price != 9.5 {
					t.Errorf("decoded %+v", p)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeJSON() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"valid", id.Hex(), true},
		{"garbage", "not-an-id", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "id", tt.value)
			got, ok := formutil.PathID(req, "id")
			if ok != tt.ok {
				t.Fatalf("PathID() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != id {
				t.Errorf("PathID() = %s, want %s", got.Hex(), id.Hex())
			}
		})
	}
}

func TestViewer(t *testing.T) {
	anon := httptest.NewRequest("GET", "/", nil)
	if p := formutil.Viewer(anon); !p.ID.IsZero() {
		t.Errorf("anonymous viewer = %+v, want zero", p)
	}

	u := models.User{ID: primitive.NewObjectID(), Role: models.RoleInstructor}
	p := formutil.Viewer(testutil.WithUser(httptest.NewRequest("GET", "/", nil), u))
	if p.ID != u.ID || p.Role != models.RoleInstructor {
		t.Errorf("Viewer() = %+v, want %s/%s", p, u.ID.Hex(), u.Role)
	}
}
