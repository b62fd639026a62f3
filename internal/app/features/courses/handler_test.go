package courses_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/catalog"
	"github.com/dalemusser/coursehub/internal/app/enrollment"
	"github.com/dalemusser/coursehub/internal/app/features/courses"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"github.com/dalemusser/coursehub/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	router http.Handler
	db     *memstore.DB
	fx     *testutil.Fixtures
	ctx    context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memstore.New()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "test", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	cat := catalog.New(db.Courses, db.Users, logger)
	enr := enrollment.New(db.Courses, db.Users, db, nil, logger)
	h := courses.NewHandler(cat, enr, nil, nil, logger)

	r := chi.NewRouter()
	courses.MountRoutes(r, h, sm)

	return &testEnv{
		router: r,
		db:     db,
		fx:     testutil.NewFixtures(t, db.Users, db.Courses),
		ctx:    context.Background(),
	}
}

func (e *testEnv) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestServeList(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	for _, title := range []string{"Go", "Rust", "Zig"} {
		env.fx.CreatePublishedCourse(env.ctx, author, title, "Programming")
	}
	env.fx.CreateCourse(env.ctx, author, "Secret Draft", "Programming")

	rec := env.do(testutil.NewRequest("GET", "/courses?page=1&limit=2"))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Success    bool                `json:"success"`
		Courses    []models.CourseView `json:"courses"`
		Total      int64               `json:"total"`
		TotalPages int                 `json:"total_pages"`
	}
	rec.Decode(t, &resp)
	if !resp.Success || len(resp.Courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(resp.Courses))
	}
	if resp.Total != 3 || resp.TotalPages != 2 {
		t.Errorf("total = %d pages = %d, want 3 and 2", resp.Total, resp.TotalPages)
	}
	rec.AssertNotContains(t, "Secret Draft")
	rec.AssertNotContains(t, author.Email)
}

func TestServeList_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{"empty catalog", "/courses", http.StatusNotFound, "no courses found"},
		{"bad page", "/courses?page=0", http.StatusBadRequest, "page must be"},
		{"bad limit", "/courses?limit=abc", http.StatusBadRequest, "limit must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(testutil.NewRequest("GET", tt.target))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.body)
		})
	}
}

func TestServeSearchAndCategory(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	env.fx.CreatePublishedCourse(env.ctx, author, "Intro to Go", "Programming")
	env.fx.CreatePublishedCourse(env.ctx, author, "Watercolor", "Art")

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"search hit", "/courses/search?q=go", http.StatusOK, "Intro to Go"},
		{"search all", "/courses/search?q=all", http.StatusOK, "Watercolor"},
		{"search miss", "/courses/search?q=cobol", http.StatusNotFound, "no courses found"},
		{"search empty", "/courses/search?q=", http.StatusNotFound, "no courses found"},
		{"category hit", "/courses/category?c=Art", http.StatusOK, "Watercolor"},
		{"category miss", "/courses/category?c=Cooking", http.StatusNotFound, "no courses found"},
		{"category empty", "/courses/category", http.StatusNotFound, "no courses found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(testutil.NewRequest("GET", tt.target))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestServeCourse(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	other := env.fx.CreateInstructor(env.ctx, "bob")
	draft := env.fx.CreateCourse(env.ctx, author, "Draft", "Programming")
	pub := env.fx.CreatePublishedCourse(env.ctx, author, "Live", "Programming")

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"published anonymous", testutil.NewRequest("GET", "/courses/"+pub.ID.Hex()), http.StatusOK},
		{"draft anonymous", testutil.NewRequest("GET", "/courses/"+draft.ID.Hex()), http.StatusNotFound},
		{"draft other instructor", testutil.WithUser(testutil.NewRequest("GET", "/courses/"+draft.ID.Hex()), other), http.StatusNotFound},
		{"draft author", testutil.WithUser(testutil.NewRequest("GET", "/courses/"+draft.ID.Hex()), author), http.StatusOK},
		{"unknown id", testutil.NewRequest("GET", "/courses/"+primitive.NewObjectID().Hex()), http.StatusNotFound},
		{"malformed id", testutil.NewRequest("GET", "/courses/xyz"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.do(tt.req).AssertStatus(t, tt.status)
		})
	}

	// The author sees their own email; nobody else does.
	rec := env.do(testutil.WithUser(testutil.NewRequest("GET", "/courses/"+pub.ID.Hex()), author))
	rec.AssertContains(t, author.Email)
	rec = env.do(testutil.WithUser(testutil.NewRequest("GET", "/courses/"+pub.ID.Hex()), other))
	rec.AssertNotContains(t, author.Email)
}

func courseBody(title string) map[string]any {
	return map[string]any{
		"title":          title,
		"description":    "Learn things",
		"price":          25,
		"category":       "Programming",
		"tags":           []string{"go"},
		"duration_hours": 3,
	}
}

func TestHandleCreate(t *testing.T) {
	env := newTestEnv(t)
	inst := env.fx.CreateInstructor(env.ctx, "ada")
	student := env.fx.CreateStudent(env.ctx, "sam")

	rec := env.do(testutil.NewAuthenticatedRequest(t, "POST", "/courses", courseBody("Go 101"), inst))
	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		Course models.CourseView `json:"course"`
	}
	rec.Decode(t, &resp)
	if resp.Course.Status != models.StatusDraft {
		t.Errorf("status = %q, want draft", resp.Course.Status)
	}
	if resp.Course.Author.Email != inst.Email {
		t.Errorf("author email = %q, want %q", resp.Course.Author.Email, inst.Email)
	}

	tests := []struct {
		name   string
		req    *http.Request
		status int
		body   string
	}{
		{"duplicate title", testutil.NewAuthenticatedRequest(t, "POST", "/courses", courseBody("Go 101"), inst), http.StatusBadRequest, "duplicate_title"},
		{"student", testutil.NewAuthenticatedRequest(t, "POST", "/courses", courseBody("Mine"), student), http.StatusForbidden, "forbidden"},
		{"anonymous", testutil.NewJSONRequest(t, "POST", "/courses", courseBody("Anon")), http.StatusUnauthorized, "sign in required"},
		{"missing title", testutil.NewAuthenticatedRequest(t, "POST", "/courses", courseBody(""), inst), http.StatusBadRequest, "title is required"},
		{"unknown field", testutil.NewAuthenticatedRequest(t, "POST", "/courses", map[string]any{"name": "x"}, inst), http.StatusBadRequest, "unknown field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.req)
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.body)
		})
	}
}

func TestHandleCreate_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	inst := env.fx.CreateInstructor(env.ctx, "ada")
	env.db.Fail(memstore.OpCourseCreate, errors.New("disk full"))

	rec := env.do(testutil.NewAuthenticatedRequest(t, "POST", "/courses", courseBody("Go 101"), inst))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertNotContains(t, "disk full")
}

func TestHandleEdit(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	other := env.fx.CreateInstructor(env.ctx, "bob")
	c := env.fx.CreateCourse(env.ctx, author, "Go 101", "Programming")
	env.fx.CreateCourse(env.ctx, author, "Taken", "Programming")
	path := "/courses/" + c.ID.Hex()

	tests := []struct {
		name   string
		user   models.User
		body   map[string]any
		status int
		want   string
	}{
		{"not author", other, map[string]any{"price": 5}, http.StatusForbidden, "not author"},
		{"empty patch", author, map[string]any{}, http.StatusBadRequest, "no fields to update"},
		{"duplicate title", author, map[string]any{"title": "Taken"}, http.StatusBadRequest, "duplicate_title"},
		{"partial update", author, map[string]any{"price": 5}, http.StatusOK, `"price":5`},
		{"publish", author, map[string]any{"status": "published"}, http.StatusOK, `"status":"published"`},
		{"unpublish", author, map[string]any{"status": "draft"}, http.StatusBadRequest, "cannot_unpublish"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(testutil.NewAuthenticatedRequest(t, "PUT", path, tt.body, tt.user))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
		})
	}

	got, _ := env.db.Courses.GetByID(env.ctx, c.ID)
	if got.Title != "Go 101" || got.Description != c.Description {
		t.Errorf("untouched fields changed: %+v", got)
	}

	rec := env.do(testutil.NewAuthenticatedRequest(t, "PUT", "/courses/"+primitive.NewObjectID().Hex(), map[string]any{"price": 1}, author))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	other := env.fx.CreateInstructor(env.ctx, "bob")
	c := env.fx.CreateCourse(env.ctx, author, "Go 101", "Programming")
	path := "/courses/" + c.ID.Hex()

	env.do(testutil.NewAuthenticatedRequest(t, "DELETE", path, nil, other)).AssertStatus(t, http.StatusForbidden)
	env.do(testutil.NewAuthenticatedRequest(t, "DELETE", path, nil, author)).AssertStatus(t, http.StatusOK)
	env.do(testutil.NewAuthenticatedRequest(t, "DELETE", path, nil, author)).AssertStatus(t, http.StatusNotFound)

	u, _ := env.db.Users.GetByID(env.ctx, author.ID)
	if u.Has(models.ListAuthored, c.ID) {
		t.Error("deleted course still in authored list")
	}
}

func TestServeMine(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	student := env.fx.CreateStudent(env.ctx, "sam")

	env.do(testutil.NewAuthenticatedRequest(t, "GET", "/courses/mine", nil, author)).AssertStatus(t, http.StatusNotFound)

	env.fx.CreateCourse(env.ctx, author, "Draft One", "Programming")
	env.fx.CreatePublishedCourse(env.ctx, author, "Live One", "Programming")

	tests := []struct {
		name    string
		target  string
		status  int
		want    string
		exclude string
	}{
		{"all", "/courses/mine", http.StatusOK, "Draft One", ""},
		{"drafts", "/courses/mine?status=draft", http.StatusOK, "Draft One", "Live One"},
		{"published", "/courses/mine?status=PUBLISHED", http.StatusOK, "Live One", "Draft One"},
		{"bad status", "/courses/mine?status=archived", http.StatusBadRequest, "status must be", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(testutil.NewAuthenticatedRequest(t, "GET", tt.target, nil, author))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
			if tt.exclude != "" {
				rec.AssertNotContains(t, tt.exclude)
			}
		})
	}

	env.do(testutil.NewAuthenticatedRequest(t, "GET", "/courses/mine", nil, student)).AssertStatus(t, http.StatusForbidden)
}

func TestHandleReview(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	buyer := env.fx.CreateStudent(env.ctx, "sam")
	browser := env.fx.CreateStudent(env.ctx, "tom")
	c := env.fx.CreatePublishedCourse(env.ctx, author, "Go 101", "Programming")
	if _, err := env.db.Users.Purchase(env.ctx, buyer.ID, c.ID); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	path := "/courses/" + c.ID.Hex() + "/reviews"

	tests := []struct {
		name   string
		user   models.User
		body   map[string]any
		status int
		want   string
	}{
		{"not purchased", browser, map[string]any{"rating": 5}, http.StatusForbidden, "purchased"},
		{"rating too high", buyer, map[string]any{"rating": 6}, http.StatusBadRequest, "rating must be"},
		{"ok", buyer, map[string]any{"rating": 4, "comment": "<b>nice</b>"}, http.StatusCreated, `"average_rating":4`},
		{"twice", buyer, map[string]any{"rating": 2}, http.StatusBadRequest, "already_reviewed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(testutil.NewAuthenticatedRequest(t, "POST", path, tt.body, tt.user))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
			rec.AssertNotContains(t, "<b>")
		})
	}
}
