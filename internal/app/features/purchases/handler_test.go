package purchases_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	"github.com/dalemusser/coursehub/internal/app/features/purchases"
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

	h := purchases.NewHandler(enrollment.New(db.Courses, db.Users, db, nil, logger), nil, nil, logger)
	r := chi.NewRouter()
	purchases.MountRoutes(r, h, sm)

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

func TestHandlePurchase(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	student := env.fx.CreateStudent(env.ctx, "sam")
	course := env.fx.CreatePublishedCourse(env.ctx, author, "Go 101", "Programming")
	draft := env.fx.CreateCourse(env.ctx, author, "Draft", "Programming")

	if _, err := env.db.Users.AddToList(env.ctx, student.ID, models.ListCart, course.ID); err != nil {
		t.Fatalf("AddToList failed: %v", err)
	}

	purchase := func(id string) *testutil.ResponseRecorder {
		return env.do(testutil.NewAuthenticatedRequest(t, "POST", "/courses/"+id+"/purchase", nil, student))
	}

	env.do(testutil.NewRequest("GET", "/purchased")).AssertStatus(t, http.StatusUnauthorized)
	env.do(testutil.NewAuthenticatedRequest(t, "GET", "/purchased", nil, student)).AssertStatus(t, http.StatusNotFound)

	purchase(course.ID.Hex()).AssertStatus(t, http.StatusOK)

	u, _ := env.db.Users.GetByID(env.ctx, student.ID)
	if !u.Has(models.ListPurchased, course.ID) || u.Has(models.ListCart, course.ID) {
		t.Errorf("after purchase: purchased=%v cart=%v", u.PurchasedCourses, u.Cart)
	}
	c, _ := env.db.Courses.GetByID(env.ctx, course.ID)
	if len(c.StudentsEnrolled) != 1 {
		t.Errorf("students enrolled = %d, want 1", len(c.StudentsEnrolled))
	}

	tests := []struct {
		name   string
		id     string
		status int
		want   string
	}{
		{"again", course.ID.Hex(), http.StatusBadRequest, "already_purchased"},
		{"draft", draft.ID.Hex(), http.StatusBadRequest, "cannot_purchase_unpublished"},
		{"unknown", primitive.NewObjectID().Hex(), http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := purchase(tt.id)
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
		})
	}

	rec := env.do(testutil.NewAuthenticatedRequest(t, "GET", "/purchased", nil, student))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Go 101")
}

func TestHandlePurchase_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	student := env.fx.CreateStudent(env.ctx, "sam")
	course := env.fx.CreatePublishedCourse(env.ctx, author, "Go 101", "Programming")

	env.db.Fail(memstore.OpUserPurchase, errors.New("connection reset"))
	rec := env.do(testutil.NewAuthenticatedRequest(t, "POST", "/courses/"+course.ID.Hex()+"/purchase", nil, student))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertNotContains(t, "connection reset")
}

func TestArchive(t *testing.T) {
	env := newTestEnv(t)
	author := env.fx.CreateInstructor(env.ctx, "ada")
	student := env.fx.CreateStudent(env.ctx, "sam")
	course := env.fx.CreatePublishedCourse(env.ctx, author, "Go 101", "Programming")
	other := env.fx.CreatePublishedCourse(env.ctx, author, "Rust", "Programming")
	if _, err := env.db.Users.Purchase(env.ctx, student.ID, course.ID); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}

	path := "/purchased/" + course.ID.Hex() + "/archive"
	steps := []struct {
		name   string
		method string
		path   string
		status int
		want   string
	}{
		{"archive", "POST", path, http.StatusOK, "course archived"},
		{"archive again", "POST", path, http.StatusBadRequest, "already_archived"},
		{"unarchive", "DELETE", path, http.StatusOK, "course unarchived"},
		{"unarchive again", "DELETE", path, http.StatusBadRequest, "not_archived"},
		{"not purchased", "POST", "/purchased/" + other.ID.Hex() + "/archive", http.StatusBadRequest, "not_purchased"},
	}
	for _, s := range steps {
		rec := env.do(testutil.NewAuthenticatedRequest(t, s.method, s.path, nil, student))
		rec.AssertStatus(t, s.status)
		rec.AssertContains(t, s.want)
	}

	u, _ := env.db.Users.GetByID(env.ctx, student.ID)
	if !u.Has(models.ListPurchased, course.ID) {
		t.Error("archiving must not remove the purchase")
	}
}
