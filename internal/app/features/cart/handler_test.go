package cart_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	"github.com/dalemusser/coursehub/internal/app/features/cart"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
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

	h := cart.NewHandler(enrollment.New(db.Courses, db.Users, db, nil, logger), nil, logger)
	r := chi.NewRouter()
	cart.MountRoutes(r, h, sm)

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

func TestListEndpoints(t *testing.T) {
	for _, list := range []string{"cart", "wishlist"} {
		t.Run(list, func(t *testing.T) {
			env := newTestEnv(t)
			author := env.fx.CreateInstructor(env.ctx, "ada")
			student := env.fx.CreateStudent(env.ctx, "sam")
			course := env.fx.CreatePublishedCourse(env.ctx, author, "Go 101", "Programming")
			draft := env.fx.CreateCourse(env.ctx, author, "Draft", "Programming")
			owned := env.fx.CreatePublishedCourse(env.ctx, author, "Owned", "Programming")
			if _, err := env.db.Users.Purchase(env.ctx, student.ID, owned.ID); err != nil {
				t.Fatalf("Purchase failed: %v", err)
			}

			base := "/" + list
			add := func(id string) *testutil.ResponseRecorder {
				return env.do(testutil.NewAuthenticatedRequest(t, "POST", base, map[string]any{"course_id": id}, student))
			}

			rec := env.do(testutil.NewAuthenticatedRequest(t, "GET", base, nil, student))
			rec.AssertStatus(t, http.StatusOK)
			rec.AssertContains(t, `"items":[]`)

			add(course.ID.Hex()).AssertStatus(t, http.StatusOK)
			add(draft.ID.Hex()).AssertStatus(t, http.StatusOK)

			dup := add(course.ID.Hex())
			dup.AssertStatus(t, http.StatusBadRequest)
			dup.AssertContains(t, "already_in_"+list)

			bought := add(owned.ID.Hex())
			bought.AssertStatus(t, http.StatusBadRequest)
			bought.AssertContains(t, "already_purchased")

			add(primitive.NewObjectID().Hex()).AssertStatus(t, http.StatusNotFound)
			add("nope").AssertStatus(t, http.StatusBadRequest)

			rec = env.do(testutil.NewAuthenticatedRequest(t, "GET", base, nil, student))
			rec.AssertStatus(t, http.StatusOK)
			rec.AssertContains(t, "Go 101")
			rec.AssertContains(t, `"created_by"`)
			rec.AssertNotContains(t, author.Email)

			env.do(testutil.NewAuthenticatedRequest(t, "DELETE", base+"/"+course.ID.Hex(), nil, student)).AssertStatus(t, http.StatusOK)
			missing := env.do(testutil.NewAuthenticatedRequest(t, "DELETE", base+"/"+course.ID.Hex(), nil, student))
			missing.AssertStatus(t, http.StatusBadRequest)
			missing.AssertContains(t, "not_in_"+list)
		})
	}
}

func TestListEndpoints_RequireSignIn(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		target string
	}{
		{"GET", "/cart"},
		{"POST", "/cart"},
		{"DELETE", "/cart/" + primitive.NewObjectID().Hex()},
		{"GET", "/wishlist"},
		{"POST", "/wishlist"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			env.do(testutil.NewJSONRequest(t, tt.method, tt.target, nil)).AssertStatus(t, http.StatusUnauthorized)
		})
	}
}
