package enrollment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/enrollment"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"github.com/dalemusser/coursehub/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// spyRecorder counts metric events by name.
type spyRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{counts: make(map[string]int)}
}

func (s *spyRecorder) inc(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name]++
}

func (s *spyRecorder) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[name]
}

func (s *spyRecorder) CourseCreated()   { s.inc("course_created") }
func (s *spyRecorder) CourseDeleted()   { s.inc("course_deleted") }
func (s *spyRecorder) CoursePublished() { s.inc("course_published") }
func (s *spyRecorder) Purchase()        { s.inc("purchase") }
func (s *spyRecorder) ReviewAdded()     { s.inc("review_added") }
func (s *spyRecorder) ListChange(list, op string) {
	s.inc(list + "_" + op)
}

type env struct {
	eng *enrollment.Engine
	db  *memstore.DB
	fx  *testutil.Fixtures
	rec *spyRecorder
	ctx context.Context
}

func setup(t *testing.T) *env {
	t.Helper()
	db := memstore.New()
	rec := newSpyRecorder()
	return &env{
		eng: enrollment.New(db.Courses, db.Users, db, rec, nil),
		db:  db,
		fx:  testutil.NewFixtures(t, db.Users, db.Courses),
		rec: rec,
		ctx: context.Background(),
	}
}

func (e *env) user(t *testing.T, id primitive.ObjectID) models.User {
	t.Helper()
	u, err := e.db.Users.GetByID(e.ctx, id)
	if err != nil {
		t.Fatalf("GetByID(user) failed: %v", err)
	}
	return u
}

func principal(u models.User) models.Principal {
	return models.Principal{ID: u.ID, Role: u.Role}
}

// assertErr checks err against want. A nil want means no error; an
// *apperr.Error sentinel is matched with errors.Is; a bare Kind checks the kind.
func assertErr(t *testing.T, err error, want any) {
	t.Helper()
	switch w := want.(type) {
	case nil:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case *apperr.Error:
		if !errors.Is(err, w) {
			t.Fatalf("error = %v, want %v", err, w)
		}
	case apperr.Kind:
		if got := apperr.KindOf(err); err == nil || got != w {
			t.Fatalf("error = %v (kind %v), want kind %v", err, got, w)
		}
	default:
		t.Fatalf("assertErr: unsupported want %T", want)
	}
}
