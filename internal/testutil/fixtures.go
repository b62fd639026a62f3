package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// UserCreator is the part of a user store fixtures need.
type UserCreator interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	AddToList(ctx context.Context, userID primitive.ObjectID, list models.CourseList, courseID primitive.ObjectID, exclude ...models.CourseList) (bool, error)
}

// CourseCreator is the part of a course store fixtures need.
type CourseCreator interface {
	Create(ctx context.Context, c models.Course) (models.Course, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.CoursePatch) (models.Course, error)
}

// Fixtures provides helper methods for creating test data. It works with
// the MongoDB stores and with memstore alike.
type Fixtures struct {
	t       *testing.T
	users   UserCreator
	courses CourseCreator
	seq     int
}

// NewFixtures creates a new Fixtures instance backed by the given stores.
func NewFixtures(t *testing.T, users UserCreator, courses CourseCreator) *Fixtures {
	t.Helper()
	return &Fixtures{t: t, users: users, courses: courses}
}

// CreateUser creates a user with the given username and role. The email is
// derived from the username and a sequence number so it stays unique.
func (f *Fixtures) CreateUser(ctx context.Context, username, role string) models.User {
	f.t.Helper()

	f.seq++
	u, err := f.users.Create(ctx, models.User{
		Username: username,
		Email:    fmt.Sprintf("%s.%d@test.com", strings.ToLower(username), f.seq),
		Role:     role,
	})
	if err != nil {
		f.t.Fatalf("failed to create user %q: %v", username, err)
	}
	return u
}

// CreateStudent creates a user with the student role.
func (f *Fixtures) CreateStudent(ctx context.Context, username string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, models.RoleStudent)
}

// CreateInstructor creates a user with the instructor role.
func (f *Fixtures) CreateInstructor(ctx context.Context, username string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, models.RoleInstructor)
}

// CreateCourse creates a draft course by author and records it in the
// author's authored list.
func (f *Fixtures) CreateCourse(ctx context.Context, author models.User, title, category string) models.Course {
	f.t.Helper()

	c, err := f.courses.Create(ctx, models.Course{
		Title:         title,
		Description:   "About " + title,
		Price:         19.99,
		Category:      category,
		Tags:          []string{strings.ToLower(category)},
		DurationHours: 4,
		Author:        author.ID,
	})
	if err != nil {
		f.t.Fatalf("failed to create course %q: %v", title, err)
	}
	if _, err := f.users.AddToList(ctx, author.ID, models.ListAuthored, c.ID); err != nil {
		f.t.Fatalf("failed to add course %q to authored list: %v", title, err)
	}
	return c
}

// CreatePublishedCourse creates a course and publishes it.
func (f *Fixtures) CreatePublishedCourse(ctx context.Context, author models.User, title, category string) models.Course {
	f.t.Helper()

	c := f.CreateCourse(ctx, author, title, category)
	status := models.StatusPublished
	c, err := f.courses.Update(ctx, c.ID, models.CoursePatch{Status: &status})
	if err != nil {
		f.t.Fatalf("failed to publish course %q: %v", title, err)
	}
	return c
}
