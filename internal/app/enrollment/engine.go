// Package enrollment is the write side of the course marketplace: the
// course lifecycle owned by instructors and the per-user course lists
// (cart, wishlist, purchased, archived) owned by students.
//
// Every operation checks all of its preconditions before the first write.
// List mutations are conditional single-document updates, so two racing
// requests cannot both add the same course. Operations that touch more
// than one document run through a TxRunner.
package enrollment

import (
	"context"
	"errors"

	"github.com/dalemusser/coursehub/internal/app/catalog"
	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/metrics"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CourseStore is the course store contract.
type CourseStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Course, error)
	Find(ctx context.Context, f models.CourseFilter, p models.Page) ([]models.Course, int64, error)
	TitleTaken(ctx context.Context, author primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error)
	Create(ctx context.Context, c models.Course) (models.Course, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.CoursePatch) (models.Course, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (models.Course, error)
	AddEnrolled(ctx context.Context, id, userID primitive.ObjectID) error
}

// UserStore is the user store contract.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetPublic(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorRef, error)
	AddToList(ctx context.Context, userID primitive.ObjectID, list models.CourseList, courseID primitive.ObjectID, exclude ...models.CourseList) (bool, error)
	RemoveFromList(ctx context.Context, userID primitive.ObjectID, list models.CourseList, courseID primitive.ObjectID) (bool, error)
	Purchase(ctx context.Context, userID, courseID primitive.ObjectID) (bool, error)
	PullFromAll(ctx context.Context, courseID primitive.ObjectID, lists ...models.CourseList) (int64, error)
}

// TxRunner runs fn as one unit of work. txn.Runner uses a MongoDB
// transaction when the deployment supports one and runs fn directly
// otherwise.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Engine applies enrollment and course lifecycle operations.
type Engine struct {
	courses CourseStore
	users   UserStore
	tx      TxRunner
	rec     metrics.Recorder
	log     *zap.Logger
}

// New returns an Engine. rec and log may be nil.
func New(courses CourseStore, users UserStore, tx TxRunner, rec metrics.Recorder, log *zap.Logger) *Engine {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{courses: courses, users: users, tx: tx, rec: rec, log: log}
}

func (e *Engine) loadCourse(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	c, err := e.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			return models.Course{}, apperr.NotFound("course not found")
		}
		return models.Course{}, apperr.Internal("failed to load course", err)
	}
	return c, nil
}

func (e *Engine) loadUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := e.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Internal("failed to load user", err)
	}
	return u, nil
}

// expand loads ids in order and builds client views for viewer.
// Ids whose course no longer exists are skipped.
func (e *Engine) expand(ctx context.Context, ids []primitive.ObjectID, viewer models.Principal) ([]models.CourseView, error) {
	if len(ids) == 0 {
		return []models.CourseView{}, nil
	}
	courses, err := e.courses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load courses", err)
	}
	return catalog.ExpandAuthors(ctx, e.users, courses, viewer)
}

// internal passes domain errors through and wraps everything else.
func internal(msg string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Internal(msg, err)
}

func principalOf(u models.User) models.Principal {
	return models.Principal{ID: u.ID, Role: u.Role}
}
