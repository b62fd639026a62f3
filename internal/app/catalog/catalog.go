// Package catalog answers the read side of the course marketplace:
// paged listings, lookup by id, substring search and category filters.
//
// Only published courses are listed. A draft is visible through GetByID
// to its author and to nobody else.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/coursehub/internal/app/policy/coursepolicy"
	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SearchAll is the query that lists every published course.
const SearchAll = "all"

// CourseReader is the part of the course store the catalog reads.
type CourseReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error)
	Find(ctx context.Context, f models.CourseFilter, p models.Page) ([]models.Course, int64, error)
}

// AuthorReader resolves author ids to public identities.
type AuthorReader interface {
	GetPublic(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorRef, error)
}

// PageResult is one page of a listing.
type PageResult struct {
	Courses    []models.CourseView `json:"courses"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	Total      int64               `json:"total"`
	TotalPages int                 `json:"total_pages"`
}

// Engine runs catalog queries against the stores.
type Engine struct {
	courses CourseReader
	users   AuthorReader
	log     *zap.Logger
}

// New returns a catalog Engine.
func New(courses CourseReader, users AuthorReader, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{courses: courses, users: users, log: log}
}

// ListPublished returns one page of published courses in insertion order.
func (e *Engine) ListPublished(ctx context.Context, p models.Page) (PageResult, error) {
	return e.page(ctx, models.CourseFilter{Status: models.StatusPublished}, p)
}

// GetByID returns the course when it is published or viewer is its author.
// Anyone else gets NotFound, so drafts do not leak their existence.
func (e *Engine) GetByID(ctx context.Context, id primitive.ObjectID, viewer models.Principal) (models.CourseView, error) {
	c, err := e.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			return models.CourseView{}, apperr.NotFound("course not found")
		}
		return models.CourseView{}, apperr.Internal("failed to load course", err)
	}
	if !coursepolicy.CanView(viewer, c) {
		return models.CourseView{}, apperr.NotFound("course not found")
	}

	views, err := ExpandAuthors(ctx, e.users, []models.Course{c}, viewer)
	if err != nil {
		return models.CourseView{}, err
	}
	return views[0], nil
}

// Search returns published courses whose title, description, category,
// sub-category or any tag contains q, ignoring case. The match is a plain
// substring; results are not ranked. "all" lists everything and a blank
// query matches nothing.
func (e *Engine) Search(ctx context.Context, q string, p models.Page) (PageResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return PageResult{Courses: []models.CourseView{}, Page: p.Page, Limit: p.Limit}, nil
	}
	if strings.EqualFold(q, SearchAll) {
		return e.ListPublished(ctx, p)
	}
	return e.page(ctx, models.CourseFilter{Status: models.StatusPublished, Query: q}, p)
}

// ByCategory returns every published course in category (exact match).
// An empty result is not an error, and a blank category matches nothing.
func (e *Engine) ByCategory(ctx context.Context, category string) ([]models.CourseView, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return []models.CourseView{}, nil
	}
	courses, _, err := e.courses.Find(ctx, models.CourseFilter{
		Status:   models.StatusPublished,
		Category: category,
	}, models.All)
	if err != nil {
		return nil, apperr.Internal("failed to load courses", err)
	}
	return ExpandAuthors(ctx, e.users, courses, models.Principal{})
}

func (e *Engine) page(ctx context.Context, f models.CourseFilter, p models.Page) (PageResult, error) {
	if p.Page < 1 || p.Limit < 1 {
		return PageResult{}, apperr.Validation("page and limit must be at least 1")
	}

	courses, total, err := e.courses.Find(ctx, f, p)
	if err != nil {
		return PageResult{}, apperr.Internal("failed to load courses", err)
	}
	views, err := ExpandAuthors(ctx, e.users, courses, models.Principal{})
	if err != nil {
		return PageResult{}, err
	}

	return PageResult{
		Courses:    views,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: TotalPages(total, p.Limit),
	}, nil
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ExpandAuthors builds client views for courses. Every author is shown as
// {id, username}; the email is only kept when viewer is that author.
func ExpandAuthors(ctx context.Context, users AuthorReader, courses []models.Course, viewer models.Principal) ([]models.CourseView, error) {
	views := make([]models.CourseView, 0, len(courses))
	if len(courses) == 0 {
		return views, nil
	}

	seen := make(map[primitive.ObjectID]struct{}, len(courses))
	ids := make([]primitive.ObjectID, 0, len(courses))
	for _, c := range courses {
		if _, ok := seen[c.Author]; !ok {
			seen[c.Author] = struct{}{}
			ids = append(ids, c.Author)
		}
	}

	authors, err := users.GetPublic(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load course authors", err)
	}

	for _, c := range courses {
		ref, ok := authors[c.Author]
		if !ok {
			ref = models.AuthorRef{ID: c.Author}
		}
		if !coursepolicy.CanSeeAuthorEmail(viewer, c) {
			ref.Email = ""
		}
		views = append(views, models.NewCourseView(c, ref))
	}
	return views, nil
}
