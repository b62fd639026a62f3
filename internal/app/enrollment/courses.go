package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/coursehub/internal/app/catalog"
	"github.com/dalemusser/coursehub/internal/app/policy/coursepolicy"
	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Field limits for course input.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 20000
	MaxTags           = 20
	MaxTagLen         = 50
)

// CourseInput is the data an instructor supplies for a new course.
type CourseInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	SubCategory   string   `json:"sub_category"`
	Tags          []string `json:"tags"`
	DurationHours float64  `json:"duration_hours"`
}

func (in *CourseInput) sanitize() {
	in.Title = htmlsanitize.StripTags(in.Title)
	in.Description = strings.TrimSpace(htmlsanitize.Sanitize(in.Description))
	in.Category = htmlsanitize.StripTags(in.Category)
	in.SubCategory = htmlsanitize.StripTags(in.SubCategory)
	in.Tags = htmlsanitize.StripAll(in.Tags)
}

func (in CourseInput) validate() error {
	switch {
	case in.Title == "":
		return apperr.Validation("title is required")
	case utf8.RuneCountInString(in.Title) > MaxTitleLen:
		return apperr.Validation(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	case in.Description == "":
		return apperr.Validation("description is required")
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLen:
		return apperr.Validation(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
	case in.Category == "":
		return apperr.Validation("category is required")
	case in.Price < 0:
		return apperr.Validation("price must be >= 0")
	case in.DurationHours < 0:
		return apperr.Validation("duration_hours must be >= 0")
	}
	return validateTags(in.Tags)
}

func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return apperr.Validation(fmt.Sprintf("at most %d tags are allowed", MaxTags))
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > MaxTagLen {
			return apperr.Validation(fmt.Sprintf("tags must be at most %d characters", MaxTagLen))
		}
	}
	return nil
}

// AddCourse creates a draft course authored by p and records it in p's
// authored list.
func (e *Engine) AddCourse(ctx context.Context, p models.Principal, in CourseInput) (models.Course, error) {
	if !models.CanAuthor(p.Role) {
		return models.Course{}, apperr.Forbidden("only instructors can create courses")
	}
	in.sanitize()
	if err := in.validate(); err != nil {
		return models.Course{}, err
	}

	taken, err := e.courses.TitleTaken(ctx, p.ID, in.Title, primitive.NilObjectID)
	if err != nil {
		return models.Course{}, apperr.Internal("failed to check course title", err)
	}
	if taken {
		return models.Course{}, apperr.ErrDuplicateTitle
	}

	var created models.Course
	err = e.tx.Run(ctx, func(ctx context.Context) error {
		c, err := e.courses.Create(ctx, models.Course{
			Title:         in.Title,
			Description:   in.Description,
			Price:         in.Price,
			Category:      in.Category,
			SubCategory:   in.SubCategory,
			Tags:          in.Tags,
			DurationHours: in.DurationHours,
			Author:        p.ID,
		})
		if err != nil {
			if errors.Is(err, coursestore.ErrDuplicateTitle) {
				return apperr.ErrDuplicateTitle
			}
			return err
		}
		ok, err := e.users.AddToList(ctx, p.ID, models.ListAuthored, c.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("user not found")
		}
		created = c
		return nil
	})
	if err != nil {
		return models.Course{}, internal("failed to create course", err)
	}

	e.rec.CourseCreated()
	return created, nil
}

// EditCourse applies patch to a course authored by p. Only the fields set
// in patch change. Setting status to published publishes the course; a
// published course cannot return to draft.
func (e *Engine) EditCourse(ctx context.Context, id primitive.ObjectID, patch models.CoursePatch, p models.Principal) (models.Course, error) {
	c, err := e.loadCourse(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	if d := coursepolicy.Authorize(p, c, coursepolicy.ActionEdit); !d.Allowed {
		return models.Course{}, apperr.Forbidden(d.Reason)
	}

	sanitizePatch(&patch)
	if err := validatePatch(patch); err != nil {
		return models.Course{}, err
	}
	if patch.Status != nil && *patch.Status == models.StatusDraft && c.IsPublished() {
		return models.Course{}, apperr.ErrCannotUnpublish
	}
	if patch.Title != nil && *patch.Title != c.Title {
		taken, err := e.courses.TitleTaken(ctx, c.Author, *patch.Title, c.ID)
		if err != nil {
			return models.Course{}, apperr.Internal("failed to check course title", err)
		}
		if taken {
			return models.Course{}, apperr.ErrDuplicateTitle
		}
	}

	updated, err := e.courses.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, coursestore.ErrNotFound):
			return models.Course{}, apperr.NotFound("course not found")
		case errors.Is(err, coursestore.ErrDuplicateTitle):
			return models.Course{}, apperr.ErrDuplicateTitle
		}
		return models.Course{}, apperr.Internal("failed to update course", err)
	}

	if !c.IsPublished() && updated.IsPublished() {
		e.rec.CoursePublished()
	}
	return updated, nil
}

func sanitizePatch(p *models.CoursePatch) {
	strip := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := htmlsanitize.StripTags(*s)
		return &v
	}
	p.Title = strip(p.Title)
	p.Category = strip(p.Category)
	p.SubCategory = strip(p.SubCategory)
	p.Status = strip(p.Status)
	if p.Description != nil {
		v := strings.TrimSpace(htmlsanitize.Sanitize(*p.Description))
		p.Description = &v
	}
	if p.Tags != nil {
		v := htmlsanitize.StripAll(*p.Tags)
		p.Tags = &v
	}
}

func validatePatch(p models.CoursePatch) error {
	if p.IsEmpty() {
		return apperr.Validation("nothing to update")
	}
	if p.Title != nil {
		if *p.Title == "" {
			return apperr.Validation("title cannot be empty")
		}
		if utf8.RuneCountInString(*p.Title) > MaxTitleLen {
			return apperr.Validation(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
		}
	}
	if p.Description != nil {
		if *p.Description == "" {
			return apperr.Validation("description cannot be empty")
		}
		if utf8.RuneCountInString(*p.Description) > MaxDescriptionLen {
			return apperr.Validation(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
		}
	}
	if p.Category != nil && *p.Category == "" {
		return apperr.Validation("category cannot be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return apperr.Validation("price must be >= 0")
	}
	if p.DurationHours != nil && *p.DurationHours < 0 {
		return apperr.Validation("duration_hours must be >= 0")
	}
	if p.Status != nil && !models.IsValidStatus(*p.Status) {
		return apperr.Validation(`status must be "draft" or "published"`)
	}
	if p.Tags != nil {
		return validateTags(*p.Tags)
	}
	return nil
}

// DeleteCourse removes a course authored by p. The id is pulled from the
// author's authored list and from every cart and wishlist before the
// course document goes, so a failed attempt can simply be retried.
// Purchased and archived lists keep the id.
func (e *Engine) DeleteCourse(ctx context.Context, id primitive.ObjectID, p models.Principal) error {
	c, err := e.loadCourse(ctx, id)
	if err != nil {
		return err
	}
	if d := coursepolicy.Authorize(p, c, coursepolicy.ActionDelete); !d.Allowed {
		return apperr.Forbidden(d.Reason)
	}

	err = e.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := e.users.RemoveFromList(ctx, c.Author, models.ListAuthored, id); err != nil {
			return fmt.Errorf("pull from authored: %w", err)
		}
		if _, err := e.users.PullFromAll(ctx, id, models.ListCart, models.ListWishlist); err != nil {
			return fmt.Errorf("pull from carts and wishlists: %w", err)
		}
		if err := e.courses.Delete(ctx, id); err != nil {
			if errors.Is(err, coursestore.ErrNotFound) {
				return apperr.NotFound("course not found")
			}
			return fmt.Errorf("delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			e.log.Error("course delete incomplete",
				zap.String("course_id", id.Hex()),
				zap.Error(err))
		}
		return internal("failed to delete course", err)
	}

	e.rec.CourseDeleted()
	return nil
}

// MyAuthoredCourses returns the courses p authored, optionally only those
// with the given status. An empty result is not an error.
func (e *Engine) MyAuthoredCourses(ctx context.Context, p models.Principal, status string) ([]models.CourseView, error) {
	if !models.CanAuthor(p.Role) {
		return nil, apperr.Forbidden("only instructors have authored courses")
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !models.IsValidStatus(status) {
		return nil, apperr.Validation(`status must be "draft" or "published"`)
	}

	courses, _, err := e.courses.Find(ctx, models.CourseFilter{Author: p.ID, Status: status}, models.All)
	if err != nil {
		return nil, apperr.Internal("failed to load courses", err)
	}
	return catalog.ExpandAuthors(ctx, e.users, courses, p)
}
