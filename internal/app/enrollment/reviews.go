package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/coursehub/internal/app/catalog"
	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating bounds and comment limit for reviews.
const (
	MinRating        = 1
	MaxRating        = 5
	MaxReviewComment = 2000
)

// AddReview records the user's rating of a published course they bought.
// Each student reviews a course once. The course's average rating is
// recomputed in the same update that stores the review.
func (e *Engine) AddReview(ctx context.Context, userID, courseID primitive.ObjectID, rating int, comment string) (models.CourseView, error) {
	c, err := e.loadCourse(ctx, courseID)
	if err != nil {
		return models.CourseView{}, err
	}
	if !c.IsPublished() {
		return models.CourseView{}, apperr.NotFound("course not found")
	}
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return models.CourseView{}, err
	}
	if !u.Has(models.ListPurchased, courseID) {
		return models.CourseView{}, apperr.Forbidden("only students who purchased the course can review it")
	}
	if rating < MinRating || rating > MaxRating {
		return models.CourseView{}, apperr.Validation(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	comment = htmlsanitize.StripTags(comment)
	if utf8.RuneCountInString(comment) > MaxReviewComment {
		return models.CourseView{}, apperr.Validation(fmt.Sprintf("comment must be at most %d characters", MaxReviewComment))
	}

	updated, err := e.courses.AddReview(ctx, courseID, models.Review{
		Student:   userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, coursestore.ErrAlreadyReviewed):
			return models.CourseView{}, apperr.ErrAlreadyReviewed
		case errors.Is(err, coursestore.ErrNotFound):
			return models.CourseView{}, apperr.NotFound("course not found")
		}
		return models.CourseView{}, apperr.Internal("failed to add review", err)
	}

	e.rec.ReviewAdded()
	views, err := catalog.ExpandAuthors(ctx, e.users, []models.Course{updated}, principalOf(u))
	if err != nil {
		return models.CourseView{}, err
	}
	return views[0], nil
}
