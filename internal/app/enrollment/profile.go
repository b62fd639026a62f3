package enrollment

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseSummary is a short description of a course on a profile. Status
// is only set for authored courses.
type CourseSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Title    string             `json:"title"`
	Category string             `json:"category"`
	Price    float64            `json:"price"`
	Status   string             `json:"status,omitempty"`
}

// Profile is the signed-in user's own account view.
type Profile struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Avatar    string             `json:"avatar,omitempty"`
	Role      string             `json:"role"`
	Provider  string             `json:"provider,omitempty"`
	CreatedAt time.Time          `json:"created_at"`

	AuthoredCourses  []CourseSummary `json:"authored_courses"`
	PurchasedCourses []CourseSummary `json:"purchased_courses"`
}

// Profile returns the user's public fields with summaries of the courses
// they authored and purchased.
func (e *Engine) Profile(ctx context.Context, userID primitive.ObjectID) (Profile, error) {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	authored, err := e.summaries(ctx, u.AuthoredCourses, true)
	if err != nil {
		return Profile{}, err
	}
	purchased, err := e.summaries(ctx, u.PurchasedCourses, false)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Avatar:           u.Avatar,
		Role:             u.Role,
		Provider:         u.Provider,
		CreatedAt:        u.CreatedAt,
		AuthoredCourses:  authored,
		PurchasedCourses: purchased,
	}, nil
}

func (e *Engine) summaries(ctx context.Context, ids []primitive.ObjectID, withStatus bool) ([]CourseSummary, error) {
	out := make([]CourseSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	courses, err := e.courses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load courses", err)
	}
	for _, c := range courses {
		s := CourseSummary{ID: c.ID, Title: c.Title, Category: c.Category, Price: c.Price}
		if withStatus {
			s.Status = c.Status
		}
		out = append(out, s)
	}
	return out, nil
}
