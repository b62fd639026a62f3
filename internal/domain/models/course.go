// internal/domain/models/course.go
package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course status values. A course starts as a draft and can only move forward.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// IsValidStatus reports whether s is a known course status.
func IsValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// Review is a student's rating of a course they purchased.
type Review struct {
	Student   primitive.ObjectID `bson:"student" json:"student"`
	Rating    int                `bson:"rating" json:"rating"` // 1..5
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Course is an offering authored by an instructor.
//
// (Title, Author) is unique. AverageRating is always the mean of
// Reviews[].Rating (0 when there are none).
type Course struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	Category      string             `bson:"category" json:"category"`
	SubCategory   string             `bson:"sub_category,omitempty" json:"sub_category,omitempty"`
	Tags          []string           `bson:"tags" json:"tags"`
	DurationHours float64            `bson:"duration_hours" json:"duration_hours"`
	Author        primitive.ObjectID `bson:"author" json:"author"`
	Status        string             `bson:"status" json:"status"`

	Reviews          []Review             `bson:"reviews" json:"reviews"`
	AverageRating    float64              `bson:"average_rating" json:"average_rating"`
	StudentsEnrolled []primitive.ObjectID `bson:"students_enrolled" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPublished reports whether the course is visible in the catalog.
func (c Course) IsPublished() bool {
	return c.Status == StatusPublished
}

// CoursePatch holds the fields of an edit. Nil fields are left alone.
type CoursePatch struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	Category      *string   `json:"category,omitempty"`
	SubCategory   *string   `json:"sub_category,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	DurationHours *float64  `json:"duration_hours,omitempty"`
	Status        *string   `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CoursePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.SubCategory == nil && p.Tags == nil &&
		p.DurationHours == nil && p.Status == nil
}

// CourseFilter selects courses in the store. Zero fields do not filter.
//
// Query is matched as a literal, case-insensitive substring against
// title, description, category, sub_category and every tag.
type CourseFilter struct {
	Status   string
	Category string
	Author   primitive.ObjectID
	IDs      []primitive.ObjectID
	Query    string
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Skip is the number of documents before the page. It saturates at
// math.MaxInt64 instead of wrapping.
func (p Page) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	pages, limit := int64(p.Page-1), int64(p.Limit)
	if pages > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return pages * limit
}

// All is the zero Page; stores return every match for it.
var All = Page{}

// CourseView is a course as shown to clients: the author id is replaced
// by the author's public identity and enrolled students are counted.
type CourseView struct {
	ID               primitive.ObjectID `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Price            float64            `json:"price"`
	Category         string             `json:"category"`
	SubCategory      string             `json:"sub_category,omitempty"`
	Tags             []string           `json:"tags"`
	DurationHours    float64            `json:"duration_hours"`
	Status           string             `json:"status"`
	Author           AuthorRef          `json:"author"`
	Reviews          []Review           `json:"reviews"`
	AverageRating    float64            `json:"average_rating"`
	StudentsEnrolled int                `json:"students_enrolled"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NewCourseView builds the client view of c with the given author identity.
func NewCourseView(c Course, author AuthorRef) CourseView {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	reviews := c.Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return CourseView{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		Price:            c.Price,
		Category:         c.Category,
		SubCategory:      c.SubCategory,
		Tags:             tags,
		DurationHours:    c.DurationHours,
		Status:           c.Status,
		Author:           author,
		Reviews:          reviews,
		AverageRating:    c.AverageRating,
		StudentsEnrolled: len(c.StudentsEnrolled),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
