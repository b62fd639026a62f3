// Package coursepolicy decides who may change a course.
//
// Authorization rules:
//   - Only the course author may edit or delete it, whatever their role
//   - Callers resolve the course first and report not-found before asking
//   - The route middleware RequireRole("instructor", "both") handles creation
package coursepolicy

import (
	"github.com/dalemusser/coursehub/internal/domain/models"
)

// Action is a mutating operation on a course.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ReasonNotAuthor is the denial reason for every non-author.
const ReasonNotAuthor = "not author"

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize allows action on course only when p is its author.
func Authorize(p models.Principal, course models.Course, action Action) Decision {
	if !p.ID.IsZero() && course.Author == p.ID {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, Reason: ReasonNotAuthor}
}

// CanSeeAuthorEmail reports whether viewer may see the author's email.
func CanSeeAuthorEmail(viewer models.Principal, course models.Course) bool {
	return !viewer.ID.IsZero() && viewer.ID == course.Author
}

// CanView reports whether viewer may see course. Drafts are only visible
// to their author.
func CanView(viewer models.Principal, course models.Course) bool {
	return course.IsPublished() || CanSeeAuthorEmail(viewer, course)
}
