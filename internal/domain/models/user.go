// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user may hold. "both" can author and buy courses.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleBoth       = "both"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleBoth:
		return true
	}
	return false
}

// CanAuthor reports whether the role may create courses.
func CanAuthor(role string) bool {
	return role == RoleInstructor || role == RoleBoth
}

// CourseList names one of the per-user course id sets. The value is
// the bson field the set is stored under.
type CourseList string

const (
	ListAuthored  CourseList = "authored_courses"
	ListPurchased CourseList = "purchased_courses"
	ListCart      CourseList = "cart"
	ListWishlist  CourseList = "wishlist"
	ListArchived  CourseList = "archived_courses"
)

// User is a student, instructor, or both.
//
// The course lists are sets: the stores only ever add to them with
// conditional $addToSet updates, so an id appears at most once per list.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"` // lowercase, unique
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role     string             `bson:"role" json:"role"` // student | instructor | both

	// Credentials: either a bcrypt hash or an OAuth identity.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	Provider     string `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderID   string `bson:"provider_id,omitempty" json:"-"`

	AuthoredCourses  []primitive.ObjectID `bson:"authored_courses" json:"authored_courses"`
	PurchasedCourses []primitive.ObjectID `bson:"purchased_courses" json:"purchased_courses"`
	Cart             []primitive.ObjectID `bson:"cart" json:"cart"`
	Wishlist         []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	ArchivedCourses  []primitive.ObjectID `bson:"archived_courses" json:"archived_courses"`

	// ActiveSessionToken is the only token that authenticates this user.
	// A new login overwrites it; logout clears it.
	ActiveSessionToken string `bson:"active_session_token,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// List returns the ids stored in the named list.
func (u User) List(l CourseList) []primitive.ObjectID {
	switch l {
	case ListAuthored:
		return u.AuthoredCourses
	case ListPurchased:
		return u.PurchasedCourses
	case ListCart:
		return u.Cart
	case ListWishlist:
		return u.Wishlist
	case ListArchived:
		return u.ArchivedCourses
	}
	return nil
}

// Has reports whether id is in the named list.
func (u User) Has(l CourseList, id primitive.ObjectID) bool {
	for _, v := range u.List(l) {
		if v == id {
			return true
		}
	}
	return false
}

// AuthorRef is the public identity of a course author. Email is only
// filled in when the viewer is the author.
type AuthorRef struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
}

// Principal is the verified identity behind a request.
type Principal struct {
	ID   primitive.ObjectID
	Role string
}
