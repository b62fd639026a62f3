package enrollment

import (
	"context"
	"errors"

	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MyLists is every course list of a user, expanded.
type MyLists struct {
	PurchasedCourses []models.CourseView `json:"purchased_courses"`
	Wishlist         []models.CourseView `json:"wishlist"`
	Cart             []models.CourseView `json:"cart"`
	ArchivedCourses  []models.CourseView `json:"archived_courses"`
}

// IsEmpty reports whether every list is empty.
func (m MyLists) IsEmpty() bool {
	return len(m.PurchasedCourses) == 0 && len(m.Wishlist) == 0 &&
		len(m.Cart) == 0 && len(m.ArchivedCourses) == 0
}

// Purchase grants the user a published course. The course leaves the
// user's cart and wishlist in the same update that records the purchase,
// and the user is added to the course's enrolled students.
func (e *Engine) Purchase(ctx context.Context, userID, courseID primitive.ObjectID) error {
	c, err := e.loadCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !c.IsPublished() {
		return apperr.ErrCannotPurchaseUnpublished
	}
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Has(models.ListPurchased, courseID) {
		return apperr.ErrAlreadyPurchased
	}

	err = e.tx.Run(ctx, func(ctx context.Context) error {
		ok, err := e.users.Purchase(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrAlreadyPurchased
		}
		if err := e.courses.AddEnrolled(ctx, courseID, userID); err != nil {
			if errors.Is(err, coursestore.ErrNotFound) {
				return apperr.NotFound("course not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			e.log.Error("purchase failed",
				zap.String("user_id", userID.Hex()),
				zap.String("course_id", courseID.Hex()),
				zap.Error(err))
		}
		return internal("failed to purchase course", err)
	}

	e.rec.Purchase()
	return nil
}

// GetPurchased returns the courses the user has purchased, archived ones
// included. An empty result is not an error.
func (e *Engine) GetPurchased(ctx context.Context, userID primitive.ObjectID) ([]models.CourseView, error) {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, u.PurchasedCourses, principalOf(u))
}

// GetMyLists returns the user's purchased, wishlist, cart and archived
// courses. Courses are loaded once even when they appear in several lists.
func (e *Engine) GetMyLists(ctx context.Context, userID primitive.ObjectID) (MyLists, error) {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return MyLists{}, err
	}

	lists := []models.CourseList{models.ListPurchased, models.ListWishlist, models.ListCart, models.ListArchived}
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, l := range lists {
		for _, id := range u.List(l) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	views, err := e.expand(ctx, ids, principalOf(u))
	if err != nil {
		return MyLists{}, err
	}
	byID := make(map[primitive.ObjectID]models.CourseView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	pick := func(ids []primitive.ObjectID) []models.CourseView {
		out := make([]models.CourseView, 0, len(ids))
		for _, id := range ids {
			if v, ok := byID[id]; ok {
				out = append(out, v)
			}
		}
		return out
	}

	return MyLists{
		PurchasedCourses: pick(u.PurchasedCourses),
		Wishlist:         pick(u.Wishlist),
		Cart:             pick(u.Cart),
		ArchivedCourses:  pick(u.ArchivedCourses),
	}, nil
}

// Archive hides a purchased course from the user's active list. The
// course stays purchased.
func (e *Engine) Archive(ctx context.Context, userID, courseID primitive.ObjectID) error {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.Has(models.ListPurchased, courseID) {
		return apperr.ErrNotPurchased
	}
	if u.Has(models.ListArchived, courseID) {
		return apperr.ErrAlreadyArchived
	}

	ok, err := e.users.AddToList(ctx, userID, models.ListArchived, courseID)
	if err != nil {
		return apperr.Internal("failed to archive course", err)
	}
	if !ok {
		return apperr.ErrAlreadyArchived
	}
	e.rec.ListChange("archived", "add")
	return nil
}

// Unarchive moves an archived course back to the active list.
func (e *Engine) Unarchive(ctx context.Context, userID, courseID primitive.ObjectID) error {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.Has(models.ListArchived, courseID) {
		return apperr.ErrNotArchived
	}

	ok, err := e.users.RemoveFromList(ctx, userID, models.ListArchived, courseID)
	if err != nil {
		return apperr.Internal("failed to unarchive course", err)
	}
	if !ok {
		return apperr.ErrNotArchived
	}
	e.rec.ListChange("archived", "remove")
	return nil
}
