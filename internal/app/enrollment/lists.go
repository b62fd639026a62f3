package enrollment

import (
	"context"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one entry of an expanded cart or wishlist.
type CartItem struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Price     float64            `json:"price"`
	CreatedBy models.AuthorRef   `json:"created_by"`
}

// listRules holds the conflict errors of a list that students add to.
type listRules struct {
	list    models.CourseList
	metric  string
	already *apperr.Error
	missing *apperr.Error
}

var (
	cartRules = listRules{
		list:    models.ListCart,
		metric:  "cart",
		already: apperr.ErrAlreadyInCart,
		missing: apperr.ErrNotInCart,
	}
	wishlistRules = listRules{
		list:    models.ListWishlist,
		metric:  "wishlist",
		already: apperr.ErrAlreadyInWishlist,
		missing: apperr.ErrNotInWishlist,
	}
)

// AddToCart puts a course in the user's cart. Drafts may be carted;
// purchased courses may not.
func (e *Engine) AddToCart(ctx context.Context, userID, courseID primitive.ObjectID) error {
	return e.addToList(ctx, userID, courseID, cartRules)
}

// RemoveFromCart takes a course out of the user's cart.
func (e *Engine) RemoveFromCart(ctx context.Context, userID, courseID primitive.ObjectID) error {
	return e.removeFromList(ctx, userID, courseID, cartRules)
}

// GetCart returns the user's cart with each course's title, price and author.
func (e *Engine) GetCart(ctx context.Context, userID primitive.ObjectID) ([]CartItem, error) {
	return e.getList(ctx, userID, models.ListCart)
}

// AddToWishlist puts a course on the user's wishlist. Same rules as the cart.
func (e *Engine) AddToWishlist(ctx context.Context, userID, courseID primitive.ObjectID) error {
	return e.addToList(ctx, userID, courseID, wishlistRules)
}

// RemoveFromWishlist takes a course off the user's wishlist.
func (e *Engine) RemoveFromWishlist(ctx context.Context, userID, courseID primitive.ObjectID) error {
	return e.removeFromList(ctx, userID, courseID, wishlistRules)
}

// GetWishlist returns the user's wishlist, expanded like the cart.
func (e *Engine) GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]CartItem, error) {
	return e.getList(ctx, userID, models.ListWishlist)
}

func (e *Engine) addToList(ctx context.Context, userID, courseID primitive.ObjectID, rules listRules) error {
	if _, err := e.loadCourse(ctx, courseID); err != nil {
		return err
	}
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Has(rules.list, courseID) {
		return rules.already
	}
	if u.Has(models.ListPurchased, courseID) {
		return apperr.ErrAlreadyPurchased
	}

	added, err := e.users.AddToList(ctx, userID, rules.list, courseID, models.ListPurchased)
	if err != nil {
		return apperr.Internal("failed to update "+rules.metric, err)
	}
	if !added {
		// Lost a race with another request; report what is there now.
		return e.explainMiss(ctx, userID, courseID, rules)
	}

	e.rec.ListChange(rules.metric, "add")
	return nil
}

// explainMiss re-reads the user after a conditional add matched nothing.
func (e *Engine) explainMiss(ctx context.Context, userID, courseID primitive.ObjectID, rules listRules) error {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Has(models.ListPurchased, courseID) {
		return apperr.ErrAlreadyPurchased
	}
	return rules.already
}

func (e *Engine) removeFromList(ctx context.Context, userID, courseID primitive.ObjectID, rules listRules) error {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.Has(rules.list, courseID) {
		return rules.missing
	}

	removed, err := e.users.RemoveFromList(ctx, userID, rules.list, courseID)
	if err != nil {
		return apperr.Internal("failed to update "+rules.metric, err)
	}
	if !removed {
		return rules.missing
	}

	e.rec.ListChange(rules.metric, "remove")
	return nil
}

func (e *Engine) getList(ctx context.Context, userID primitive.ObjectID, list models.CourseList) ([]CartItem, error) {
	u, err := e.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]CartItem, 0, len(u.List(list)))
	views, err := e.expand(ctx, u.List(list), principalOf(u))
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		items = append(items, CartItem{
			ID:        v.ID,
			Title:     v.Title,
			Price:     v.Price,
			CreatedBy: v.Author,
		})
	}
	return items, nil
}

