package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user has the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"instructor"|"both"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new user after normalizing & validating fields.
// Role defaults to student. The course lists start empty.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = NormalizeEmail(u.Email)
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	u.AuthoredCourses = []primitive.ObjectID{}
	u.PurchasedCourses = []primitive.ObjectID{}
	u.Cart = []primitive.ObjectID{}
	u.Wishlist = []primitive.ObjectID{}
	u.ArchivedCourses = []primitive.ObjectID{}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetSessionToken replaces the user's active session token.
func (s *Store) SetSessionToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"active_session_token": token,
		"updated_at":           time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearSessionToken removes the active session token if it still equals
// token. It reports whether a token was cleared; a newer login is left alone.
func (s *Store) ClearSessionToken(ctx context.Context, id primitive.ObjectID, token string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "active_session_token": token},
		bson.M{"$unset": bson.M{"active_session_token": ""}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// GetPublic returns the public identity (id, username, email) of each
// user in ids, keyed by id. Missing users are absent from the map.
func (s *Store) GetPublic(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorRef, error) {
	out := make(map[primitive.ObjectID]models.AuthorRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"_id": 1, "username": 1, "email": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var a models.AuthorRef
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, cur.Err()
}

/* -------------------------------------------------------------------------- */
/* Course list primitives                                                      */
/*                                                                             */
/* Each is one conditional single-document update, so two concurrent calls    */
/* cannot both succeed. A false result means the condition did not hold (or   */
/* the user does not exist); callers re-read the user to say which.           */
/* -------------------------------------------------------------------------- */

// AddToList adds courseID to list only if it is absent from list and from
// every list in exclude.
func (s *Store) AddToList(ctx context.Context, userID primitive.ObjectID, list models.CourseList, courseID primitive.ObjectID, exclude ...models.CourseList) (bool, error) {
	filter := bson.M{"_id": userID, string(list): bson.M{"$ne": courseID}}
	for _, l := range exclude {
		filter[string(l)] = bson.M{"$ne": courseID}
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$addToSet": bson.M{string(list): courseID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// RemoveFromList pulls courseID from list only if it is present.
func (s *Store) RemoveFromList(ctx context.Context, userID primitive.ObjectID, list models.CourseList, courseID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, string(list): courseID},
		bson.M{
			"$pull": bson.M{string(list): courseID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Purchase adds courseID to purchased_courses and pulls it from cart and
// wishlist in the same update. It reports false when the course was
// already purchased (or the user does not exist).
func (s *Store) Purchase(ctx context.Context, userID, courseID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, string(models.ListPurchased): bson.M{"$ne": courseID}},
		bson.M{
			"$addToSet": bson.M{string(models.ListPurchased): courseID},
			"$pull": bson.M{
				string(models.ListCart):     courseID,
				string(models.ListWishlist): courseID,
			},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// PullFromAll removes courseID from the given lists of every user and
// returns the number of users changed.
func (s *Store) PullFromAll(ctx context.Context, courseID primitive.ObjectID, lists ...models.CourseList) (int64, error) {
	if len(lists) == 0 {
		return 0, nil
	}
	pull := bson.M{}
	or := bson.A{}
	for _, l := range lists {
		pull[string(l)] = courseID
		or = append(or, bson.M{string(l): courseID})
	}
	res, err := s.c.UpdateMany(ctx, bson.M{"$or": or}, bson.M{"$pull": pull})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
