// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound        = errors.New("course not found")
	ErrDuplicateTitle  = errors.New("a course with this title already exists for this author")
	ErrAlreadyReviewed = errors.New("student already reviewed this course")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

// Create inserts a new course. The id, timestamps and empty review and
// enrollment sets are filled in here; Status defaults to draft.
func (s *Store) Create(ctx context.Context, c models.Course) (models.Course, error) {
	now := time.Now().UTC()

	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = models.StatusDraft
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.Reviews = []models.Review{}
	c.AverageRating = 0
	c.StudentsEnrolled = []primitive.ObjectID{}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Course{}, ErrDuplicateTitle
		}
		return models.Course{}, err
	}
	return c, nil
}

// GetByID returns a course by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	var c models.Course
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Course{}, ErrNotFound
		}
		return models.Course{}, err
	}
	return c, nil
}

// GetByIDs returns the courses for ids in the order of ids. Ids with no
// course (deleted since they were listed) are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var found []models.Course
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	out := make([]models.Course, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Find returns the courses matching f in insertion order, along with the
// total number of matches. The zero Page returns every match.
func (s *Store) Find(ctx context.Context, f models.CourseFilter, p models.Page) ([]models.Course, int64, error) {
	filter := BuildFilter(f)

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if p.Limit > 0 {
		opts.SetSkip(p.Skip()).SetLimit(int64(p.Limit))
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	courses := []models.Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// BuildFilter converts a CourseFilter to a Mongo query. Query becomes a
// case-insensitive regex over the escaped literal, so "c++" matches "C++".
func BuildFilter(f models.CourseFilter) bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if !f.Author.IsZero() {
		q["author"] = f.Author
	}
	if f.IDs != nil {
		q["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"category": re},
			bson.M{"sub_category": re},
			bson.M{"tags": re},
		}
	}
	return q
}

// TitleTaken reports whether author already has a course titled title,
// ignoring the course exclude (pass primitive.NilObjectID to ignore none).
func (s *Store) TitleTaken(ctx context.Context, author primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"author": author, "title": title}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update applies the non-nil fields of patch with a single $set and
// returns the updated course.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch models.CoursePatch) (models.Course, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.SubCategory != nil {
		set["sub_category"] = *patch.SubCategory
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if patch.DurationHours != nil {
		set["duration_hours"] = *patch.DurationHours
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	var out models.Course
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Course{}, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return models.Course{}, ErrDuplicateTitle
		}
		return models.Course{}, err
	}
	return out, nil
}

// Delete removes a course by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview appends r and recomputes average_rating in one pipeline
// update. The filter only matches when r.Student has not reviewed yet.
func (s *Store) AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (models.Course, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	filter := bson.M{"_id": id, "reviews.student": bson.M{"$ne": r.Student}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				// $literal keeps a comment like "$reviews" from being read as a path.
				bson.A{bson.M{"$literal": bson.M{
					"student":    r.Student,
					"rating":     r.Rating,
					"comment":    r.Comment,
					"created_at": r.CreatedAt,
				}}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"average_rating": bson.M{"$avg": "$reviews.rating"},
			"updated_at":     r.CreatedAt,
		}}},
	}

	var out models.Course
	err := s.c.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Course{}, err
	}

	// No match: either the course is gone or the student already reviewed.
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.Course{}, gerr
	}
	return models.Course{}, ErrAlreadyReviewed
}

// AddEnrolled adds userID to the course's students_enrolled set.
func (s *Store) AddEnrolled(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"students_enrolled": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
