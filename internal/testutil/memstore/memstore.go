// Package memstore is an in-memory implementation of the course and user
// store contracts for engine and handler tests. It mirrors the sentinel
// errors and conditional-update semantics of the MongoDB stores and can
// inject a failure into the next call of any operation.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation names accepted by Fail.
const (
	OpCourseCreate      = "courses.Create"
	OpCourseUpdate      = "courses.Update"
	OpCourseDelete      = "courses.Delete"
	OpCourseFind        = "courses.Find"
	OpCourseAddEnrolled = "courses.AddEnrolled"
	OpUserCreate        = "users.Create"
	OpUserGetByEmail    = "users.GetByEmail"
	OpUserSetToken      = "users.SetSessionToken"
	OpUserAddToList     = "users.AddToList"
	OpUserRemoveList    = "users.RemoveFromList"
	OpUserPurchase      = "users.Purchase"
	OpUserPullFromAll   = "users.PullFromAll"
)

// DB holds the in-memory collections.
type DB struct {
	mu      sync.Mutex
	courses map[primitive.ObjectID]models.Course
	users   map[primitive.ObjectID]models.User
	faults  map[string]error

	Courses *CourseStore
	Users   *UserStore
}

// New returns an empty DB.
func New() *DB {
	db := &DB{
		courses: make(map[primitive.ObjectID]models.Course),
		users:   make(map[primitive.ObjectID]models.User),
		faults:  make(map[string]error),
	}
	db.Courses = &CourseStore{db: db}
	db.Users = &UserStore{db: db}
	return db
}

// Fail makes the next call of op return err.
func (db *DB) Fail(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults[op] = err
}

// fault returns and clears the injected error for op. Caller holds mu.
func (db *DB) fault(op string) error {
	err, ok := db.faults[op]
	if !ok {
		return nil
	}
	delete(db.faults, op)
	return err
}

// Run calls fn directly: the in-memory store has no transactions, which
// is the same path a standalone MongoDB takes.
func (db *DB) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func cloneIDs(in []primitive.ObjectID) []primitive.ObjectID {
	if in == nil {
		return []primitive.ObjectID{}
	}
	return append([]primitive.ObjectID(nil), in...)
}

func cloneCourse(c models.Course) models.Course {
	c.Tags = append([]string{}, c.Tags...)
	c.Reviews = append([]models.Review{}, c.Reviews...)
	c.StudentsEnrolled = cloneIDs(c.StudentsEnrolled)
	return c
}

func cloneUser(u models.User) models.User {
	u.AuthoredCourses = cloneIDs(u.AuthoredCourses)
	u.PurchasedCourses = cloneIDs(u.PurchasedCourses)
	u.Cart = cloneIDs(u.Cart)
	u.Wishlist = cloneIDs(u.Wishlist)
	u.ArchivedCourses = cloneIDs(u.ArchivedCourses)
	return u
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

/* -------------------------------------------------------------------------- */
/* Courses                                                                     */
/* -------------------------------------------------------------------------- */

// CourseStore implements the course store contract.
type CourseStore struct {
	db *DB
}

func (s *CourseStore) titleTakenLocked(author primitive.ObjectID, title string, exclude primitive.ObjectID) bool {
	for id, c := range s.db.courses {
		if id != exclude && c.Author == author && c.Title == title {
			return true
		}
	}
	return false
}

func (s *CourseStore) Create(_ context.Context, c models.Course) (models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpCourseCreate); err != nil {
		return models.Course{}, err
	}
	if s.titleTakenLocked(c.Author, c.Title, primitive.NilObjectID) {
		return models.Course{}, coursestore.ErrDuplicateTitle
	}

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

	s.db.courses[c.ID] = cloneCourse(c)
	return cloneCourse(c), nil
}

func (s *CourseStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return models.Course{}, coursestore.ErrNotFound
	}
	return cloneCourse(c), nil
}

func (s *CourseStore) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Course{}
	for _, id := range ids {
		if c, ok := s.db.courses[id]; ok {
			out = append(out, cloneCourse(c))
		}
	}
	return out, nil
}

func matches(c models.Course, f models.CourseFilter) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if !f.Author.IsZero() && c.Author != f.Author {
		return false
	}
	if f.IDs != nil && !containsID(f.IDs, c.ID) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		fields := append([]string{c.Title, c.Description, c.Category, c.SubCategory}, c.Tags...)
		hit := false
		for _, v := range fields {
			if strings.Contains(strings.ToLower(v), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (s *CourseStore) Find(_ context.Context, f models.CourseFilter, p models.Page) ([]models.Course, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpCourseFind); err != nil {
		return nil, 0, err
	}

	all := make([]models.Course, 0)
	for _, c := range s.db.courses {
		if matches(c, f) {
			all = append(all, cloneCourse(c))
		}
	}
	// ObjectIDs grow monotonically, so sorting by id is insertion order.
	sort.Slice(all, func(i, j int) bool {
		return strings.Compare(all[i].ID.Hex(), all[j].ID.Hex()) < 0
	})

	total := int64(len(all))
	if p.Limit > 0 {
		skip := int(p.Skip())
		if skip >= len(all) {
			return []models.Course{}, total, nil
		}
		end := skip + p.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[skip:end]
	}
	return all, total, nil
}

func (s *CourseStore) TitleTaken(_ context.Context, author primitive.ObjectID, title string, exclude primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.titleTakenLocked(author, title, exclude), nil
}

func (s *CourseStore) Update(_ context.Context, id primitive.ObjectID, patch models.CoursePatch) (models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpCourseUpdate); err != nil {
		return models.Course{}, err
	}
	c, ok := s.db.courses[id]
	if !ok {
		return models.Course{}, coursestore.ErrNotFound
	}
	if patch.Title != nil && s.titleTakenLocked(c.Author, *patch.Title, id) {
		return models.Course{}, coursestore.ErrDuplicateTitle
	}

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Price != nil {
		c.Price = *patch.Price
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.SubCategory != nil {
		c.SubCategory = *patch.SubCategory
	}
	if patch.Tags != nil {
		c.Tags = append([]string{}, (*patch.Tags)...)
	}
	if patch.DurationHours != nil {
		c.DurationHours = *patch.DurationHours
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	c.UpdatedAt = time.Now().UTC()

	s.db.courses[id] = c
	return cloneCourse(c), nil
}

func (s *CourseStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpCourseDelete); err != nil {
		return err
	}
	if _, ok := s.db.courses[id]; !ok {
		return coursestore.ErrNotFound
	}
	delete(s.db.courses, id)
	return nil
}

func (s *CourseStore) AddReview(_ context.Context, id primitive.ObjectID, r models.Review) (models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return models.Course{}, coursestore.ErrNotFound
	}
	for _, existing := range c.Reviews {
		if existing.Student == r.Student {
			return models.Course{}, coursestore.ErrAlreadyReviewed
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	c.Reviews = append(append([]models.Review{}, c.Reviews...), r)

	sum := 0
	for _, rv := range c.Reviews {
		sum += rv.Rating
	}
	c.AverageRating = float64(sum) / float64(len(c.Reviews))
	c.UpdatedAt = r.CreatedAt

	s.db.courses[id] = c
	return cloneCourse(c), nil
}

func (s *CourseStore) AddEnrolled(_ context.Context, id, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpCourseAddEnrolled); err != nil {
		return err
	}
	c, ok := s.db.courses[id]
	if !ok {
		return coursestore.ErrNotFound
	}
	if !containsID(c.StudentsEnrolled, userID) {
		c.StudentsEnrolled = append(cloneIDs(c.StudentsEnrolled), userID)
	}
	s.db.courses[id] = c
	return nil
}

/* -------------------------------------------------------------------------- */
/* Users                                                                       */
/* -------------------------------------------------------------------------- */

// UserStore implements the user store contract and auth.UserFetcher.
type UserStore struct {
	db *DB
}

func (s *UserStore) Create(_ context.Context, u models.User) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserCreate); err != nil {
		return models.User{}, err
	}

	u.Email = userstore.NormalizeEmail(u.Email)
	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errors.New("invalid role")
	}
	u.AuthoredCourses = []primitive.ObjectID{}
	u.PurchasedCourses = []primitive.ObjectID{}
	u.Cart = []primitive.ObjectID{}
	u.Wishlist = []primitive.ObjectID{}
	u.ArchivedCourses = []primitive.ObjectID{}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.db.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *UserStore) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, userstore.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserGetByEmail); err != nil {
		return models.User{}, err
	}
	email = userstore.NormalizeEmail(email)
	for _, u := range s.db.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return models.User{}, userstore.ErrNotFound
}

func (s *UserStore) SetSessionToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserSetToken); err != nil {
		return err
	}
	u, ok := s.db.users[id]
	if !ok {
		return userstore.ErrNotFound
	}
	u.ActiveSessionToken = token
	s.db.users[id] = u
	return nil
}

func (s *UserStore) ClearSessionToken(_ context.Context, id primitive.ObjectID, token string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok || u.ActiveSessionToken != token {
		return false, nil
	}
	u.ActiveSessionToken = ""
	s.db.users[id] = u
	return true, nil
}

func (s *UserStore) GetPublic(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorRef, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make(map[primitive.ObjectID]models.AuthorRef, len(ids))
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			out[id] = models.AuthorRef{ID: u.ID, Username: u.Username, Email: u.Email}
		}
	}
	return out, nil
}

// list returns a pointer to the named list of u.
func list(u *models.User, l models.CourseList) *[]primitive.ObjectID {
	switch l {
	case models.ListAuthored:
		return &u.AuthoredCourses
	case models.ListPurchased:
		return &u.PurchasedCourses
	case models.ListCart:
		return &u.Cart
	case models.ListWishlist:
		return &u.Wishlist
	case models.ListArchived:
		return &u.ArchivedCourses
	}
	return nil
}

func (s *UserStore) AddToList(_ context.Context, userID primitive.ObjectID, l models.CourseList, courseID primitive.ObjectID, exclude ...models.CourseList) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserAddToList); err != nil {
		return false, err
	}
	u, ok := s.db.users[userID]
	if !ok {
		return false, nil
	}
	if u.Has(l, courseID) {
		return false, nil
	}
	for _, x := range exclude {
		if u.Has(x, courseID) {
			return false, nil
		}
	}
	u = cloneUser(u)
	p := list(&u, l)
	*p = append(*p, courseID)
	s.db.users[userID] = u
	return true, nil
}

func (s *UserStore) RemoveFromList(_ context.Context, userID primitive.ObjectID, l models.CourseList, courseID primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserRemoveList); err != nil {
		return false, err
	}
	u, ok := s.db.users[userID]
	if !ok || !u.Has(l, courseID) {
		return false, nil
	}
	u = cloneUser(u)
	p := list(&u, l)
	*p = removeID(*p, courseID)
	s.db.users[userID] = u
	return true, nil
}

func (s *UserStore) Purchase(_ context.Context, userID, courseID primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserPurchase); err != nil {
		return false, err
	}
	u, ok := s.db.users[userID]
	if !ok || u.Has(models.ListPurchased, courseID) {
		return false, nil
	}
	u = cloneUser(u)
	u.PurchasedCourses = append(u.PurchasedCourses, courseID)
	u.Cart = removeID(u.Cart, courseID)
	u.Wishlist = removeID(u.Wishlist, courseID)
	s.db.users[userID] = u
	return true, nil
}

func (s *UserStore) PullFromAll(_ context.Context, courseID primitive.ObjectID, lists ...models.CourseList) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(OpUserPullFromAll); err != nil {
		return 0, err
	}
	var n int64
	for id, u := range s.db.users {
		changed := false
		u = cloneUser(u)
		for _, l := range lists {
			p := list(&u, l)
			if containsID(*p, courseID) {
				*p = removeID(*p, courseID)
				changed = true
			}
		}
		if changed {
			s.db.users[id] = u
			n++
		}
	}
	return n, nil
}

// FetchUser implements auth.UserFetcher.
func (s *UserStore) FetchUser(_ context.Context, userID primitive.ObjectID) *auth.SessionUser {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[userID]
	if !ok {
		return nil
	}
	return &auth.SessionUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		ActiveToken: u.ActiveSessionToken,
	}
}
