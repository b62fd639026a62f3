// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/coursehub/internal/app/store/audit"
	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by each Config field.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login, logout and registration events.
	Auth string
	// Catalog controls logging for course, purchase and review events.
	Catalog string
}

// ValidDest reports whether s is an accepted destination.
func ValidDest(s string) bool {
	switch s {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// EventStore persists audit events. *audit.Store satisfies it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via the EventStore) and structured logs (via zap).
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.CourseID != nil {
		fields = append(fields, zap.String("course_id", event.CourseID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers can run without auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryCatalog:
		setting = l.config.Catalog
	}
	if setting == "" {
		setting = DestAll
	}

	if setting == DestOff {
		return
	}
	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if (setting == DestAll || setting == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string, success bool) audit.Event {
	ev := audit.Event{Category: category, EventType: eventType, Success: success}
	if r != nil {
		ev.IP = ratelimit.ClientIP(r)
		ev.UserAgent = r.UserAgent()
	}
	return ev
}

// --- Authentication Events ---

// LoginSuccess logs a successful login. method is "password" or an
// OAuth provider name.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, method, email string) {
	ev := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	ev.UserID = &userID
	ev.Details = map[string]string{"auth_method": method, "email": email}
	l.Log(ctx, ev)
}

// LoginFailedUserNotFound logs a login for an email with no account.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	ev := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	ev.FailureReason = "user not found"
	ev.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, ev)
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	ev := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	ev.UserID = &userID
	ev.FailureReason = "wrong password"
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// LoginFailedRateLimit logs a login rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request) {
	ev := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	ev.FailureReason = "rate limited"
	l.Log(ctx, ev)
}

// UserRegistered logs a new account.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, method, role string) {
	ev := requestEvent(r, audit.CategoryAuth, audit.EventUserRegistered, true)
	ev.UserID = &userID
	ev.Details = map[string]string{"auth_method": method, "role": role}
	l.Log(ctx, ev)
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	ev := requestEvent(r, audit.CategoryAuth, audit.EventLogout, true)
	ev.UserID = &userID
	l.Log(ctx, ev)
}

// --- Catalog Events ---

func (l *Logger) courseEvent(ctx context.Context, r *http.Request, eventType string, actorID, courseID primitive.ObjectID, details map[string]string) {
	ev := requestEvent(r, audit.CategoryCatalog, eventType, true)
	ev.UserID = &actorID
	ev.CourseID = &courseID
	ev.Details = details
	l.Log(ctx, ev)
}

// CourseCreated logs a new course.
func (l *Logger) CourseCreated(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID, title, status string) {
	l.courseEvent(ctx, r, audit.EventCourseCreated, actorID, courseID, map[string]string{
		"title":  title,
		"status": status,
	})
}

// CourseUpdated logs an edit. fields lists the changed field names.
func (l *Logger) CourseUpdated(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID, fields []string) {
	l.courseEvent(ctx, r, audit.EventCourseUpdated, actorID, courseID, map[string]string{
		"fields": strings.Join(fields, ","),
	})
}

// CoursePublished logs a draft becoming published.
func (l *Logger) CoursePublished(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID) {
	l.courseEvent(ctx, r, audit.EventCoursePublished, actorID, courseID, nil)
}

// CourseDeleted logs a deleted course.
func (l *Logger) CourseDeleted(ctx context.Context, r *http.Request, actorID, courseID primitive.ObjectID) {
	l.courseEvent(ctx, r, audit.EventCourseDeleted, actorID, courseID, nil)
}

// CoursePurchased logs a purchase.
func (l *Logger) CoursePurchased(ctx context.Context, r *http.Request, userID, courseID primitive.ObjectID) {
	l.courseEvent(ctx, r, audit.EventCoursePurchased, userID, courseID, nil)
}

// ReviewAdded logs a review.
func (l *Logger) ReviewAdded(ctx context.Context, r *http.Request, userID, courseID primitive.ObjectID, rating int) {
	l.courseEvent(ctx, r, audit.EventReviewAdded, userID, courseID, map[string]string{
		"rating": strconv.Itoa(rating),
	})
}
