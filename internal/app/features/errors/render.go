// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"go.uber.org/zap"
)

// body is the JSON shape of every error response.
type body struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status. Conflicts are reported
// as 400 like validation failures.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict, apperr.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError writes a JSON error body with the given status.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body{Success: false, Code: code, Message: msg})
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderBadRequest writes a 400 validation error.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	WriteError(w, http.StatusBadRequest, apperr.CodeValidation, msg)
}

// RenderUnauthorized writes a 401 "sign in required" error.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
}

// RenderNotFound writes a 404 with msg.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	WriteError(w, http.StatusNotFound, apperr.CodeNotFound, msg)
}

// ErrorLogger renders engine errors and logs the ones that are the
// server's fault.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

// Render writes err as a JSON error response. Domain errors keep their
// code and message. Anything else is logged with the request context and
// reported as a generic 500.
func (l *ErrorLogger) Render(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := StatusFor(e.Kind)
	if status == http.StatusInternalServerError {
		l.LogServerError(r, e.Message, err)
	}
	WriteError(w, status, e.Code, e.Message)
}

// LogServerError logs err with the method, path and signed-in user.
func (l *ErrorLogger) LogServerError(r *http.Request, msg string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID.Hex()))
	}
	l.log.Error(msg, fields...)
}
