// internal/app/features/profile/handler.go
package profile

import (
	"github.com/dalemusser/coursehub/internal/app/enrollment"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's account endpoints.
type Handler struct {
	Enroll *enrollment.Engine
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the enrollment engine and logger.
func NewHandler(enroll *enrollment.Engine, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	return &Handler{
		Enroll: enroll,
		Log:    logger,
		ErrLog: errLog,
	}
}
