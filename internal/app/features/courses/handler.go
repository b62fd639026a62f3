// internal/app/features/courses/handler.go
package courses

import (
	"github.com/dalemusser/coursehub/internal/app/catalog"
	"github.com/dalemusser/coursehub/internal/app/enrollment"
	uierrors "github.com/dalemusser/coursehub/internal/app/features/errors"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the catalog and course authoring endpoints.
type Handler struct {
	Catalog  *catalog.Engine
	Enroll   *enrollment.Engine
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(cat *catalog.Engine, enroll *enrollment.Engine, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	return &Handler{
		Catalog:  cat,
		Enroll:   enroll,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}

const msgNoCourses = "no courses found"
