// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

var (
	stopMu    sync.Mutex
	stopFuncs []func()
)

// onShutdown registers fn to run when the app shuts down. BuildHandler uses
// it for goroutines owned by the handlers it constructs.
func onShutdown(fn func()) {
	stopMu.Lock()
	defer stopMu.Unlock()
	stopFuncs = append(stopFuncs, fn)
}

// stopBackground runs the registered stop functions in reverse order and
// clears the list.
func stopBackground() {
	stopMu.Lock()
	fns := stopFuncs
	stopFuncs = nil
	stopMu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Shutdown stops background workers and disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	stopBackground()

	if deps.MongoClient != nil {
		logger.Info("disconnecting CourseHub MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
