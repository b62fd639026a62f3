// Package txn runs multi-document writes inside a MongoDB transaction when
// the deployment supports one.
//
// Standalone servers reject transactions. In that case the callback runs
// again without a session, so callers must order their steps so that a
// partial run can be completed by a retry.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on db's client. If the server does
// not support transactions, fn runs once more outside a transaction.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions not supported, running steps sequentially", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// Runner binds Run to a database so it can be handed to the engines.
type Runner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewRunner returns a Runner for db.
func NewRunner(db *mongo.Database, log *zap.Logger) *Runner {
	return &Runner{DB: db, Log: log}
}

// Run executes fn through txn.Run.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.DB, r.Log, fn)
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone server, no sessions).
//
// Errors labelled as commit-phase or transient never qualify: the commit
// may have been applied, and replaying fn would apply it twice.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorLabel(labelUnknownCommitResult) || se.HasErrorLabel(labelTransientTransaction) {
			return false
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case codeIllegalOperation, codeNoReplicationEnabled, codeNotSupportedInTransaction:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "commit"):
		return false
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}

const (
	codeIllegalOperation          = 20
	codeNoReplicationEnabled      = 76
	codeNotSupportedInTransaction = 263

	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
	labelTransientTransaction = "TransientTransactionError"
)
