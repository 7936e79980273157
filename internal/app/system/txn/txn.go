// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports it, and sequentially otherwise.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on db's client. When the server does
// not support transactions (standalone mongod, some DocumentDB setups) fn is
// run again without a session so single-node dev setups keep working.
//
// fn must be safe to re-run from scratch: on a transient transaction error
// the driver retries it, and on the fallback path it runs once more outside
// any transaction.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fallback(ctx, log, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fallback(ctx, log, err, fn)
	}
	return err
}

func fallback(ctx context.Context, log *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	if log != nil {
		log.Debug("transactions unsupported, running without", zap.Error(cause))
	}
	return fn(ctx)
}

// InTransaction reports whether ctx is the one Run hands to fn inside a
// transaction. On the fallback path it is false and a failed write leaves
// earlier writes committed, so callers undo them themselves.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// IsNotSupported reports whether err means the server cannot run
// transactions or sessions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, (legacy) IllegalOperation, OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(s, kw) {
			hits++
		}
	}
	return hits >= 2
}
