// Package mongo provides MongoDB implementations of the wallet and funding
// domain stores. Every method accepts a context that may carry a session, so
// multi-document transactions span all collections through one runner.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
)

// SessionRunner executes a function inside one MongoDB multi-document
// transaction. Store calls made with the context passed to fn join the
// session, so the whole body commits or aborts as a unit.
type SessionRunner struct {
	client *mongo.Client
	logger *slog.Logger
}

// NewSessionRunner creates a transaction runner bound to the given client.
func NewSessionRunner(logger *slog.Logger, client *mongo.Client) *SessionRunner {
	return &SessionRunner{
		client: client,
		logger: logger,
	}
}

// WithinTransaction starts a session, runs fn inside a transaction, and
// commits on success. Any error from fn aborts the transaction and is
// returned unchanged so callers can match on domain error kinds.
func (r *SessionRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start MongoDB session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
