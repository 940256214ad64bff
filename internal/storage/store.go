package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/circuitbreaker"
)

var ErrNotFound = errors.New("not found")

// Store persists query records and the feedback left on them.
type Store interface {
	InitSchema(ctx context.Context) error
	InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error
	GetQueryRecord(ctx context.Context, id string) (*models.QueryRecord, error)
	InsertFeedback(ctx context.Context, feedback *models.Feedback) error
	Close() error
}

type QueryRecorder interface {
	InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error
}

// Guarded fails fast once the wrapped recorder keeps failing, so a dead
// backend does not add its connect timeout to every answered query.
type Guarded struct {
	next    QueryRecorder
	breaker *circuitbreaker.CircuitBreaker
}

func NewGuarded(next QueryRecorder, breaker *circuitbreaker.CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error {
	err := g.breaker.Execute(func() error {
		return g.next.InsertQueryRecord(ctx, record)
	})
	if err != nil {
		return fmt.Errorf("failed to record query %s: %w", record.ID, err)
	}
	return nil
}
