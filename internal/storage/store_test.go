package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/circuitbreaker"
)

type flakyRecorder struct {
	calls int
	err   error
}

func (f *flakyRecorder) InsertQueryRecord(context.Context, *models.QueryRecord) error {
	f.calls++
	return f.err
}

func TestGuarded_OpensAfterRepeatedFailures(t *testing.T) {
	down := errors.New("connection refused")
	next := &flakyRecorder{err: down}
	guarded := NewGuarded(next, circuitbreaker.NewCircuitBreaker("storage", circuitbreaker.Config{
		FailureThreshold: 2,
		Timeout:          time.Minute,
	}))

	record := &models.QueryRecord{ID: "q-1"}
	ctx := context.Background()

	assert.ErrorIs(t, guarded.InsertQueryRecord(ctx, record), down)
	assert.ErrorIs(t, guarded.InsertQueryRecord(ctx, record), down)

	err := guarded.InsertQueryRecord(ctx, record)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)
}

func TestGuarded_PassesThrough(t *testing.T) {
	next := &flakyRecorder{}
	guarded := NewGuarded(next, circuitbreaker.NewCircuitBreaker("storage", circuitbreaker.Config{}))

	require.NoError(t, guarded.InsertQueryRecord(context.Background(), &models.QueryRecord{ID: "q-1"}))
	assert.Equal(t, 1, next.calls)
}
