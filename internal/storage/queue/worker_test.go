package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/title-rag/backend/internal/storage/models"
)

type captureRecorder struct {
	records []*models.QueryRecord
	err     error
}

func (c *captureRecorder) InsertQueryRecord(_ context.Context, r *models.QueryRecord) error {
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, r)
	return nil
}

func TestWorker_Process(t *testing.T) {
	rec := &captureRecorder{}
	w := NewWorker(nil, rec, "query_records")

	original := &models.QueryRecord{
		ID:                   "q-1",
		Query:                "pasta",
		Answer:               "Pasta Night",
		Model:                "gpt-4o-mini",
		Relevance:            models.RelevanceNonRelevant,
		RelevanceExplanation: "off",
		EvalPromptTokens:     10,
		EvalCompletionTokens: 2,
		EvalTotalTokens:      12,
		CreatedAt:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	body, err := json.Marshal(original)
	require.NoError(t, err)

	require.NoError(t, w.process(context.Background(), body))
	require.Len(t, rec.records, 1)
	assert.Equal(t, original, rec.records[0])
}

func TestWorker_Process_Malformed(t *testing.T) {
	w := NewWorker(nil, &captureRecorder{}, "query_records")

	assert.ErrorIs(t, w.process(context.Background(), []byte("{")), errMalformed)
	assert.ErrorIs(t, w.process(context.Background(), []byte(`{"query":"no id"}`)), errMalformed)
	assert.ErrorIs(t, w.process(context.Background(), []byte(`{"id":"q","relevance":"MAYBE"}`)), errMalformed)
}

func TestWorker_Process_StoreFailure(t *testing.T) {
	down := errors.New("database is locked")
	w := NewWorker(nil, &captureRecorder{err: down}, "query_records")

	err := w.process(context.Background(), []byte(`{"id":"q-1","relevance":"RELEVANT"}`))
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, errMalformed)
}
