package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/title-rag/backend/internal/llm"
	llmmocks "github.com/title-rag/backend/internal/llm/mocks"
	"github.com/title-rag/backend/internal/storage/models"
)

func TestGenerator_UsesDefaultModel(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := llmmocks.NewMockCompleter(ctrl)

	completer.EXPECT().
		Complete(gomock.Any(), llm.CompletionRequest{Model: "gpt-4o-mini", Prompt: "P"}).
		Return(&llm.CompletionResponse{Content: "Quick Pasta", Usage: models.NewTokenUsage(10, 3)}, nil)

	gen := NewGenerator(completer, "gpt-4o-mini")
	answer, usage, err := gen.Generate(context.Background(), "P", "")
	require.NoError(t, err)
	assert.Equal(t, "Quick Pasta", answer)
	assert.Equal(t, 13, usage.TotalTokens)
}

func TestGenerator_ModelOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := llmmocks.NewMockCompleter(ctrl)

	completer.EXPECT().
		Complete(gomock.Any(), llm.CompletionRequest{Model: "gpt-4o", Prompt: "P"}).
		Return(&llm.CompletionResponse{Content: "", Usage: models.NewTokenUsage(10, 0)}, nil)

	gen := NewGenerator(completer, "gpt-4o-mini")
	answer, usage, err := gen.Generate(context.Background(), "P", "gpt-4o")
	require.NoError(t, err)
	assert.Empty(t, answer)
	assert.Equal(t, 10, usage.TotalTokens)
}

func TestGenerator_CallFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := llmmocks.NewMockCompleter(ctrl)

	boom := errors.New("401 invalid api key")
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(nil, boom).Times(1)

	gen := NewGenerator(completer, "gpt-4o-mini")
	_, _, err := gen.Generate(context.Background(), "P", "")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "answer", genErr.Stage)
	assert.ErrorIs(t, err, boom)
}
