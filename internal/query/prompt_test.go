package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/title-rag/backend/internal/storage/models"
)

func TestBuildPrompt_NoRecords(t *testing.T) {
	prompt := BuildPrompt("best pasta recipes", nil)

	assert.NotEmpty(t, prompt)
	assert.True(t, strings.HasPrefix(prompt, "You're a professional youtuber."))
	assert.Contains(t, prompt, "QUERY:\nbest pasta recipes\n\nCONTEXT:")
	assert.True(t, strings.HasSuffix(prompt, "CONTEXT:"))
}

func TestBuildPrompt_OnlyContextDiffers(t *testing.T) {
	without := BuildPrompt("X", []models.Record{})
	with := BuildPrompt("X", []models.Record{
		{ID: "1", Title: "T", Description: "D", Tags: "tag"},
	})

	idx := strings.Index(with, "CONTEXT:")
	require.Positive(t, idx)
	assert.Equal(t, with[:idx], without[:idx])
	assert.Equal(t, "CONTEXT:", without[idx:])
	assert.Equal(t, "CONTEXT:\nvideo_title: T,\nvideo_description: D,\nvideo_tags: tag", with[idx:])
}

func TestBuildPrompt_KeepsRetrievalOrder(t *testing.T) {
	prompt := BuildPrompt("cooking", []models.Record{
		{Title: "First", Description: "a", Tags: "x"},
		{Title: "Second", Description: "b", Tags: "y"},
	})

	first := strings.Index(prompt, "video_title: First")
	second := strings.Index(prompt, "video_title: Second")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Contains(t, prompt, "video_tags: x\n\nvideo_title: Second")
}

func TestBuildPrompt_PercentSignsAreLiteral(t *testing.T) {
	prompt := BuildPrompt("100% beef", []models.Record{{Title: "50% off %s", Description: "d", Tags: "t"}})
	assert.Contains(t, prompt, "QUERY:\n100% beef\n")
	assert.Contains(t, prompt, "video_title: 50% off %s,")
}
