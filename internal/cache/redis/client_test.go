package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStats(t *testing.T) {
	stats := parseStats(map[string]string{
		"queries":                   "12",
		"relevance:RELEVANT":        "7",
		"relevance:PARTLY_RELEVANT": "3",
		"relevance:UNKNOWN":         "2",
		"feedback:up":               "4",
		"feedback:down":             "1",
		"openai_cost":               "0.0042",
		"unrelated":                 "9",
	})

	assert.Equal(t, int64(12), stats.Queries)
	assert.Equal(t, map[string]int64{
		"RELEVANT":        7,
		"PARTLY_RELEVANT": 3,
		"NON_RELEVANT":    0,
		"UNKNOWN":         2,
	}, stats.Relevance)
	assert.Equal(t, int64(4), stats.ThumbsUp)
	assert.Equal(t, int64(1), stats.ThumbsDown)
	assert.InDelta(t, 0.0042, stats.CostUSD, 1e-12)
}

func TestParseStats_Empty(t *testing.T) {
	stats := parseStats(nil)
	assert.Zero(t, stats.Queries)
	assert.Len(t, stats.Relevance, 4)
}
