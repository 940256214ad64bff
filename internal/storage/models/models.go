package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RecordID is the identifier of an indexed record. Source data uses integer
// ids, so both JSON numbers and strings are accepted.
type RecordID string

func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// Record is one video in the search index.
type Record struct {
	ID          RecordID `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        string   `json:"tags"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewTokenUsage derives the total from its parts so the usage always adds up.
func NewTokenUsage(promptTokens, completionTokens int) TokenUsage {
	promptTokens = max(promptTokens, 0)
	completionTokens = max(completionTokens, 0)
	return TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

type QueryRecord struct {
	ID                   string    `json:"id"`
	Query                string    `json:"query"`
	Answer               string    `json:"answer"`
	Model                string    `json:"model_used"`
	ResponseTime         float64   `json:"response_time"`
	Relevance            Relevance `json:"relevance"`
	RelevanceExplanation string    `json:"relevance_explanation"`
	PromptTokens         int       `json:"prompt_tokens"`
	CompletionTokens     int       `json:"completion_tokens"`
	TotalTokens          int       `json:"total_tokens"`
	EvalPromptTokens     int       `json:"eval_prompt_tokens"`
	EvalCompletionTokens int       `json:"eval_completion_tokens"`
	EvalTotalTokens      int       `json:"eval_total_tokens"`
	Cost                 float64   `json:"openai_cost"`
	CreatedAt            time.Time `json:"timestamp"`
}

func (r *QueryRecord) GenerationUsage() TokenUsage {
	return TokenUsage{
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}
}

func (r *QueryRecord) EvaluationUsage() TokenUsage {
	return TokenUsage{
		PromptTokens:     r.EvalPromptTokens,
		CompletionTokens: r.EvalCompletionTokens,
		TotalTokens:      r.EvalTotalTokens,
	}
}

type Feedback struct {
	ID        int64     `json:"id"`
	QueryID   string    `json:"conversation_id"`
	Value     int       `json:"feedback"`
	CreatedAt time.Time `json:"timestamp"`
}

// ValidFeedback reports whether v is a thumbs up (1) or thumbs down (-1).
func ValidFeedback(v int) bool {
	return v == 1 || v == -1
}
