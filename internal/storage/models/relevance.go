package models

import "fmt"

// Relevance is the model's own judgement of how well an answer fits a query.
type Relevance int

const (
	// RelevanceUnknown is only produced when an evaluation cannot be parsed.
	RelevanceUnknown Relevance = iota
	RelevanceRelevant
	RelevancePartlyRelevant
	RelevanceNonRelevant
)

// UnparsedExplanation accompanies every RelevanceUnknown verdict.
const UnparsedExplanation = "Failed to parse evaluation"

var relevanceNames = map[Relevance]string{
	RelevanceUnknown:        "UNKNOWN",
	RelevanceRelevant:       "RELEVANT",
	RelevancePartlyRelevant: "PARTLY_RELEVANT",
	RelevanceNonRelevant:    "NON_RELEVANT",
}

func (r Relevance) String() string {
	if name, ok := relevanceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Relevance(%d)", int(r))
}

// ParseRelevance maps the model's label onto a Relevance. Only the three
// substantive labels are accepted; "UNKNOWN" is not a label a model may return.
func ParseRelevance(label string) (Relevance, bool) {
	switch label {
	case "RELEVANT":
		return RelevanceRelevant, true
	case "PARTLY_RELEVANT":
		return RelevancePartlyRelevant, true
	case "NON_RELEVANT":
		return RelevanceNonRelevant, true
	default:
		return RelevanceUnknown, false
	}
}

func (r Relevance) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Relevance) UnmarshalText(text []byte) error {
	if string(text) == "UNKNOWN" {
		*r = RelevanceUnknown
		return nil
	}
	parsed, ok := ParseRelevance(string(text))
	if !ok {
		return fmt.Errorf("unknown relevance %q", text)
	}
	*r = parsed
	return nil
}

type Verdict struct {
	Relevance   Relevance `json:"Relevance"`
	Explanation string    `json:"Explanation"`
}
