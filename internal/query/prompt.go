package query

import (
	"fmt"
	"strings"

	"github.com/title-rag/backend/internal/storage/models"
)

const entryTemplate = `video_title: %s,
video_description: %s,
video_tags: %s`

const promptTemplate = `You're a professional youtuber. Answer with a youtube video title to the QUERY which is based on the CONTEXT from the video database.
Use only the facts from the CONTEXT when answering the QUERY.

QUERY:
%s

CONTEXT:
%s`

// BuildPrompt renders the generation prompt. Records keep retrieval order
// and an empty slice yields an empty CONTEXT section.
func BuildPrompt(query string, records []models.Record) string {
	var entries strings.Builder
	for _, r := range records {
		fmt.Fprintf(&entries, entryTemplate, r.Title, r.Description, r.Tags)
		entries.WriteString("\n\n")
	}

	return strings.TrimSpace(fmt.Sprintf(promptTemplate, query, entries.String()))
}
