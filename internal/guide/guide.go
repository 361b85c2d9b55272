// Package guide holds the onboarding text shown before the first query.
package guide

import (
	"fmt"
	"strings"
)

// Hint is one example query with a note on what it returns.
type Hint struct {
	Query       string
	Description string
}

// Hints returns example queries, personalised with a company name when one
// is known from the conversation.
func Hints(company string) []Hint {
	name := strings.TrimSpace(company)
	if name == "" {
		name = "Acme Co"
	}
	return []Hint{
		{
			Query:       fmt.Sprintf("Analyze churn risk for %s", name),
			Description: "Churn score, risk level, signals and recommended actions.",
		},
		{
			Query:       fmt.Sprintf("Show call transcripts for %s", name),
			Description: "Recent Gong calls with metadata; long transcripts can be expanded.",
		},
		{
			Query:       "Who are the top 3 customers by revenue?",
			Description: "Free-form questions are answered by the planning agent.",
		},
	}
}

// Keys lists the key bindings shown in the help panel.
var Keys = [][2]string{
	{"enter", "send the query"},
	{"tab / shift+tab", "move between expandable sections"},
	{"space", "open or close the focused section"},
	{"pgup / pgdown", "scroll the conversation"},
	{"ctrl+s", "save the conversation to history"},
	{"ctrl+e", "export the conversation as HTML"},
	{"ctrl+l", "clear the conversation"},
	{"?", "toggle this help while the composer is empty"},
	{"ctrl+c / esc", "quit"},
}

// Markdown renders the welcome panel as Markdown for glamour.
func Markdown(company string) string {
	var b strings.Builder
	b.WriteString("# ChurnScout\n\n")
	b.WriteString("Ask about a customer and the analysis service answers with a risk card, call transcripts, or a plain answer.\n\n")
	b.WriteString("## Try\n\n")
	for _, hint := range Hints(company) {
		fmt.Fprintf(&b, "- `%s`  \n  %s\n", hint.Query, hint.Description)
	}
	b.WriteString("\n## Keys\n\n| Key | Action |\n| --- | --- |\n")
	for _, key := range Keys {
		fmt.Fprintf(&b, "| `%s` | %s |\n", key[0], key[1])
	}
	return b.String()
}
