// Package conversation owns the ordered list of turns and the single
// in-flight query that drives it.
package conversation

import (
	"encoding/json"
	"time"

	"github.com/csheth/churnscout/internal/render"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FallbackMessage is the assistant text shown whenever a query could not be
// completed. Failure details go to the log only.
const FallbackMessage = "Failed to connect to the server. Please try again."

// Turn is one entry of the conversation. Assistant turns built from a
// service reply carry the rendered document; Content then holds its summary.
type Turn struct {
	ID           string
	Role         Role
	Content      string
	Document     *render.Document
	Plan         []string
	ExecutionLog []string
	// Failed marks the fallback turn produced by a transport failure.
	Failed bool
	// Raw is the reply body the document was rendered from.
	Raw       json.RawMessage
	CreatedAt time.Time
}

// Structured reports whether the turn has a document to show.
func (t Turn) Structured() bool {
	return t.Document != nil
}

func userTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

func assistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text}
}
