// Package history keeps saved conversations in a single JSON file. Each
// save replaces the snapshot with the same session ID or appends a new one.
package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/render"
	"github.com/csheth/churnscout/internal/response"
)

const titleLimit = 80

// Snapshot is one saved conversation.
type Snapshot struct {
	EntryType  string       `json:"entryType"`
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Endpoint   string       `json:"endpoint,omitempty"`
	CapturedAt time.Time    `json:"capturedAt"`
	Turns      []TurnRecord `json:"turns"`
}

// TurnRecord is the stored form of a conversation turn. Assistant turns keep
// the raw reply so the document can be rebuilt on load.
type TurnRecord struct {
	ID           string          `json:"id"`
	Role         string          `json:"role"`
	Content      string          `json:"content"`
	Plan         []string        `json:"plan,omitempty"`
	ExecutionLog []string        `json:"executionLog,omitempty"`
	Failed       bool            `json:"failed,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewSessionID returns a fresh snapshot ID.
func NewSessionID() string {
	return uuid.NewString()
}

// FromTurns captures turns under sessionID. An empty sessionID gets a new one.
func FromTurns(sessionID, endpoint string, turns []conversation.Turn) Snapshot {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	snapshot := Snapshot{
		EntryType:  entryTypeConversation,
		ID:         sessionID,
		Endpoint:   endpoint,
		CapturedAt: time.Now(),
		Turns:      make([]TurnRecord, 0, len(turns)),
	}
	for _, turn := range turns {
		if snapshot.Title == "" && turn.Role == conversation.RoleUser {
			snapshot.Title = clipTitle(turn.Content)
		}
		snapshot.Turns = append(snapshot.Turns, TurnRecord{
			ID:           turn.ID,
			Role:         string(turn.Role),
			Content:      turn.Content,
			Plan:         turn.Plan,
			ExecutionLog: turn.ExecutionLog,
			Failed:       turn.Failed,
			Response:     turn.Raw,
			CreatedAt:    turn.CreatedAt,
		})
	}
	if snapshot.Title == "" {
		snapshot.Title = "Empty conversation"
	}
	return snapshot
}

// Conversation rebuilds the turns of s, re-rendering stored replies.
func (s Snapshot) Conversation() []conversation.Turn {
	turns := make([]conversation.Turn, 0, len(s.Turns))
	for _, record := range s.Turns {
		turn := conversation.Turn{
			ID:           record.ID,
			Role:         conversation.Role(record.Role),
			Content:      record.Content,
			Plan:         record.Plan,
			ExecutionLog: record.ExecutionLog,
			Failed:       record.Failed,
			CreatedAt:    record.CreatedAt,
		}
		if len(record.Response) > 0 {
			if resp, err := response.Decode(record.Response); err == nil {
				turn.Document = render.Render(resp)
				turn.Raw = resp.Raw
			}
		}
		turns = append(turns, turn)
	}
	return turns
}

func clipTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= titleLimit {
		return s
	}
	return string([]rune(s)[:titleLimit]) + "…"
}
