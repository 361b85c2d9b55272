// Package response models the payload returned by the churn analysis service.
//
// The service is loosely typed: every field may be missing or carry the wrong
// shape. Decode keeps whatever it can read and drops the rest, so callers only
// ever see well-formed values.
package response

import "encoding/json"

// Intent is the server-declared label that selects a rendering path. It is an
// open set; Classify maps unknown values to UnknownPayload.
type Intent string

const (
	IntentAnalysis   Intent = "analysis"
	IntentTranscript Intent = "transcript"
)

// QueryResponse is one decoded service reply.
type QueryResponse struct {
	Intent      Intent
	Error       string
	CompanyName string
	Assessment  *Assessment
	// Transcripts is nil when the field was absent and non-nil (possibly
	// empty) when the service sent a list.
	Transcripts []Transcript
	// Answer is the plain-text reply of the planning agent endpoint, which
	// sends {"response": ...} without an intent.
	Answer string
	Plan   []string
	Steps  []string

	// Raw holds the original JSON object, used by the diagnostic fallback.
	Raw json.RawMessage
	// Warnings lists fields that did not match the expected shape.
	Warnings []Warning
}

// Assessment is the churn risk analysis for a single company.
type Assessment struct {
	ChurnScore        int
	RiskLevel         string
	Summary           string
	SentimentAnalysis string
	RedFlags          []string
	Signals           []Signal
	Recommendations   []Recommendation
}

// Signal is one risk indicator found in the call data.
type Signal struct {
	Category    string
	Description string
	Severity    string
}

// Recommendation is a suggested next step for the account team.
type Recommendation struct {
	Action    string
	Urgency   string
	Rationale string
}

// Transcript is one recorded customer call.
type Transcript struct {
	Title          string
	Date           string
	Time           string
	Duration       int
	Company        string
	StampliContact string
	CompanyContact string
	GongURL        string
	Body           string
}

// Warning describes a field that was dropped or coerced during decoding.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}
