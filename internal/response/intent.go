package response

import "encoding/json"

// Payload is the tagged union of rendering paths. The concrete types are
// ErrorPayload, AnalysisPayload, TranscriptPayload, AnswerPayload and
// UnknownPayload.
type Payload interface {
	isPayload()
}

// ErrorPayload is a reply the service understood but could not answer.
type ErrorPayload struct {
	Message string
}

// AnalysisPayload carries a churn risk assessment.
type AnalysisPayload struct {
	CompanyName string
	Assessment  Assessment
}

// TranscriptPayload carries the call transcripts for a company.
type TranscriptPayload struct {
	CompanyName string
	Transcripts []Transcript
}

// AnswerPayload is a free-text answer with no declared intent.
type AnswerPayload struct {
	Text string
}

// UnknownPayload is any reply that matches none of the known intents.
type UnknownPayload struct {
	Intent Intent
	Raw    json.RawMessage
}

func (ErrorPayload) isPayload()      {}
func (AnalysisPayload) isPayload()   {}
func (TranscriptPayload) isPayload() {}
func (AnswerPayload) isPayload()     {}
func (UnknownPayload) isPayload()    {}

// Classify picks the rendering path for a response. The first match wins:
// error, analysis with an assessment, transcript with a transcript list, a
// plain answer when no intent was declared, then the unknown fallback.
func Classify(resp QueryResponse) Payload {
	switch {
	case resp.Error != "":
		return ErrorPayload{Message: resp.Error}
	case resp.Intent == IntentAnalysis && resp.Assessment != nil:
		return AnalysisPayload{CompanyName: resp.CompanyName, Assessment: *resp.Assessment}
	case resp.Intent == IntentTranscript && resp.Transcripts != nil:
		return TranscriptPayload{CompanyName: resp.CompanyName, Transcripts: resp.Transcripts}
	case resp.Intent == "" && resp.Answer != "":
		return AnswerPayload{Text: resp.Answer}
	default:
		return UnknownPayload{Intent: resp.Intent, Raw: resp.Raw}
	}
}
