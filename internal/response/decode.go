package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed reports a body that is not a JSON object at all. Everything
// below the top level degrades instead of failing.
var ErrMalformed = errors.New("response: body is not a JSON object")

const (
	minChurnScore = 0
	maxChurnScore = 100
	// maxReadInt bounds the magnitude of every integer field.
	maxReadInt = math.MaxInt32
)

type object map[string]json.RawMessage

// Decode parses a service reply. Unknown fields are ignored and fields with
// the wrong shape are dropped; both cases are listed in Warnings when the
// shape check catches them.
func Decode(data []byte) (QueryResponse, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return QueryResponse{}, ErrMalformed
	}
	var fields object
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return QueryResponse{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	resp := QueryResponse{
		Raw:         append(json.RawMessage(nil), trimmed...),
		Warnings:    validateShape(trimmed),
		Intent:      Intent(readString(fields["intent"])),
		Error:       readError(fields["error"]),
		CompanyName: readString(fields["company_name"]),
		Answer:      readString(fields["response"]),
		Plan:        readStrings(fields["plan"]),
		Steps:       readStrings(fields["steps"]),
	}
	if obj, ok := readObject(fields["assessment"]); ok {
		assessment, warnings := decodeAssessment(obj)
		resp.Assessment = &assessment
		resp.Warnings = append(resp.Warnings, warnings...)
	}
	transcripts, warnings := decodeTranscripts(fields["transcripts"])
	resp.Transcripts = transcripts
	resp.Warnings = append(resp.Warnings, warnings...)
	return resp, nil
}

func decodeAssessment(obj object) (Assessment, []Warning) {
	var warnings []Warning
	score, ok := readInt(obj["churn_score"])
	switch {
	case !ok && !isNull(obj["churn_score"]):
		warnings = append(warnings, Warning{Field: "assessment.churn_score", Message: "not a usable number, using 0"})
	case score < minChurnScore || score > maxChurnScore:
		warnings = append(warnings, Warning{
			Field:   "assessment.churn_score",
			Message: fmt.Sprintf("%d outside %d-%d, clamped", score, minChurnScore, maxChurnScore),
		})
		score = min(max(score, minChurnScore), maxChurnScore)
	}
	assessment := Assessment{
		ChurnScore:        score,
		RiskLevel:         readString(obj["risk_level"]),
		Summary:           readString(obj["summary"]),
		SentimentAnalysis: readString(obj["sentiment_analysis"]),
		RedFlags:          readStrings(obj["red_flags"]),
	}
	for _, item := range readObjects(obj["signals"]) {
		assessment.Signals = append(assessment.Signals, Signal{
			Category:    readString(item["category"]),
			Description: readString(item["description"]),
			Severity:    readString(item["severity"]),
		})
	}
	for _, item := range readObjects(obj["recommendations"]) {
		assessment.Recommendations = append(assessment.Recommendations, Recommendation{
			Action:    readString(item["action"]),
			Urgency:   readString(item["urgency"]),
			Rationale: readString(item["rationale"]),
		})
	}
	return assessment, warnings
}

// decodeTranscripts accepts a bare list or the nested {"transcripts": [...]}
// form some agents emit. An absent field stays nil; null, an empty object or
// an object without a list decode to an empty list.
func decodeTranscripts(raw json.RawMessage) ([]Transcript, []Warning) {
	if len(raw) == 0 {
		return nil, nil
	}
	if isNull(raw) {
		return []Transcript{}, nil
	}
	nested, isObject := readObject(raw)
	if isObject {
		raw = nested["transcripts"]
	}
	items, ok := readArray(raw)
	if !ok {
		if isObject {
			return []Transcript{}, nil
		}
		return nil, nil
	}
	var warnings []Warning
	result := make([]Transcript, 0, len(items))
	for i, item := range items {
		obj, ok := readObject(item)
		if !ok {
			continue
		}
		duration, ok := readInt(obj["duration"])
		if !ok && !isNull(obj["duration"]) {
			warnings = append(warnings, Warning{
				Field:   fmt.Sprintf("transcripts.%d.duration", i),
				Message: "not a usable number, using 0",
			})
		}
		if duration < 0 {
			duration = 0
		}
		result = append(result, Transcript{
			Title:          readString(obj["title"]),
			Date:           readString(obj["date"]),
			Time:           readString(obj["time"]),
			Duration:       duration,
			Company:        readString(obj["company"]),
			StampliContact: readString(obj["stampli_contact"]),
			CompanyContact: readString(obj["company_contact"]),
			GongURL:        readString(obj["gong_url"]),
			Body:           readString(obj["transcript"]),
		})
	}
	return result, warnings
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// readString returns JSON strings as-is and numbers by their literal text.
func readString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// readError accepts a plain string or a JSON-RPC style {"message": ...} object.
func readError(raw json.RawMessage) string {
	if obj, ok := readObject(raw); ok {
		return readString(obj["message"])
	}
	return readString(raw)
}

// readInt rounds a JSON number or numeric string. NaN, infinities and values
// beyond maxReadInt in magnitude are rejected rather than wrapped.
func readInt(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f)
	if f > maxReadInt || f < -maxReadInt {
		return 0, false
	}
	return int(f), true
}

func readObject(raw json.RawMessage) (object, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func readArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

func readStrings(raw json.RawMessage) []string {
	items, ok := readArray(raw)
	if !ok {
		return nil
	}
	var result []string
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '"' {
			continue
		}
		result = append(result, readString(item))
	}
	return result
}

func readObjects(raw json.RawMessage) []object {
	items, ok := readArray(raw)
	if !ok {
		return nil
	}
	var result []object
	for _, item := range items {
		if obj, ok := readObject(item); ok {
			result = append(result, obj)
		}
	}
	return result
}
