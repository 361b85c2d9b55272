package response

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnalysis(t *testing.T) {
	body := `{
		"intent": "analysis",
		"company_name": "Acme Co",
		"assessment": {
			"churn_score": 85,
			"risk_level": "Critical",
			"summary": "Renewal at risk.",
			"red_flags": ["Competitor trial", 7, "Budget freeze"],
			"signals": [{"category": "Pricing", "description": "Asked for discount", "severity": "High"}, "bogus"],
			"recommendations": [{"action": "Schedule exec call", "urgency": "High", "rationale": "Champion left"}]
		},
		"extra_field": {"ignored": true}
	}`
	resp, err := Decode([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, IntentAnalysis, resp.Intent)
	assert.Equal(t, "Acme Co", resp.CompanyName)
	require.NotNil(t, resp.Assessment)
	assert.Equal(t, 85, resp.Assessment.ChurnScore)
	assert.Equal(t, "Critical", resp.Assessment.RiskLevel)
	assert.Equal(t, []string{"Competitor trial", "Budget freeze"}, resp.Assessment.RedFlags)
	require.Len(t, resp.Assessment.Signals, 1)
	assert.Equal(t, "Pricing", resp.Assessment.Signals[0].Category)
	require.Len(t, resp.Assessment.Recommendations, 1)
	assert.Equal(t, "Champion left", resp.Assessment.Recommendations[0].Rationale)
	assert.Nil(t, resp.Transcripts)
	assert.NotEmpty(t, resp.Warnings, "non-string red flag and non-object signal should be reported")
}

func TestDecodeWrongShapedFieldsDegrade(t *testing.T) {
	body := `{"intent": "analysis", "assessment": {"churn_score": "72.6", "red_flags": "not a list", "signals": {"a": 1}}}`
	resp, err := Decode([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, resp.Assessment)
	assert.Equal(t, 73, resp.Assessment.ChurnScore)
	assert.Nil(t, resp.Assessment.RedFlags)
	assert.Nil(t, resp.Assessment.Signals)

	fields := map[string]bool{}
	for _, w := range resp.Warnings {
		fields[w.Field] = true
	}
	assert.True(t, fields["assessment.red_flags"], "warnings: %v", resp.Warnings)
	assert.True(t, fields["assessment.signals"], "warnings: %v", resp.Warnings)
}

func TestDecodeTranscriptForms(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "bare list", body: `{"intent":"transcript","transcripts":[{"title":"Kickoff","duration":125}]}`, want: 1},
		{name: "nested list", body: `{"intent":"transcript","transcripts":{"transcripts":[{"title":"A"},{"title":"B"}]}}`, want: 2},
		{name: "empty list", body: `{"intent":"transcript","transcripts":[]}`, want: 0},
		{name: "null", body: `{"intent":"transcript","transcripts":null}`, want: 0},
		{name: "empty object", body: `{"intent":"transcript","transcripts":{}}`, want: 0},
		{name: "nested null", body: `{"intent":"transcript","transcripts":{"transcripts":null}}`, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := Decode([]byte(tc.body))
			require.NoError(t, err)
			require.NotNil(t, resp.Transcripts, "present list must decode to a non-nil slice")
			assert.Len(t, resp.Transcripts, tc.want)
			assert.Empty(t, resp.Warnings)
		})
	}
}

func TestDecodeAbsentTranscriptsStayNil(t *testing.T) {
	resp, err := Decode([]byte(`{"intent":"transcript"}`))
	require.NoError(t, err)
	assert.Nil(t, resp.Transcripts)
}

func TestDecodeChurnScoreOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		score string
		want  int
	}{
		{name: "overflow", score: "1e30", want: 0},
		{name: "negative", score: "-5", want: 0},
		{name: "above max", score: "250", want: 100},
		{name: "numeric string above max", score: `"180"`, want: 100},
		{name: "boundary", score: "100", want: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := Decode([]byte(`{"intent":"analysis","assessment":{"churn_score":` + tc.score + `}}`))
			require.NoError(t, err)
			require.NotNil(t, resp.Assessment)
			assert.Equal(t, tc.want, resp.Assessment.ChurnScore)

			warned := false
			for _, w := range resp.Warnings {
				if w.Field == "assessment.churn_score" {
					warned = true
				}
			}
			assert.Equal(t, tc.name != "boundary", warned, "warnings: %v", resp.Warnings)
		})
	}
}

func TestDecodeRejectsHugeDuration(t *testing.T) {
	resp, err := Decode([]byte(`{"intent":"transcript","transcripts":[{"duration":1e30}]}`))
	require.NoError(t, err)
	require.Len(t, resp.Transcripts, 1)
	assert.Equal(t, 0, resp.Transcripts[0].Duration)
	assert.NotEmpty(t, resp.Warnings)
}

func TestDecodeClampsNegativeDuration(t *testing.T) {
	resp, err := Decode([]byte(`{"intent":"transcript","transcripts":[{"duration":-5,"transcript":"hi"}]}`))
	require.NoError(t, err)
	require.Len(t, resp.Transcripts, 1)
	assert.Equal(t, 0, resp.Transcripts[0].Duration)
	assert.Equal(t, "hi", resp.Transcripts[0].Body)
}

func TestDecodeErrorForms(t *testing.T) {
	resp, err := Decode([]byte(`{"error": "No company found"}`))
	require.NoError(t, err)
	assert.Equal(t, "No company found", resp.Error)

	resp, err = Decode([]byte(`{"error": {"code": -32601, "message": "Method not found"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Method not found", resp.Error)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, body := range []string{"", "[]", `"text"`, "<html>502</html>", "{broken"} {
		_, err := Decode([]byte(body))
		assert.True(t, errors.Is(err, ErrMalformed), "body %q: %v", body, err)
	}
}

func TestDecodeKeepsRawAndPlan(t *testing.T) {
	body := `{"response": "Top customers listed", "plan": ["query revenue", "rank"], "steps": ["ran SQL"]}`
	resp, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.JSONEq(t, body, string(resp.Raw))
	assert.Equal(t, []string{"query revenue", "rank"}, resp.Plan)
	assert.Equal(t, []string{"ran SQL"}, resp.Steps)
}

func TestDecodePlanningAgentAnswer(t *testing.T) {
	resp, err := Decode([]byte(`{"response":"Top customers: A, B, C.","plan":["query revenue"],"steps":["ran SQL"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Top customers: A, B, C.", resp.Answer)
	assert.Empty(t, resp.Warnings)
	assert.IsType(t, AnswerPayload{}, Classify(resp))
}
