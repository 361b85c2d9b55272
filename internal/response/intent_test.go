package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assessment := &Assessment{ChurnScore: 10}
	cases := []struct {
		name string
		resp QueryResponse
		want any
	}{
		{
			name: "error wins over intent",
			resp: QueryResponse{Intent: IntentAnalysis, Error: "boom", Assessment: assessment},
			want: ErrorPayload{},
		},
		{
			name: "analysis",
			resp: QueryResponse{Intent: IntentAnalysis, Assessment: assessment},
			want: AnalysisPayload{},
		},
		{
			name: "analysis without assessment falls back",
			resp: QueryResponse{Intent: IntentAnalysis},
			want: UnknownPayload{},
		},
		{
			name: "transcript with empty list",
			resp: QueryResponse{Intent: IntentTranscript, Transcripts: []Transcript{}},
			want: TranscriptPayload{},
		},
		{
			name: "transcript without list falls back",
			resp: QueryResponse{Intent: IntentTranscript},
			want: UnknownPayload{},
		},
		{
			name: "plain answer without intent",
			resp: QueryResponse{Answer: "Top customers are A, B and C."},
			want: AnswerPayload{},
		},
		{
			name: "answer with unknown intent stays diagnostic",
			resp: QueryResponse{Intent: "forecast", Answer: "text"},
			want: UnknownPayload{},
		},
		{
			name: "new intent fails safe",
			resp: QueryResponse{Intent: "forecast", Assessment: assessment},
			want: UnknownPayload{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.IsType(t, tc.want, Classify(tc.resp))
		})
	}
}
