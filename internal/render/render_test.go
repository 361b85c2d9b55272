package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/churnscout/internal/response"
)

func decode(t *testing.T, body string) response.QueryResponse {
	t.Helper()
	resp, err := response.Decode([]byte(body))
	require.NoError(t, err, "decode fixture")
	return resp
}

func TestSeverityBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Severity
	}{
		{0, SeverityLow},
		{39, SeverityLow},
		{40, SeverityMedium},
		{59, SeverityMedium},
		{60, SeverityHigh},
		{79, SeverityHigh},
		{80, SeverityCritical},
		{100, SeverityCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SeverityFor(tc.score), "SeverityFor(%d)", tc.score)
	}
}

func TestScoreBadgeClassFollowsScore(t *testing.T) {
	for _, score := range []int{39, 40, 59, 60, 79, 80} {
		doc := Render(response.QueryResponse{
			Intent:     response.IntentAnalysis,
			Assessment: &response.Assessment{ChurnScore: score},
		})
		scores := doc.Find(KindScore)
		require.Len(t, scores, 1, "score %d", score)
		assert.Equal(t, string(SeverityFor(score)), scores[0].Class, "score %d", score)
	}
}

func TestOutOfRangeScoreRendersClamped(t *testing.T) {
	cases := []struct {
		body      string
		wantScore string
		wantClass string
	}{
		{body: `{"intent":"analysis","assessment":{"churn_score":1e30}}`, wantScore: "0", wantClass: "low"},
		{body: `{"intent":"analysis","assessment":{"churn_score":-5}}`, wantScore: "0", wantClass: "low"},
		{body: `{"intent":"analysis","assessment":{"churn_score":250}}`, wantScore: "100", wantClass: "critical"},
	}
	for _, tc := range cases {
		doc := Render(decode(t, tc.body))
		score := doc.Find(KindScore)
		require.Len(t, score, 1)
		assert.Equal(t, tc.wantScore, score[0].Text.String(), tc.body)
		assert.Equal(t, tc.wantClass, score[0].Class, tc.body)
		assert.NotContains(t, doc.Summary.String(), "-", tc.body)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		0:    "0 sec",
		59:   "59 sec",
		60:   "1 min 0 sec",
		125:  "2 min 5 sec",
		3601: "60 min 1 sec",
		-3:   "0 sec",
	}
	for seconds, want := range cases {
		assert.Equal(t, want, FormatDuration(seconds), "FormatDuration(%d)", seconds)
	}
}

func TestAcmeAnalysisScenario(t *testing.T) {
	doc := Render(decode(t, `{"intent":"analysis","company_name":"Acme Co","assessment":{"churn_score":85,"risk_level":"Critical","summary":"Usage dropped 40% after the pricing change."}}`))
	require.Equal(t, VariantAnalysis, doc.Variant)

	headers := doc.Find(KindHeader)
	require.Len(t, headers, 1)
	assert.Equal(t, "Acme Co", headers[0].Text.String())

	score := doc.Find(KindScore)[0]
	assert.Equal(t, "85", score.Text.String())
	assert.Equal(t, "critical", score.Class)
	assert.Equal(t, "Critical", doc.Find(KindBadge)[0].Text.String())

	summary, ok := doc.Lookup("summary")
	require.True(t, ok, "summary section missing")
	assert.Equal(t, "Usage dropped 40% after the pricing change.", summary.Children[0].Text.String())

	for _, id := range []string{"sentiment", "red_flags", "signals", "recommendations"} {
		_, ok := doc.Lookup(id)
		assert.False(t, ok, "section %q should be absent", id)
	}
	assert.Empty(t, doc.Find(KindCollapsible))
}

func TestAnalysisDefaults(t *testing.T) {
	doc := Render(decode(t, `{"intent":"analysis","assessment":{"red_flags":["", "  "]}}`))
	assert.Equal(t, "Unknown Company", doc.Find(KindHeader)[0].Text.String())

	score := doc.Find(KindScore)[0]
	assert.Equal(t, "0", score.Text.String())
	assert.Equal(t, "low", score.Class)
	assert.Equal(t, "low", doc.Find(KindBadge)[0].Text.String(), "risk label falls back to the severity class")

	_, ok := doc.Lookup("red_flags")
	assert.False(t, ok, "red flags with only blank entries should be omitted")
}

func TestAnalysisFullSections(t *testing.T) {
	doc := Render(decode(t, `{
		"intent":"analysis","company_name":"Vivo Infusion",
		"assessment":{
			"churn_score":62,
			"sentiment_analysis":"Frustrated with support.",
			"red_flags":["Mentioned competitor"],
			"signals":[{"description":"Late invoices"},{"category":"Support","description":"Slow tickets","severity":"High"}],
			"recommendations":[{"action":"Escalate","urgency":"High","rationale":"Renewal in 30 days"},{"action":"Send survey"}]
		}}`))

	_, ok := doc.Lookup("sentiment")
	assert.True(t, ok, "sentiment section missing")

	flags, ok := doc.Lookup("red_flags")
	require.True(t, ok)
	assert.Len(t, flags.Children[0].Children, 1)

	signals, ok := doc.Lookup("signals")
	require.True(t, ok)
	assert.Equal(t, KindCollapsible, signals.Kind)
	assert.Equal(t, "Risk Signals (2)", signals.Label)
	first := signals.Children[0]
	assert.Equal(t, "General", first.Children[0].Text.String(), "category default")
	badge := first.Children[2]
	assert.Equal(t, "Medium", badge.Text.String())
	assert.Equal(t, "medium", badge.Class)

	recs, ok := doc.Lookup("recommendations")
	require.True(t, ok)
	require.Len(t, recs.Children, 2)
	assert.Len(t, recs.Children[1].Children, 1, "recommendation without urgency or rationale only carries the action")
	assert.Equal(t, []string{"signals", "recommendations"}, doc.ToggleIDs())
}

func TestEmptyTranscriptList(t *testing.T) {
	for _, transcripts := range []string{`[]`, `{}`, `null`, `{"transcripts":null}`} {
		doc := Render(decode(t, `{"intent":"transcript","company_name":"Acme Co","transcripts":`+transcripts+`}`))
		require.Equal(t, VariantTranscripts, doc.Variant, transcripts)
		require.Len(t, doc.Blocks, 1, transcripts)
		assert.Equal(t, "No transcripts found for Acme Co.", doc.Blocks[0].Text.String(), transcripts)
		assert.Empty(t, doc.Find(KindCard), transcripts)
	}
}

func TestTranscriptCards(t *testing.T) {
	doc := Render(decode(t, `{"intent":"transcript","company_name":"Acme Co","transcripts":[
		{"title":"QBR","date":"2025-01-12","duration":125,"company":"Acme Co","gong_url":"https://gong.example/call/1","transcript":"short"},
		{"duration":30}
	]}`))
	assert.Equal(t, "Found 2 transcripts for Acme Co", doc.Blocks[0].Text.String())

	cards := doc.Find(KindCard)
	require.Len(t, cards, 2)
	fields := map[string]string{}
	for _, child := range cards[0].Children {
		if child.Kind == KindField {
			fields[child.Label] = child.Text.String()
		}
	}
	assert.Equal(t, "2 min 5 sec", fields["Duration"])
	assert.Equal(t, "N/A", fields["Time"])
	assert.Equal(t, "2025-01-12", fields["Date"])

	links := doc.Find(KindLink)
	require.Len(t, links, 1)
	assert.Equal(t, "https://gong.example/call/1", links[0].Text.String())

	second := cards[1].Children
	assert.Equal(t, "Call Transcript", second[0].Text.String(), "title default")
	body := second[len(second)-1]
	assert.Equal(t, "No transcript available.", body.Text.String())
	assert.False(t, body.Expandable())

	single := Render(decode(t, `{"intent":"transcript","company_name":"Acme Co","transcripts":[{"title":"One"}]}`))
	assert.Equal(t, "Found 1 transcript for Acme Co", single.Blocks[0].Text.String())
}

func TestTranscriptTruncationRoundTrip(t *testing.T) {
	short := strings.Repeat("a", 300)
	long := strings.Repeat("é", 301)
	doc := Render(response.QueryResponse{
		Intent: response.IntentTranscript,
		Transcripts: []response.Transcript{
			{Body: short},
			{Body: long},
		},
	})
	bodies := doc.Find(KindExpandable)
	require.Len(t, bodies, 2)

	toggles := Toggles{}
	assert.False(t, bodies[0].Expandable(), "body of 300 characters must not be expandable")
	assert.Equal(t, short, toggles.Visible(bodies[0]).String())

	require.True(t, bodies[1].Expandable(), "body over 300 characters must be expandable")
	preview := toggles.Visible(bodies[1]).String()
	assert.NotEqual(t, long, preview)
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(preview, "…")), "preview should be a truncated prefix")

	toggles.Toggle(bodies[1].ID)
	assert.Equal(t, long, toggles.Visible(bodies[1]).String(), "expanded body must equal the original text")
	toggles.Toggle(bodies[1].ID)
	assert.Equal(t, preview, toggles.Visible(bodies[1]).String(), "collapsing again restores the preview")
}

func TestErrorBlockIsSanitized(t *testing.T) {
	doc := Render(response.QueryResponse{Intent: response.IntentAnalysis, Error: "bad \x1b[31mred\x1b[0m\x07 input", Assessment: &response.Assessment{}})
	require.Equal(t, VariantError, doc.Variant)
	assert.Equal(t, "bad red input", doc.Blocks[0].Text.String())
}

func TestDiagnosticFallback(t *testing.T) {
	resp := decode(t, `{"intent":"forecast","data":{"rows":[1,2]},"note":"\u001b]0;pwned\u0007hi"}`)
	doc := Render(resp)
	require.Equal(t, VariantDiagnostic, doc.Variant)

	code := doc.Find(KindCode)
	require.Len(t, code, 1)
	assert.Contains(t, code[0].Text.String(), "\n  \"intent\": \"forecast\"", "expected pretty printed JSON")
	assert.Contains(t, doc.Summary.String(), `"forecast"`, "summary should name the intent")
}

func TestRenderIsDeterministic(t *testing.T) {
	resp := decode(t, `{"intent":"transcript","company_name":"Acme","transcripts":[{"title":"A","transcript":"`+strings.Repeat("x", 400)+`"}]}`)
	a, b := Render(resp), Render(resp)
	require.Len(t, a.ToggleIDs(), 1)
	assert.Equal(t, a.ToggleIDs(), b.ToggleIDs())
}

func TestPlainAnswerParagraphs(t *testing.T) {
	doc := Render(decode(t, `{"response":"Top customers by revenue:\n1. Acme\n\n\n2. Globex\u001b[2J"}`))
	require.Equal(t, VariantAnswer, doc.Variant)

	paras := doc.Find(KindParagraph)
	require.Len(t, paras, 2)
	assert.Equal(t, "2. Globex", paras[1].Text.String())
	assert.Equal(t, "Top customers by revenue:", doc.Summary.String())
}
