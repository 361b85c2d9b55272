package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/csheth/churnscout/internal/response"
)

const (
	defaultCompany     = "Unknown Company"
	defaultCategory    = "General"
	defaultBadge       = "Medium"
	defaultCallTitle   = "Call Transcript"
	defaultMeta        = "N/A"
	defaultTranscript  = "No transcript available."
	transcriptPreview  = 300
	summaryLimit       = 120
	previewEllipsis    = "…"
	gongLinkLabel      = "View in Gong"
	signalsID          = "signals"
	recommendationsID  = "recommendations"
	transcriptIDFormat = "transcript-%d"
)

// Render builds the document for one service reply.
func Render(resp response.QueryResponse) *Document {
	switch payload := response.Classify(resp).(type) {
	case response.ErrorPayload:
		return renderError(payload)
	case response.AnalysisPayload:
		return renderAnalysis(payload)
	case response.TranscriptPayload:
		return renderTranscripts(payload)
	case response.AnswerPayload:
		return renderAnswer(payload)
	case response.UnknownPayload:
		return renderDiagnostic(payload)
	default:
		return renderDiagnostic(response.UnknownPayload{Intent: resp.Intent, Raw: resp.Raw})
	}
}

func renderError(p response.ErrorPayload) *Document {
	msg := Sanitize(p.Message)
	return &Document{
		Variant: VariantError,
		Summary: Sanitize("Error: " + p.Message),
		Blocks:  []Block{{Kind: KindError, Label: "Service error", Text: msg}},
	}
}

func renderAnalysis(p response.AnalysisPayload) *Document {
	a := p.Assessment
	company := orDefault(p.CompanyName, defaultCompany)
	score := a.ChurnScore
	severity := SeverityFor(score)
	riskLevel := orDefault(a.RiskLevel, string(severity))
	class := string(severity)

	header := Block{
		Kind:  KindHeader,
		Class: class,
		Text:  Sanitize(company),
		Children: []Block{
			{Kind: KindScore, Label: "Score", Class: class, Text: Sanitize(strconv.Itoa(score))},
			{Kind: KindBadge, Label: "Risk", Class: class, Text: Sanitize(riskLevel)},
		},
	}
	card := Block{Kind: KindCard, ID: "analysis", Class: class, Children: []Block{header}}

	if section, ok := paragraphSection("summary", "Summary", a.Summary); ok {
		card.Children = append(card.Children, section)
	}
	if section, ok := paragraphSection("sentiment", "Sentiment Analysis", a.SentimentAnalysis); ok {
		card.Children = append(card.Children, section)
	}
	if flags := listItems(a.RedFlags); len(flags) > 0 {
		card.Children = append(card.Children, Block{
			Kind:     KindSection,
			ID:       "red_flags",
			Label:    "Red Flags",
			Children: []Block{{Kind: KindList, Children: flags}},
		})
	}
	if len(a.Signals) > 0 {
		rows := make([]Block, 0, len(a.Signals))
		for _, signal := range a.Signals {
			rows = append(rows, signalRow(signal))
		}
		card.Children = append(card.Children, Block{
			Kind:     KindCollapsible,
			ID:       signalsID,
			Label:    fmt.Sprintf("Risk Signals (%d)", len(rows)),
			Children: rows,
		})
	}
	if len(a.Recommendations) > 0 {
		rows := make([]Block, 0, len(a.Recommendations))
		for _, rec := range a.Recommendations {
			rows = append(rows, recommendationRow(rec))
		}
		card.Children = append(card.Children, Block{
			Kind:     KindCollapsible,
			ID:       recommendationsID,
			Label:    fmt.Sprintf("Recommendations (%d)", len(rows)),
			Children: rows,
		})
	}

	return &Document{
		Variant: VariantAnalysis,
		Summary: Sanitize(fmt.Sprintf("Churn analysis for %s: score %d (%s)", company, score, severity)),
		Blocks:  []Block{card},
	}
}

func paragraphSection(id, label, value string) (Block, bool) {
	text := Sanitize(value)
	if text.Empty() {
		return Block{}, false
	}
	return Block{
		Kind:     KindSection,
		ID:       id,
		Label:    label,
		Children: []Block{{Kind: KindParagraph, Text: text}},
	}, true
}

func listItems(values []string) []Block {
	items := make([]Block, 0, len(values))
	for _, value := range values {
		text := Sanitize(value)
		if text.Empty() {
			continue
		}
		items = append(items, Block{Kind: KindItem, Text: text})
	}
	return items
}

func signalRow(s response.Signal) Block {
	severity := orDefault(s.Severity, defaultBadge)
	return Block{
		Kind: KindItem,
		Children: []Block{
			{Kind: KindField, Label: "Category", Text: Sanitize(orDefault(s.Category, defaultCategory))},
			{Kind: KindParagraph, Text: Sanitize(s.Description)},
			{Kind: KindBadge, Label: "Severity", Class: badgeClass(severity), Text: Sanitize(severity)},
		},
	}
}

func recommendationRow(r response.Recommendation) Block {
	row := Block{
		Kind:     KindItem,
		Children: []Block{{Kind: KindField, Label: "Action", Text: Sanitize(r.Action)}},
	}
	if urgency := Sanitize(r.Urgency); !urgency.Empty() {
		row.Children = append(row.Children, Block{Kind: KindBadge, Label: "Urgency", Class: badgeClass(r.Urgency), Text: urgency})
	}
	if rationale := Sanitize(r.Rationale); !rationale.Empty() {
		row.Children = append(row.Children, Block{Kind: KindParagraph, Label: "Rationale", Text: rationale})
	}
	return row
}

func renderTranscripts(p response.TranscriptPayload) *Document {
	company := orDefault(p.CompanyName, defaultCompany)
	if len(p.Transcripts) == 0 {
		msg := Sanitize(fmt.Sprintf("No transcripts found for %s.", company))
		return &Document{
			Variant: VariantTranscripts,
			Summary: msg,
			Blocks:  []Block{{Kind: KindMessage, Class: "empty", Text: msg}},
		}
	}

	noun := "transcript"
	if len(p.Transcripts) > 1 {
		noun = "transcripts"
	}
	count := Sanitize(fmt.Sprintf("Found %d %s for %s", len(p.Transcripts), noun, company))
	blocks := []Block{{Kind: KindMessage, Class: "count", Text: count}}
	for i, t := range p.Transcripts {
		blocks = append(blocks, transcriptCard(i, t))
	}
	return &Document{
		Variant: VariantTranscripts,
		Summary: count,
		Blocks:  blocks,
	}
}

func transcriptCard(index int, t response.Transcript) Block {
	id := fmt.Sprintf(transcriptIDFormat, index)
	card := Block{
		Kind:  KindCard,
		ID:    id + "-card",
		Label: "Call Transcript",
		Children: []Block{
			{Kind: KindHeader, Text: Sanitize(orDefault(t.Title, defaultCallTitle))},
			metaField("Date", t.Date),
			metaField("Time", t.Time),
			{Kind: KindField, Label: "Duration", Text: Sanitize(FormatDuration(t.Duration))},
			metaField("Company", t.Company),
			metaField("Stampli Contact", t.StampliContact),
			metaField("Company Contacts", t.CompanyContact),
		},
	}
	if url := Sanitize(t.GongURL); !url.Empty() {
		card.Children = append(card.Children, Block{Kind: KindLink, Label: gongLinkLabel, Text: url})
	}

	body := Sanitize(orDefault(t.Body, defaultTranscript))
	expandable := Block{Kind: KindExpandable, ID: id, Label: "Transcript", Text: body}
	if preview, truncated := truncateRunes(body.String(), transcriptPreview); truncated {
		expandable.Preview = Text{value: preview + previewEllipsis}
	}
	card.Children = append(card.Children, expandable)
	return card
}

func metaField(label, value string) Block {
	return Block{Kind: KindField, Label: label, Text: Sanitize(orDefault(value, defaultMeta))}
}

// truncateRunes cuts s to limit characters. The input is already sanitized,
// so the preview is built directly rather than sanitized twice.
func truncateRunes(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// renderAnswer splits a free-text answer into paragraphs on blank lines.
func renderAnswer(p response.AnswerPayload) *Document {
	text := Sanitize(p.Text)
	doc := &Document{Variant: VariantAnswer}
	for _, part := range strings.Split(text.String(), "\n\n") {
		if para := Sanitize(strings.TrimSpace(part)); !para.Empty() {
			doc.Blocks = append(doc.Blocks, Block{Kind: KindParagraph, Text: para})
		}
	}
	if len(doc.Blocks) == 0 {
		doc.Blocks = []Block{{Kind: KindMessage, Class: "empty", Text: Sanitize("The service returned an empty answer.")}}
	}
	first, _, _ := strings.Cut(strings.TrimSpace(text.String()), "\n")
	if preview, cut := truncateRunes(first, summaryLimit); cut {
		first = preview + previewEllipsis
	}
	doc.Summary = Sanitize(first)
	return doc
}

func renderDiagnostic(p response.UnknownPayload) *Document {
	raw := []byte(p.Raw)
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}
	summary := "Unrecognized response"
	if p.Intent != "" {
		summary = fmt.Sprintf("Unrecognized response (intent %q)", string(p.Intent))
	}
	return &Document{
		Variant: VariantDiagnostic,
		Summary: Sanitize(summary),
		Blocks:  []Block{{Kind: KindCode, Label: "Raw response", Text: Sanitize(pretty.String())}},
	}
}

func orDefault(value, fallback string) string {
	if Sanitize(value).Empty() {
		return fallback
	}
	return value
}
