package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/render"
)

const (
	planToggleID  = "plan"
	stepsToggleID = "execution-log"
	fieldWidth    = 18
	fullLogoWidth = 100
	fullLogoRows  = 40
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	headerHeight   int
	composerHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
		headerHeight:   1,
		composerHeight: 2,
	}
}

// Update sizes the viewport so header, status line, composer and status bar
// always fit. Each gap between panels is one blank line.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.composerHeight = 2
	l.headerHeight = 1
	if l.showLogo() {
		l.headerHeight = len(logoArtLines) + 2
	}
	const gaps = 4
	const statusLines = 2
	contentHeight := height - l.headerHeight - l.composerHeight - statusLines - gaps
	if contentHeight < 5 {
		contentHeight = 5
	}
	l.viewportHeight = contentHeight
}

func (l pageLayout) showLogo() bool {
	return l.windowWidth >= fullLogoWidth && l.windowHeight >= fullLogoRows
}

type displayView struct {
	content string
	anchors map[string]int
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

// docRenderer draws conversation turns line by line so that every toggle
// header can be anchored to the viewport line it lands on.
type docRenderer struct {
	cb        *contentBuilder
	width     int
	prefix    string
	indent    int
	turnID    string
	toggles   render.Toggles
	focus     string
	anchors   map[string]int
	highlight bool
}

func newDocRenderer(cb *contentBuilder, width int) *docRenderer {
	return &docRenderer{
		cb:        cb,
		width:     width,
		anchors:   map[string]int{},
		highlight: lipgloss.ColorProfile() != termenv.Ascii,
	}
}

func (r *docRenderer) line(s string) {
	for _, l := range strings.Split(s, "\n") {
		r.cb.WriteString(r.prefix + l)
		r.cb.WriteRune('\n')
	}
}

func (r *docRenderer) blank() {
	r.cb.WriteRune('\n')
}

func (r *docRenderer) available() int {
	width := r.width - r.indent
	if width < 20 {
		width = 20
	}
	return width
}

func (r *docRenderer) wrap(s string) string {
	return wordwrap.String(s, r.available())
}

func (r *docRenderer) nested(prefix string, fn func()) {
	savedPrefix, savedIndent := r.prefix, r.indent
	r.prefix += prefix
	r.indent += runewidth.StringWidth(ansi.Strip(prefix))
	fn()
	r.prefix, r.indent = savedPrefix, savedIndent
}

func (r *docRenderer) turn(t conversation.Turn, toggles render.Toggles, focus string) {
	r.turnID, r.toggles, r.focus = t.ID, toggles, focus
	if t.Role == conversation.RoleUser {
		r.line(userLabelStyle.Render("You"))
		r.nested("  ", func() { r.line(r.wrap(render.Sanitize(t.Content).String())) })
		return
	}
	r.line(assistantLabelStyle.Render("ChurnScout"))
	r.nested("  ", func() {
		switch {
		case t.Failed:
			r.line(errorStyle.Render(r.wrap(t.Content)))
		case t.Structured():
			r.blocks(t.Document.Blocks)
			r.steps(planToggleID, "Plan", t.Plan, true)
			r.steps(stepsToggleID, "Execution Log", t.ExecutionLog, false)
		default:
			r.line(r.wrap(render.Sanitize(t.Content).String()))
		}
	})
}

func (r *docRenderer) steps(id, title string, items []string, numbered bool) {
	if len(items) == 0 {
		return
	}
	open := r.toggles.Open(id)
	r.toggleLine(id, fmt.Sprintf("%s (%d)", title, len(items)), open)
	if !open {
		return
	}
	r.nested("  ", func() {
		for idx, item := range items {
			marker := "•"
			if numbered {
				marker = fmt.Sprintf("%d.", idx+1)
			}
			r.line(marker + " " + r.wrap(render.Sanitize(item).String()))
		}
	})
}

func (r *docRenderer) toggleLine(id, label string, open bool) {
	r.anchors[focusTarget{TurnID: r.turnID, BlockID: id}.key()] = r.cb.Line()
	marker := "▸"
	if open {
		marker = "▾"
	}
	text := marker + " " + label
	if r.focus == id {
		r.line(currentLineStyle.Render(text))
		return
	}
	r.line(toggleStyle.Render(text))
}

func (r *docRenderer) blocks(blocks []render.Block) {
	for _, b := range blocks {
		r.block(b)
	}
}

func (r *docRenderer) block(b render.Block) {
	switch b.Kind {
	case render.KindError:
		r.line(errorStyle.Render("✖ " + b.Label))
		r.line(r.wrap(b.Text.String()))
	case render.KindCard:
		if b.Label != "" {
			r.line(helperStyle.Render(b.Label))
		}
		r.nested(severityStyle(b.Class).Render("│")+" ", func() { r.blocks(b.Children) })
		r.blank()
	case render.KindHeader:
		parts := []string{heroTitleStyle.Render(b.Text.String())}
		for _, child := range b.Children {
			parts = append(parts, r.inline(child))
		}
		r.line(strings.Join(parts, "  "))
	case render.KindSection:
		r.line(sectionHeaderStyle.Render(b.Label))
		r.nested("  ", func() { r.blocks(b.Children) })
	case render.KindParagraph:
		text := b.Text.String()
		if b.Label != "" {
			text = b.Label + ": " + text
		}
		r.line(r.wrap(text))
	case render.KindList:
		r.blocks(b.Children)
	case render.KindItem:
		r.item(b)
	case render.KindCollapsible:
		open := r.toggles.Open(b.ID)
		r.toggleLine(b.ID, b.Label, open)
		if open {
			r.nested("  ", func() { r.blocks(b.Children) })
		}
	case render.KindField:
		r.line(helperStyle.Render(runewidth.FillRight(b.Label+":", fieldWidth)) + " " + b.Text.String())
	case render.KindLink:
		r.line(helperStyle.Render(runewidth.FillRight(b.Label+":", fieldWidth)) + " " + linkStyle.Render(b.Text.String()))
	case render.KindExpandable:
		r.line(sectionHeaderStyle.Render(b.Label))
		visible := r.toggles.Visible(b)
		r.nested("  ", func() { r.line(r.wrap(visible.String())) })
		if b.Expandable() {
			open := r.toggles.Open(b.ID)
			label := "Show full transcript"
			if open {
				label = "Show less"
			}
			r.toggleLine(b.ID, label, open)
		}
	case render.KindMessage:
		if b.Class == "count" {
			r.line(sectionHeaderStyle.Render(b.Text.String()))
			return
		}
		r.line(helperStyle.Render(r.wrap(b.Text.String())))
	case render.KindCode:
		r.line(helperStyle.Render(b.Label))
		r.line(r.code(b.Text.String()))
	default:
		if !b.Text.Empty() {
			r.line(r.wrap(b.Text.String()))
		}
		r.blocks(b.Children)
	}
}

// item puts inline children (fields and badges) on the bullet line and the
// remaining children underneath.
func (r *docRenderer) item(b render.Block) {
	if len(b.Children) == 0 {
		r.line("• " + r.wrap(b.Text.String()))
		return
	}
	var inline []string
	var rest []render.Block
	for _, child := range b.Children {
		switch child.Kind {
		case render.KindField, render.KindBadge, render.KindScore:
			inline = append(inline, r.inline(child))
		default:
			rest = append(rest, child)
		}
	}
	r.line("• " + strings.Join(inline, "  "))
	r.nested("  ", func() { r.blocks(rest) })
}

func (r *docRenderer) inline(b render.Block) string {
	switch b.Kind {
	case render.KindScore:
		return severityStyle(b.Class).Bold(true).Render(fmt.Sprintf("%s %s", b.Label, b.Text.String()))
	case render.KindBadge:
		badge := badgeStyle(b.Class).Render(strings.ToUpper(b.Text.String()))
		if b.Label == "" {
			return badge
		}
		return helperStyle.Render(b.Label) + " " + badge
	case render.KindField:
		return helperStyle.Render(b.Label+":") + " " + b.Text.String()
	default:
		return b.Text.String()
	}
}

func (r *docRenderer) code(source string) string {
	if !r.highlight {
		return source
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, "json", "terminal256", "monokai"); err != nil {
		return source
	}
	return strings.TrimRight(buf.String(), "\n")
}

// turnToggleIDs lists the toggles of one turn in display order.
func turnToggleIDs(t conversation.Turn) []string {
	if t.Role != conversation.RoleAssistant || !t.Structured() {
		return nil
	}
	ids := t.Document.ToggleIDs()
	if len(t.Plan) > 0 {
		ids = append(ids, planToggleID)
	}
	if len(t.ExecutionLog) > 0 {
		ids = append(ids, stepsToggleID)
	}
	return ids
}

// RenderTurn draws one turn the way the conversation view does, with every
// section opened. It is used for one-shot output outside the TUI.
func RenderTurn(turn conversation.Turn, width int) string {
	if width <= 0 {
		width = 80
	}
	toggles := render.Toggles{}
	for _, id := range turnToggleIDs(turn) {
		toggles[id] = true
	}
	cb := &contentBuilder{}
	newDocRenderer(cb, width).turn(turn, toggles, "")
	return strings.TrimRight(cb.String(), "\n")
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
