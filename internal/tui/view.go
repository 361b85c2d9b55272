package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/guide"
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	return joinNonEmpty([]string{
		m.heroView(),
		m.viewport.View(),
		m.statusLine(),
		m.composerPanel(),
		m.sessionMeterView(),
	})
}

func (m *model) heroView() string {
	if m.layout.showLogo() {
		return lipgloss.JoinVertical(lipgloss.Left, renderLogo(), taglineStyle.Render(heroTagline))
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor).Render("ChurnScout")
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", taglineStyle.Render(heroTagline))
}

func (m *model) statusLine() string {
	switch {
	case m.errorMessage != "":
		return errorStyle.Render(m.errorMessage)
	case m.stage == stageLoading:
		return helperStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage))
	case m.infoMessage != "":
		return helperStyle.Render(m.infoMessage)
	default:
		return helperStyle.Render("Ready.")
	}
}

func (m *model) composerPanel() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		sectionHeaderStyle.Render("Ask ChurnScout"),
		m.composer.View(),
	)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func (m *model) phaseLabel() string {
	switch m.orch.Phase() {
	case conversation.PhaseSending:
		return "SENDING"
	case conversation.PhaseRendering:
		return "RENDERING"
	case conversation.PhaseErroring:
		return "ERRORING"
	default:
		return "IDLE"
	}
}

func (m *model) sessionMeterView() string {
	turns := m.orch.Store().Turns()
	questions := 0
	for _, turn := range turns {
		if turn.Role == conversation.RoleUser {
			questions++
		}
	}
	stats := []string{
		m.phaseLabel(),
		fmt.Sprintf("Questions %d", questions),
		fmt.Sprintf("Turns %d", len(turns)),
	}
	if m.config.Endpoint != "" {
		stats = append(stats, m.config.Endpoint)
	}
	stats = append(stats, m.jobStatusBadges()...)
	stats = append(stats, "? help")
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

// jobStatusBadges lists background jobs that are running or failed last.
func (m *model) jobStatusBadges() []string {
	var badges []string
	for kind, snapshot := range m.jobStates {
		switch snapshot.Status {
		case jobStatusRunning:
			badges = append(badges, fmt.Sprintf("%s…", kind))
		case jobStatusFailed:
			badges = append(badges, fmt.Sprintf("%s failed", kind))
		}
	}
	sort.Strings(badges)
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := make([]keyHint, 0, len(guide.Keys))
	for _, key := range guide.Keys {
		hints = append(hints, keyHint{Key: key[0], Description: key[1]})
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 2
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "   ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Example questions"))
	b.WriteRune('\n')
	for _, hint := range guide.Hints("") {
		b.WriteString(" • ")
		b.WriteString(hint.Query)
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render(indentMultiline(hint.Description, "   ")))
		b.WriteRune('\n')
	}
	return joinNonEmpty([]string{m.keyLegendView(), b.String(), helperStyle.Render("Press ? or Esc to close.")})
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}
