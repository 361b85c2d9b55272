package tuitest

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Frame represents a normalized terminal render.
type Frame struct {
	Index int
	ANSI  string
	Plain string
}

// Erase-display sequences mark where bubbletea starts repainting.
var frameSeparator = regexp.MustCompile(`\x1b\[[0-9;]*J`)

func parseFrames(raw []byte) []Frame {
	cleaned := strings.ReplaceAll(string(raw), "\r", "")
	segments := frameSeparator.Split(cleaned, -1)
	frames := make([]Frame, 0, len(segments))
	for _, segment := range segments {
		segment = strings.Trim(segment, "\x00")
		segment = strings.TrimPrefix(segment, "\x1b[H")
		if segment == "" {
			continue
		}
		stripped := plainText(segment)
		if strings.TrimSpace(stripped) == "" {
			continue
		}
		frames = append(frames, Frame{
			Index: len(frames),
			ANSI:  segment,
			Plain: normalizeLines(stripped),
		})
	}
	if len(frames) == 0 && len(cleaned) > 0 {
		frames = append(frames, Frame{Index: 0, ANSI: cleaned, Plain: normalizeLines(plainText(cleaned))})
	}
	return frames
}

// FinalFrame returns the last captured frame. The second return value is false
// when no frames were recorded.
func (r *Recording) FinalFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// Plain returns the whole stream without escape sequences. Bubbletea only
// repaints changed lines, so text can appear in the stream without being in
// any single frame.
func (r *Recording) Plain() string {
	if r == nil {
		return ""
	}
	return plainText(strings.ReplaceAll(string(r.Raw), "\r", ""))
}

func plainText(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\x0f", "")
	return strings.ReplaceAll(s, "\x0e", "")
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
