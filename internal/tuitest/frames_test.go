package tuitest

import (
	"bytes"
	"testing"
)

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[Hfirst   \r\n\x1b[1mbold\x1b[0m\n\n\x1b[2J\x1b[H\x1b]0;title\x07second")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("expected two frames, got %d: %#v", len(frames), frames)
	}
	if frames[0].Plain != "first\nbold" {
		t.Fatalf("unexpected first frame: %q", frames[0].Plain)
	}
	if frames[1].Plain != "second" {
		t.Fatalf("unexpected second frame: %q", frames[1].Plain)
	}
	rec := &Recording{Raw: raw, Frames: frames}
	if last, ok := rec.FinalFrame(); !ok || last.Index != 1 {
		t.Fatalf("unexpected final frame: %#v", last)
	}
}

func TestTerminalResponderAnswersInOrder(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)
	tr.Process([]byte("\x1b]11;?\x07 noise \x1b["))
	tr.Process([]byte("6n"))
	want := "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R"
	if out.String() != want {
		t.Fatalf("unexpected replies: %q", out.String())
	}
}
