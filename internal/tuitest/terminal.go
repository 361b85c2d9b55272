package tuitest

import (
	"bytes"
	"io"
)

// terminalReplies answers the capability queries bubbletea and termenv send
// at startup, so programs do not stall waiting for a real terminal.
var terminalReplies = []struct {
	query, reply []byte
}{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b[c"), []byte("\x1b[?62;22c")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerOne() {
	}
	// Keep a small tail so sequences split across reads are still seen.
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

// answerOne replies to the earliest pending query in the buffer.
func (tr *terminalResponder) answerOne() bool {
	first, at := -1, len(tr.buf)
	for i, r := range terminalReplies {
		if idx := bytes.Index(tr.buf, r.query); idx >= 0 && idx < at {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	tr.buf = tr.buf[at+len(terminalReplies[first].query):]
	_, _ = tr.w.Write(terminalReplies[first].reply)
	return true
}
