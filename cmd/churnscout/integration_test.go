package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/churnscout/internal/tuitest"
)

func TestChurnScoutAnalysisSession(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary and drives it in a PTY")
	}
	server := startStub(t)
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	args := baseArgs(t, server.URL+"/api/query")

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: append([]string{binary, "-no-alt-screen"}, args...),
		Dir:     t.TempDir(),
		Width:   110,
		Height:  40,
		Steps: []tuitest.Step{
			{WaitFor: "Ask ChurnScout"},
			{Input: []byte("Analyze churn risk for Acme Co")},
			{Delay: 100 * time.Millisecond, Input: tuitest.KeyEnter},
			{WaitFor: "Score 85", Input: tuitest.KeyTab},
			{Delay: 100 * time.Millisecond, Input: tuitest.KeySpace},
			{WaitFor: "Invoice volume down 48%", Input: []byte("show transcripts for Globex")},
			{Delay: 100 * time.Millisecond, Input: tuitest.KeyEnter},
			{WaitFor: "No transcripts found for Globex.", Input: tuitest.KeyCtrlC},
		},
		Timeout:        20 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	plain := rec.Plain()
	for _, want := range []string{"Risk Signals (3)", "Invoice volume down 48%", "No transcripts found for Globex."} {
		if !strings.Contains(plain, want) {
			t.Fatalf("session output missing %q", want)
		}
	}
}

func TestChurnScoutFallbackThenRecovers(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary and drives it in a PTY")
	}
	server := startStub(t)
	binary := buildBinary(t, moduleDir(t))
	args := baseArgs(t, server.URL+"/api/query")

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: append([]string{binary, "-no-alt-screen"}, args...),
		Dir:     t.TempDir(),
		Width:   110,
		Height:  40,
		Steps: []tuitest.Step{
			{WaitFor: "Ask ChurnScout", Input: []byte("cause a server error")},
			{Delay: 100 * time.Millisecond, Input: tuitest.KeyEnter},
			{WaitFor: "Failed to connect to the server", Input: []byte("Analyze churn risk for Acme Co")},
			{Delay: 100 * time.Millisecond, Input: tuitest.KeyEnter},
			{WaitFor: "Score 85", Input: tuitest.KeyCtrlC},
		},
		Timeout:        20 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if strings.Contains(rec.Plain(), "agent crashed") {
		t.Fatal("server error body leaked into the TUI")
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "churnscout-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
