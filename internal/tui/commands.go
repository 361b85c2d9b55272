package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/export"
	"github.com/csheth/churnscout/internal/history"
)

type queryResultMsg struct {
	outcome conversation.Outcome
}

type historySavedMsg struct {
	path  string
	turns int
	err   error
}

type exportResultMsg struct {
	path string
	err  error
}

// queryJob runs the request off the UI goroutine. The outcome is settled
// back on the UI goroutine when the envelope arrives.
func queryJob(orch *conversation.Orchestrator, pending conversation.Pending) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		outcome := orch.Execute(ctx, pending)
		return queryResultMsg{outcome: outcome}, outcome.Err
	}
}

func saveHistoryJob(path string, snapshot history.Snapshot) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := history.Save(path, snapshot); err != nil {
			return historySavedMsg{path: path, err: err}, err
		}
		return historySavedMsg{path: path, turns: len(snapshot.Turns)}, nil
	}
}

func exportJob(dir string, turns []conversation.Turn, opts export.Options) jobRunner {
	toExport := append([]conversation.Turn(nil), turns...)
	return func(context.Context) (tea.Msg, error) {
		path, err := export.WriteFile(dir, toExport, opts)
		if err != nil {
			return exportResultMsg{err: err}, err
		}
		return exportResultMsg{path: path}, nil
	}
}
