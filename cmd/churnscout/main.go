package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/csheth/churnscout/internal/api"
	"github.com/csheth/churnscout/internal/config"
	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/history"
	"github.com/csheth/churnscout/internal/logging"
	"github.com/csheth/churnscout/internal/tui"
)

const askWidth = 100

// errAskFailed marks a one-shot query that ended in the fallback turn.
var errAskFailed = errors.New("query failed")

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"endpoint":      "endpoint",
	"request-field": "request_field",
	"timeout":       "http_timeout",
	"welcome":       "welcome_message",
	"history":       "history_path",
	"export-dir":    "export_dir",
	"log-file":      "log_file",
	"log-level":     "log_level",
	"no-alt-screen": "no_alt_screen",
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errAskFailed) {
			fmt.Fprintln(os.Stderr, "churnscout:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("churnscout", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to a churnscout config file")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before the environment")
	fs.String("endpoint", "", "analysis service query URL")
	fs.String("request-field", "", "request body field carrying the query (user_query or message)")
	fs.Duration("timeout", 0, "HTTP timeout per query")
	fs.String("welcome", "", "assistant message shown at the top of every conversation")
	fs.String("history", "", "JSON file ctrl+s saves conversations to")
	fs.String("export-dir", "", "directory ctrl+e writes HTML exports to")
	fs.String("log-file", "", "log destination, - for stderr")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	askQuery := fs.String("ask", "", "send one query, print the answer and exit")
	resume := fs.Bool("resume", false, "reopen the most recent saved conversation")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	overrides := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if getter, ok := f.Value.(flag.Getter); ok {
			overrides[key] = getter.Get()
		}
	})

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
		Overrides:  overrides,
	})
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Config{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := api.New(api.Config{
		Endpoint:     cfg.Endpoint,
		RequestField: cfg.RequestField,
		Timeout:      cfg.HTTPTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	orch := conversation.New(conversation.Options{
		Client:         client,
		Logger:         logger,
		WelcomeMessage: cfg.WelcomeMessage,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *askQuery != "" {
		return ask(ctx, orch, *askQuery, stdout)
	}

	sessionID := ""
	if *resume {
		sessionID, err = restoreLatest(orch, cfg.HistoryPath, logger)
		if err != nil {
			return err
		}
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Context:      ctx,
			Orchestrator: orch,
			Logger:       logger,
			Endpoint:     client.Endpoint(),
			HistoryPath:  cfg.HistoryPath,
			ExportDir:    cfg.ExportDir,
			SessionID:    sessionID,
		}),
		opts...,
	)

	logger.Info().Str("endpoint", client.Endpoint()).Bool("resume", *resume).Msg("starting")
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func ask(ctx context.Context, orch *conversation.Orchestrator, query string, stdout io.Writer) error {
	turn, err := orch.HandleSubmit(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tui.RenderTurn(turn, askWidth))
	if turn.Failed {
		return errAskFailed
	}
	return nil
}

func restoreLatest(orch *conversation.Orchestrator, path string, logger zerolog.Logger) (string, error) {
	snapshot, ok, err := history.Latest(path)
	if err != nil {
		return "", fmt.Errorf("resume: %w", err)
	}
	if !ok {
		logger.Info().Str("path", path).Msg("no saved conversation to resume")
		return "", nil
	}
	if err := orch.Restore(snapshot.Conversation()); err != nil {
		return "", fmt.Errorf("resume: %w", err)
	}
	logger.Info().Str("session", snapshot.ID).Int("turns", len(snapshot.Turns)).Msg("resumed conversation")
	return snapshot.ID, nil
}
