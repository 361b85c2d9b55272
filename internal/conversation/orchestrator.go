package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/csheth/churnscout/internal/api"
	"github.com/csheth/churnscout/internal/render"
	"github.com/csheth/churnscout/internal/response"
)

var (
	// ErrEmptyInput rejects a submission with no visible characters.
	ErrEmptyInput = errors.New("conversation: input is empty")
	// ErrConcurrentSubmission rejects a submission or clear while a query is in flight.
	ErrConcurrentSubmission = errors.New("conversation: a query is already in flight")
)

// errAbandoned fills an outcome that never came back from Execute.
var errAbandoned = errors.New("conversation: query abandoned")

// Phase is the lifecycle step of the current query.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSending   Phase = "sending"
	PhaseRendering Phase = "rendering"
	PhaseErroring  Phase = "erroring"
)

// Querier sends one query to the analysis service.
type Querier interface {
	Query(ctx context.Context, text string) (response.QueryResponse, error)
}

// State is the transient UI state owned by the orchestrator.
type State struct {
	IsLoading    bool
	PendingInput string
}

// Pending is the ticket for an accepted submission.
type Pending struct {
	ID          string
	Text        string
	SubmittedAt time.Time
}

// Outcome is what Execute learned about a pending query.
type Outcome struct {
	Pending  Pending
	Response response.QueryResponse
	Document *render.Document
	Err      error
	Duration time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	Client         Querier
	Logger         zerolog.Logger
	WelcomeMessage string
}

// Orchestrator drives the request lifecycle for a conversation: one
// accepted submission at a time, one request per submission, and exactly
// one assistant turn per request.
type Orchestrator struct {
	client Querier
	store  *Store
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	phase    Phase
	inflight string
}

// New builds an orchestrator around a fresh store.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		client: opts.Client,
		store:  NewStore(opts.WelcomeMessage),
		logger: opts.Logger.With().Str("component", "conversation").Logger(),
		phase:  PhaseIdle,
	}
}

// Store exposes the conversation for reading.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// State returns a copy of the transient UI state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Phase reports the lifecycle step of the current query.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// SetInput records the composer contents.
func (o *Orchestrator) SetInput(text string) {
	o.mu.Lock()
	o.state.PendingInput = text
	o.mu.Unlock()
}

// Submit validates text and, when accepted, appends the user turn and marks
// the conversation as loading. Rejections leave everything untouched.
func (o *Orchestrator) Submit(text string) (Pending, error) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, ErrEmptyInput
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.IsLoading {
		return Pending{}, ErrConcurrentSubmission
	}
	turn := o.store.Append(userTurn(text))
	pending := Pending{ID: uuid.NewString(), Text: text, SubmittedAt: turn.CreatedAt}
	o.inflight = pending.ID
	o.state = State{IsLoading: true}
	o.phase = PhaseSending
	o.logger.Debug().Str("query", pending.ID).Int("chars", len(text)).Msg("query accepted")
	return pending, nil
}

// Execute issues the single request for p and renders the reply. It does
// not touch the store, so it can run on any goroutine; a panic in the
// transport becomes a failed outcome.
func (o *Orchestrator) Execute(ctx context.Context, p Pending) (outcome Outcome) {
	outcome = Outcome{Pending: p}
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("%w: panic: %v", api.ErrTransport, r)
			outcome.Document = nil
		}
		outcome.Duration = time.Since(started)
		o.setPhase(p.ID, outcome.Err)
	}()

	if o.client == nil {
		outcome.Err = fmt.Errorf("%w: no client configured", api.ErrTransport)
		return outcome
	}
	resp, err := o.client.Query(ctx, p.Text)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Response = resp
	outcome.Document = render.Render(resp)
	return outcome
}

func (o *Orchestrator) setPhase(id string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight != id {
		return
	}
	if err != nil {
		o.phase = PhaseErroring
	} else {
		o.phase = PhaseRendering
	}
}

// Settle appends the assistant turn for out and returns the conversation to
// idle. Failures become the fixed fallback turn.
func (o *Orchestrator) Settle(out Outcome) Turn {
	o.mu.Lock()
	defer o.mu.Unlock()

	turn := assistantText(FallbackMessage)
	turn.Failed = true
	if out.Err == nil && out.Document != nil {
		turn = Turn{
			Role:         RoleAssistant,
			Content:      out.Document.Summary.String(),
			Document:     out.Document,
			Plan:         out.Response.Plan,
			ExecutionLog: out.Response.Steps,
			Raw:          out.Response.Raw,
		}
		if turn.Content == "" {
			turn.Content = string(out.Document.Variant)
		}
		o.logger.Info().
			Str("query", out.Pending.ID).
			Str("variant", string(out.Document.Variant)).
			Dur("duration", out.Duration).
			Msg("query settled")
	} else {
		err := out.Err
		if err == nil {
			err = errAbandoned
		}
		o.logger.Error().
			Err(err).
			Str("query", out.Pending.ID).
			Dur("duration", out.Duration).
			Msg("query failed")
	}

	turn = o.store.Append(turn)
	if o.inflight == out.Pending.ID {
		o.inflight = ""
		o.state.IsLoading = false
		o.phase = PhaseIdle
	}
	return turn
}

// HandleSubmit runs a whole query on the calling goroutine and returns the
// assistant turn. Loading is released on every exit path.
func (o *Orchestrator) HandleSubmit(ctx context.Context, text string) (turn Turn, err error) {
	pending, err := o.Submit(text)
	if err != nil {
		return Turn{}, err
	}
	outcome := Outcome{Pending: pending, Err: errAbandoned}
	defer func() { turn = o.Settle(outcome) }()
	outcome = o.Execute(ctx, pending)
	return turn, nil
}

// Clear empties the conversation, keeping only the welcome message.
func (o *Orchestrator) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.IsLoading {
		return ErrConcurrentSubmission
	}
	o.store.Clear()
	o.state.PendingInput = ""
	return nil
}

// Restore loads saved turns into an idle conversation.
func (o *Orchestrator) Restore(turns []Turn) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.IsLoading {
		return ErrConcurrentSubmission
	}
	o.store.Restore(turns)
	return nil
}
