package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	nodex "github.com/tanpawarit/travelai/agent/nodes"
	"github.com/tanpawarit/travelai/agent/prompt"
	logx "github.com/tanpawarit/travelai/pkg/logger"
	"github.com/tanpawarit/travelai/pkg/metrics"
	"github.com/tanpawarit/travelai/pkg/telemetry"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// Config is read with the TURN prefix.
type Config struct {
	MaxIterations    int           `envconfig:"MAX_ITERATIONS" default:"8"`
	ReasoningTimeout time.Duration `envconfig:"REASONING_TIMEOUT" default:"30s"`
	ToolTimeout      time.Duration `envconfig:"TOOL_TIMEOUT" default:"15s"`
	TurnTimeout      time.Duration `envconfig:"TURN_TIMEOUT" default:"120s"`
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = nodex.DefaultMaxIterations
	}
	if c.ReasoningTimeout <= 0 {
		c.ReasoningTimeout = 30 * time.Second
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 15 * time.Second
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 120 * time.Second
	}
	return c
}

type Orchestrator struct {
	store    contractx.SessionStore
	reasoner contractx.Reasoner
	tools    contractx.ToolDispatcher
	prompts  prompt.PromptSet
	cfg      Config

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store contractx.SessionStore,
	reasoner contractx.Reasoner,
	tools contractx.ToolDispatcher,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if tools == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	prompts := prompt.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:    store,
		reasoner: reasoner,
		tools:    tools,
		prompts:  prompts,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// ProcessTurn runs one user message to a terminal assistant message and
// commits the whole turn to the session. On error nothing is committed.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID string, text string) (result contractx.TurnResult, err error) {
	if strings.TrimSpace(text) == "" {
		return contractx.TurnResult{}, ErrInvalidMessage
	}

	ctx = logx.WithTurn(logx.WithSession(ctx, sessionID), uuid.NewString())
	ctx, span := telemetry.Tracer().Start(ctx, "turn.process")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.SessionIDKey, sessionID))

	started := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordTurn(outcome, result.Iterations)
		span.SetAttributes(
			attribute.String(telemetry.OutcomeKey, outcome),
			attribute.Int(telemetry.IterationKey, result.Iterations),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		ev := logx.Ctx(ctx).Info()
		if err != nil {
			ev = logx.Ctx(ctx).Warn().Err(err)
		}
		ev.Str("outcome", outcome).
			Int("iterations", result.Iterations).
			Dur("elapsed", time.Since(started)).
			Msg("turn finished")
	}()

	if o.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.TurnTimeout)
		defer cancel()
	}

	sess, release, err := o.store.Acquire(ctx, sessionID)
	if err != nil {
		outcome = "aborted"
		return contractx.TurnResult{}, err
	}
	defer release()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID:     sessionID,
		Text:          text,
		History:       sess.Messages(),
		MaxIterations: o.cfg.MaxIterations,
	})
	if err != nil {
		outcome = "reasoning_error"
		if ctx.Err() != nil {
			outcome = "aborted"
		}
		return contractx.TurnResult{}, err
	}

	// A turn abandoned by its caller is discarded as a unit.
	if err := ctx.Err(); err != nil {
		outcome = "aborted"
		return contractx.TurnResult{Iterations: out.Iterations}, err
	}

	if err := sess.Commit(out.Turn, o.now()); err != nil {
		outcome = "corrupt"
		return contractx.TurnResult{Iterations: out.Iterations}, fmt.Errorf("commit turn: %w", err)
	}

	if out.Degraded {
		outcome = "degraded"
	}
	return contractx.TurnResult{
		SessionID:   sess.ID(),
		Tail:        out.Turn.Messages(),
		Terminal:    out.Terminal,
		ToolResults: out.ToolResults,
		Iterations:  out.Iterations,
		Degraded:    out.Degraded,
	}, nil
}
