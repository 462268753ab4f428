package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	statex "github.com/tanpawarit/travelai/agent/state"
	"github.com/tanpawarit/travelai/pkg/chatmodel"
	"github.com/tanpawarit/travelai/pkg/metrics"
	"github.com/tanpawarit/travelai/pkg/telemetry"
)

// NewReasoner builds the configured backend wrapped with metrics and tracing.
func NewReasoner(ctx context.Context, cfg Config) (contractx.Reasoner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var inner contractx.Reasoner
	switch cfg.backend() {
	case BackendSDK:
		client := chatmodel.NewClient(cfg.Config)
		if client == nil {
			return nil, fmt.Errorf("%w: sdk client not configured", contractx.ErrValidation)
		}
		inner = NewSDKReasoner(client, cfg)
	default:
		m, err := cfg.Config.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: build chat model: %w", contractx.ErrModelInvoke, err)
		}
		inner = NewEinoReasoner(m)
	}
	return Observe(inner), nil
}

type observed struct {
	inner contractx.Reasoner
}

// Observe records latency, outcome and a span for every call.
func Observe(r contractx.Reasoner) contractx.Reasoner {
	if _, ok := r.(*observed); ok {
		return r
	}
	return &observed{inner: r}
}

func (o *observed) Reason(ctx context.Context, req contractx.ReasonRequest) (statex.AssistantMessage, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "llm.reason")
	defer span.End()

	started := time.Now()
	msg, err := o.inner.Reason(ctx, req)

	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case errors.Is(err, context.Canceled):
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	case msg.HasToolCalls():
		outcome = "tool_calls"
	}
	metrics.ObserveReasoning(outcome, time.Since(started))

	span.SetAttributes(
		attribute.String(telemetry.OutcomeKey, outcome),
		attribute.Int("travelai.tool_calls", len(msg.ToolCalls)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return msg, err
}
