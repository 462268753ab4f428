package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	statex "github.com/tanpawarit/travelai/agent/state"
	logx "github.com/tanpawarit/travelai/pkg/logger"
)

const DefaultMaxIterations = 8

type ReasonDeps struct {
	Reasoner contractx.Reasoner
	Tools    contractx.ToolDispatcher
	System   string
	Timeout  time.Duration
}

// Reason runs one reasoning call and appends its reply to the turn.
func Reason(ctx context.Context, in *GraphState, deps ReasonDeps) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	callCtx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	msg, err := deps.Reasoner.Reason(callCtx, contractx.ReasonRequest{
		System:   deps.System,
		Messages: in.Conversation(),
		Tools:    deps.Tools.Infos(),
	})
	in.Iterations++
	if err != nil {
		return nil, fmt.Errorf("reasoning iteration %d: %w", in.Iterations, err)
	}

	assignCallIDs(in.Turn, msg.ToolCalls)
	in.Turn.Append(msg)
	in.Pending = msg.ToolCalls

	logx.Ctx(ctx).Debug().
		Int("iteration", in.Iterations).
		Int("tool_calls", len(msg.ToolCalls)).
		Msg("reasoning step")
	return in, nil
}

// assignCallIDs replaces missing or reused call ids so every call in the
// turn is addressable by exactly one tool result.
func assignCallIDs(turn *statex.Turn, calls []statex.ToolCall) {
	seen := make(map[string]bool)
	for _, m := range turn.Appended {
		if a, ok := m.(statex.AssistantMessage); ok {
			for _, c := range a.ToolCalls {
				seen[c.ID] = true
			}
		}
	}
	for i := range calls {
		if calls[i].ID == "" || seen[calls[i].ID] {
			calls[i].ID = "call_" + uuid.NewString()
		}
		seen[calls[i].ID] = true
	}
}
