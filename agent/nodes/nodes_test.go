package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// slowDispatcher finishes calls in reverse order of their delay index.
type slowDispatcher struct{}

func (slowDispatcher) Infos() []*schema.ToolInfo { return nil }

func (slowDispatcher) Dispatch(ctx context.Context, call statex.ToolCall) provider.Result {
	delay, _ := call.Arguments["delay"].(time.Duration)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return provider.Failure(provider.KindWeather, ctx.Err().Error())
	}
	return provider.WeatherResult(&provider.WeatherReport{City: call.ID})
}

func newState(t *testing.T) *GraphState {
	t.Helper()
	st, err := ValidateRequest(GraphInput{SessionID: "s", Text: "hi"}, time.Now)
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	return st
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	if _, err := ValidateRequest(GraphInput{SessionID: " ", Text: "x"}, time.Now); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := ValidateRequest(GraphInput{SessionID: "s", Text: "  "}, time.Now); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	st := newState(t)
	if st.MaxIterations != DefaultMaxIterations {
		t.Fatalf("max iterations = %d, want %d", st.MaxIterations, DefaultMaxIterations)
	}
}

func TestDispatchToolsKeepsRequestOrder(t *testing.T) {
	t.Parallel()

	st := newState(t)
	calls := make([]statex.ToolCall, 0, 4)
	for i := 0; i < 4; i++ {
		calls = append(calls, statex.ToolCall{
			ID:        fmt.Sprintf("c%d", i),
			Name:      "get_weather",
			Arguments: map[string]any{"delay": time.Duration(4-i) * 10 * time.Millisecond},
		})
	}
	st.Turn.Append(statex.AssistantMessage{ToolCalls: calls})
	st.Pending = calls

	out, err := DispatchTools(context.Background(), st, slowDispatcher{}, time.Second)
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	if len(out.Pending) != 0 {
		t.Fatal("pending calls must be cleared")
	}

	results := out.Turn.Appended[1:]
	if len(results) != len(calls) {
		t.Fatalf("results = %d, want %d", len(results), len(calls))
	}
	for i, m := range results {
		tr, ok := m.(statex.ToolResultMessage)
		if !ok {
			t.Fatalf("message %d is %T", i, m)
		}
		if tr.CallID != calls[i].ID || tr.Result.Weather.City != calls[i].ID {
			t.Fatalf("result %d answers %s, want %s", i, tr.CallID, calls[i].ID)
		}
	}
	if err := out.Turn.Validate(); err != nil {
		t.Fatalf("turn invalid: %v", err)
	}
}

func TestDispatchToolsTimeoutBecomesResult(t *testing.T) {
	t.Parallel()

	st := newState(t)
	calls := []statex.ToolCall{{ID: "slow", Name: "get_weather", Arguments: map[string]any{"delay": time.Second}}}
	st.Turn.Append(statex.AssistantMessage{ToolCalls: calls})
	st.Pending = calls

	out, err := DispatchTools(context.Background(), st, slowDispatcher{}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("DispatchTools() error = %v", err)
	}
	tr := out.Turn.Appended[1].(statex.ToolResultMessage)
	if !tr.Result.Failed() {
		t.Fatal("timed out call must produce a failed result")
	}
}

func TestNextStep(t *testing.T) {
	t.Parallel()

	st := newState(t)
	if got := NextStep(st); got != NodeFinalizeTurn {
		t.Fatalf("no pending: got %s", got)
	}

	st.Pending = []statex.ToolCall{{ID: "a"}}
	st.Iterations = 3
	if got := NextStep(st); got != NodeDispatchTools {
		t.Fatalf("pending under cap: got %s", got)
	}

	st.Iterations = st.MaxIterations
	if got := NextStep(st); got != NodeFinalizeTurn || !st.Exhausted {
		t.Fatalf("at cap: got %s exhausted=%v", got, st.Exhausted)
	}
}

func TestFinalizeTurnExhausted(t *testing.T) {
	t.Parallel()

	st := newState(t)
	st.Turn.Append(statex.AssistantMessage{ToolCalls: []statex.ToolCall{{ID: "a", Name: "get_weather"}}})
	st.Exhausted = true

	out, err := FinalizeTurn(st, "fallback")
	if err != nil {
		t.Fatalf("FinalizeTurn() error = %v", err)
	}
	if !out.Degraded || out.Terminal != "fallback" {
		t.Fatalf("unexpected output: %+v", out)
	}
	last, _, _ := out.Turn.LastAssistant()
	if last.HasToolCalls() {
		t.Fatal("forced terminal must not carry tool calls")
	}
}

func TestFinalizeTurnWithoutAssistant(t *testing.T) {
	t.Parallel()

	_, err := FinalizeTurn(newState(t), "fallback")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestAssignCallIDs(t *testing.T) {
	t.Parallel()

	turn := statex.NewTurn("s", "x")
	turn.Append(statex.AssistantMessage{ToolCalls: []statex.ToolCall{{ID: "dup"}}})

	calls := []statex.ToolCall{{ID: "dup"}, {ID: ""}, {ID: "fresh"}, {ID: "fresh"}}
	assignCallIDs(turn, calls)

	seen := map[string]bool{"dup": true}
	for i, c := range calls {
		if c.ID == "" || (seen[c.ID] && i != 2) {
			t.Fatalf("call %d has unusable id %q", i, c.ID)
		}
		seen[c.ID] = true
	}
	if calls[2].ID != "fresh" {
		t.Fatalf("unique id must be kept, got %s", calls[2].ID)
	}
}
