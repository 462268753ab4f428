package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// FinalizeTurn builds the turn output. When the iteration cap was hit, the
// last assistant message loses its unanswered tool calls and becomes terminal.
func FinalizeTurn(in *GraphState, exhaustedText string) (GraphOutput, error) {
	if in == nil || in.Turn == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	last, idx, ok := in.Turn.LastAssistant()
	if !ok {
		return GraphOutput{}, fmt.Errorf("%w: turn has no assistant message", contractx.ErrSchemaViolation)
	}

	if in.Exhausted {
		text := last.Text
		if text == "" {
			text = exhaustedText
		}
		last = statex.AssistantMessage{Text: text}
		in.Turn.Appended[idx] = last
		in.Pending = nil
	}

	var results []provider.Result
	for _, m := range in.Turn.Appended {
		if tr, ok := m.(statex.ToolResultMessage); ok {
			results = append(results, tr.Result)
		}
	}

	return GraphOutput{
		Turn:        in.Turn,
		Terminal:    last.Text,
		ToolResults: results,
		Iterations:  in.Iterations,
		Degraded:    in.Exhausted,
	}, nil
}
