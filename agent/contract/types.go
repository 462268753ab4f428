package contract

import (
	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

type ReasonRequest struct {
	System   string
	Messages []statex.Message
	Tools    []*schema.ToolInfo
}

// TurnResult is what one processed turn hands to the gateway.
type TurnResult struct {
	SessionID string
	// Tail is the committed turn: the user message and everything after it.
	Tail []statex.Message
	// Terminal is the final assistant text; empty when the model produced none.
	Terminal    string
	ToolResults []provider.Result
	Iterations  int
	// Degraded is set when the iteration cap forced the turn to end.
	Degraded bool
}
