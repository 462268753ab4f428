package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// einoReasoner drives a ToolCallingChatModel. Tools are bound per call so the
// base model stays shareable across sessions.
type einoReasoner struct {
	model einomodel.ToolCallingChatModel
}

func NewEinoReasoner(m einomodel.ToolCallingChatModel) contractx.Reasoner {
	return &einoReasoner{model: m}
}

func (r *einoReasoner) Reason(ctx context.Context, req contractx.ReasonRequest) (statex.AssistantMessage, error) {
	m := r.model
	if len(req.Tools) > 0 {
		bound, err := r.model.WithTools(req.Tools)
		if err != nil {
			return statex.AssistantMessage{}, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		m = bound
	}

	msg, err := m.Generate(ctx, toEinoMessages(req.System, req.Messages))
	if err != nil {
		return statex.AssistantMessage{}, fmt.Errorf("%w: generate: %w", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return statex.AssistantMessage{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	return fromEinoMessage(msg), nil
}
