package llm

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	statex "github.com/tanpawarit/travelai/agent/state"
)

// toEinoMessages prepends the system prompt to the history.
func toEinoMessages(system string, history []statex.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history)+1)
	if system != "" {
		out = append(out, schema.SystemMessage(system))
	}
	for _, msg := range history {
		switch m := msg.(type) {
		case statex.SystemMessage:
			out = append(out, schema.SystemMessage(m.Text))
		case statex.UserMessage:
			out = append(out, schema.UserMessage(m.Text))
		case statex.AssistantMessage:
			var calls []schema.ToolCall
			for _, c := range m.ToolCalls {
				calls = append(calls, schema.ToolCall{
					ID:   c.ID,
					Type: "function",
					Function: schema.FunctionCall{
						Name:      c.Name,
						Arguments: rawArguments(c),
					},
				})
			}
			out = append(out, schema.AssistantMessage(m.Text, calls))
		case statex.ToolResultMessage:
			out = append(out, schema.ToolMessage(m.Result.Content(), m.CallID))
		}
	}
	return out
}

func fromEinoMessage(msg *schema.Message) statex.AssistantMessage {
	out := statex.AssistantMessage{Text: strings.TrimSpace(msg.Content)}
	for _, c := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, newToolCall(c.ID, c.Function.Name, c.Function.Arguments))
	}
	return out
}

// newToolCall decodes the argument JSON. A decode failure is kept on the call
// so the registry can report it back to the model.
func newToolCall(id, name, raw string) statex.ToolCall {
	call := statex.ToolCall{
		ID:           strings.TrimSpace(id),
		Name:         strings.TrimSpace(name),
		RawArguments: raw,
		Arguments:    map[string]any{},
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return call
	}
	if err := json.Unmarshal([]byte(trimmed), &call.Arguments); err != nil {
		call.Arguments = nil
		call.ParseError = err.Error()
	}
	return call
}

func rawArguments(c statex.ToolCall) string {
	if c.RawArguments != "" {
		return c.RawArguments
	}
	if c.Arguments == nil {
		return "{}"
	}
	raw, err := json.Marshal(c.Arguments)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
