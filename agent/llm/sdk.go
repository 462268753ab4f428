package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// completions is the slice of the SDK client the reasoner needs.
type completions interface {
	New(ctx context.Context, body openaisdk.ChatCompletionNewParams, opts ...option.RequestOption) (*openaisdk.ChatCompletion, error)
}

type sdkReasoner struct {
	api         completions
	model       string
	temperature float64
	maxTokens   int
}

func NewSDKReasoner(client *openaisdk.Client, cfg Config) contractx.Reasoner {
	return newSDKReasoner(&client.Chat.Completions, cfg)
}

func newSDKReasoner(api completions, cfg Config) *sdkReasoner {
	r := &sdkReasoner{
		api:         api,
		model:       strings.TrimSpace(cfg.Model),
		temperature: float64(cfg.Temperature),
	}
	if cfg.MaxCompletionToken != nil {
		r.maxTokens = *cfg.MaxCompletionToken
	}
	return r
}

func (r *sdkReasoner) Reason(ctx context.Context, req contractx.ReasonRequest) (statex.AssistantMessage, error) {
	tools, err := toSDKTools(req.Tools)
	if err != nil {
		return statex.AssistantMessage{}, fmt.Errorf("%w: tool schema: %v", contractx.ErrModelInvoke, err)
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(r.model),
		Messages:    toSDKMessages(req.System, req.Messages),
		Tools:       tools,
		Temperature: openaisdk.Float(r.temperature),
	}
	if r.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(r.maxTokens))
	}

	resp, err := r.api.New(ctx, params)
	if err != nil {
		return statex.AssistantMessage{}, fmt.Errorf("%w: chat completion: %w", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return statex.AssistantMessage{}, fmt.Errorf("%w: no choices in completion", contractx.ErrSchemaViolation)
	}

	choice := resp.Choices[0].Message
	out := statex.AssistantMessage{Text: strings.TrimSpace(choice.Content)}
	for _, c := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, newToolCall(c.ID, c.Function.Name, c.Function.Arguments))
	}
	return out, nil
}

func toSDKMessages(system string, history []statex.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if system != "" {
		out = append(out, openaisdk.SystemMessage(system))
	}
	for _, msg := range history {
		switch m := msg.(type) {
		case statex.SystemMessage:
			out = append(out, openaisdk.SystemMessage(m.Text))
		case statex.UserMessage:
			out = append(out, openaisdk.UserMessage(m.Text))
		case statex.AssistantMessage:
			asst := openaisdk.ChatCompletionAssistantMessageParam{}
			if m.Text != "" {
				asst.Content = openaisdk.ChatCompletionAssistantMessageParamContentUnion{OfString: openaisdk.String(m.Text)}
			}
			for _, c := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
					ID: c.ID,
					Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      c.Name,
						Arguments: rawArguments(c),
					},
				})
			}
			out = append(out, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case statex.ToolResultMessage:
			out = append(out, openaisdk.ToolMessage(m.Result.Content(), m.CallID))
		}
	}
	return out
}

func toSDKTools(infos []*schema.ToolInfo) ([]openaisdk.ChatCompletionToolParam, error) {
	out := make([]openaisdk.ChatCompletionToolParam, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		params := openaisdk.FunctionParameters{"type": "object", "properties": map[string]any{}}
		if info.ParamsOneOf != nil {
			sch, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", info.Name, err)
			}
			raw, err := json.Marshal(sch)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", info.Name, err)
			}
			params = openaisdk.FunctionParameters{}
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("tool %s: %w", info.Name, err)
			}
		}
		out = append(out, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        info.Name,
				Description: openaisdk.String(info.Desc),
				Parameters:  params,
			},
		})
	}
	return out, nil
}
