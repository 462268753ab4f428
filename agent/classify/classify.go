// Package classify turns the tail of a completed turn into outbound events.
package classify

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
	logx "github.com/tanpawarit/travelai/pkg/logger"
)

type EventType string

const (
	EventMessage EventType = "message"
	EventWeather EventType = "weather"
	EventHotels  EventType = "hotels"
	EventFlights EventType = "flights"
	EventError   EventType = "error"
)

// Event is one outbound frame: {"type": ..., "content" | "data": ...}.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Data    any       `json:"data,omitempty"`
}

func Message(text string) Event { return Event{Type: EventMessage, Content: text} }
func Error(text string) Event   { return Event{Type: EventError, Content: text} }

// kindOrder is part of the client protocol.
var kindOrder = []struct {
	kind  provider.Kind
	event EventType
}{
	{provider.KindHotels, EventHotels},
	{provider.KindWeather, EventWeather},
	{provider.KindFlights, EventFlights},
}

// Tail returns the messages strictly after the most recent user message.
func Tail(messages []statex.Message) []statex.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if _, ok := messages[i].(statex.UserMessage); ok {
			return messages[i+1:]
		}
	}
	return nil
}

// Classify derives the events for the latest turn in messages. Successful
// structured results win over the assistant's text; the first result of each
// kind is kept. A turn with neither returns ErrEmptyTurn.
func Classify(ctx context.Context, messages []statex.Message) ([]Event, error) {
	tail := Tail(messages)

	found := make(map[provider.Kind]provider.Result, len(kindOrder))
	terminal := ""
	for _, msg := range tail {
		switch m := msg.(type) {
		case statex.ToolResultMessage:
			if m.Result.Failed() {
				continue
			}
			if _, dup := found[m.Result.Kind]; dup {
				logx.Ctx(ctx).Debug().
					Str("kind", string(m.Result.Kind)).
					Str("call_id", m.CallID).
					Msg("duplicate result kind dropped")
				continue
			}
			found[m.Result.Kind] = m.Result
		case statex.AssistantMessage:
			if !m.HasToolCalls() && m.Text != "" {
				terminal = m.Text
			}
		}
	}

	events := make([]Event, 0, len(kindOrder))
	for _, k := range kindOrder {
		if res, ok := found[k.kind]; ok {
			events = append(events, Event{Type: k.event, Data: res.Payload()})
		}
	}
	if len(events) > 0 {
		return events, nil
	}
	if terminal != "" {
		return []Event{Message(terminal)}, nil
	}

	logx.Ctx(ctx).Warn().Int("tail", len(tail)).Msg("turn produced nothing observable")
	return nil, fmt.Errorf("%w: %d messages after last user message", contractx.ErrEmptyTurn, len(tail))
}
