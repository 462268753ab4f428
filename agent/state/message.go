package state

import (
	"errors"
	"fmt"

	"github.com/tanpawarit/travelai/agent/provider"
)

// Message is a closed set: UserMessage, AssistantMessage, ToolResultMessage, SystemMessage.
type Message interface {
	isMessage()
}

type UserMessage struct {
	Text string
}

type AssistantMessage struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolResultMessage answers exactly one ToolCall of an earlier AssistantMessage.
type ToolResultMessage struct {
	CallID string
	Tool   string
	Result provider.Result
}

// SystemMessage is only ever prepended for a reasoning call, never stored.
type SystemMessage struct {
	Text string
}

func (UserMessage) isMessage()       {}
func (AssistantMessage) isMessage()  {}
func (ToolResultMessage) isMessage() {}
func (SystemMessage) isMessage()     {}

func (m AssistantMessage) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// ToolCall is one tool request emitted by the reasoning step. RawArguments keeps
// the model's original JSON; ParseError is set when it could not be decoded.
type ToolCall struct {
	ID           string
	Name         string
	Arguments    map[string]any
	RawArguments string
	ParseError   string
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionCorrupt  = errors.New("session state corrupt")
	ErrInvalidSession  = errors.New("session id is empty")
)

// Turn collects the messages produced for one inbound user message. Nothing
// reaches the session log until Commit.
type Turn struct {
	SessionID string
	Input     UserMessage
	Appended  []Message
}

func NewTurn(sessionID, text string) *Turn {
	return &Turn{SessionID: sessionID, Input: UserMessage{Text: text}}
}

func (t *Turn) Append(msgs ...Message) {
	t.Appended = append(t.Appended, msgs...)
}

// Messages returns the input followed by everything appended so far.
func (t *Turn) Messages() []Message {
	out := make([]Message, 0, len(t.Appended)+1)
	out = append(out, t.Input)
	return append(out, t.Appended...)
}

// LastAssistant returns the most recent assistant message of the turn.
func (t *Turn) LastAssistant() (AssistantMessage, int, bool) {
	for i := len(t.Appended) - 1; i >= 0; i-- {
		if m, ok := t.Appended[i].(AssistantMessage); ok {
			return m, i, true
		}
	}
	return AssistantMessage{}, -1, false
}

// Validate checks the ordering invariants of the turn: call ids are unique,
// every tool result follows the assistant message that requested it and is
// answered once, and no system or user message was appended.
func (t *Turn) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil turn", ErrSessionCorrupt)
	}
	requested := make(map[string]bool)
	answered := make(map[string]bool)

	for i, msg := range t.Appended {
		switch m := msg.(type) {
		case AssistantMessage:
			for _, call := range m.ToolCalls {
				if call.ID == "" {
					return fmt.Errorf("%w: message %d has tool call without id", ErrSessionCorrupt, i)
				}
				if _, dup := requested[call.ID]; dup {
					return fmt.Errorf("%w: duplicate tool call id %s", ErrSessionCorrupt, call.ID)
				}
				requested[call.ID] = true
			}
		case ToolResultMessage:
			if !requested[m.CallID] {
				return fmt.Errorf("%w: tool result %s has no prior call", ErrSessionCorrupt, m.CallID)
			}
			if answered[m.CallID] {
				return fmt.Errorf("%w: tool call %s answered twice", ErrSessionCorrupt, m.CallID)
			}
			answered[m.CallID] = true
		case UserMessage, SystemMessage:
			return fmt.Errorf("%w: unexpected %T at %d", ErrSessionCorrupt, msg, i)
		default:
			return fmt.Errorf("%w: unknown message %T", ErrSessionCorrupt, msg)
		}
	}
	return nil
}
