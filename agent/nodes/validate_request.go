package orchestratornode

import (
	"errors"
	"strings"
	"time"

	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = statex.ErrInvalidSession
)

type GraphInput struct {
	SessionID string
	Text      string
	// History is the committed session log before this turn.
	History       []statex.Message
	MaxIterations int
}

type GraphState struct {
	SessionID string
	Now       time.Time

	History []statex.Message
	Turn    *statex.Turn

	Iterations    int
	MaxIterations int
	// Pending holds the tool calls of the latest assistant message.
	Pending   []statex.ToolCall
	Exhausted bool
}

type GraphOutput struct {
	Turn        *statex.Turn
	Terminal    string
	ToolResults []provider.Result
	Iterations  int
	Degraded    bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	maxIter := in.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	return &GraphState{
		SessionID:     sessionID,
		Now:           nowFn().UTC(),
		History:       in.History,
		Turn:          statex.NewTurn(sessionID, text),
		MaxIterations: maxIter,
	}, nil
}

// Conversation is the history plus the turn so far, as sent to the model.
func (s *GraphState) Conversation() []statex.Message {
	turn := s.Turn.Messages()
	out := make([]statex.Message, 0, len(s.History)+len(turn))
	out = append(out, s.History...)
	return append(out, turn...)
}
