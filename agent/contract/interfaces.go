package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

// Reasoner is one language-model call: history plus tool catalogue in, one
// assistant message out.
type Reasoner interface {
	Reason(ctx context.Context, req ReasonRequest) (statex.AssistantMessage, error)
}

// ToolDispatcher validates and runs a tool call. Failures come back as a
// failed provider.Result, never as an error.
type ToolDispatcher interface {
	Infos() []*schema.ToolInfo
	Dispatch(ctx context.Context, call statex.ToolCall) provider.Result
}

type SessionStore interface {
	Acquire(ctx context.Context, sessionID string) (*statex.Session, func(), error)
}

type WeatherProvider interface {
	Forecast(ctx context.Context, q provider.WeatherQuery) provider.Result
}

type HotelProvider interface {
	Search(ctx context.Context, q provider.HotelQuery) provider.Result
}

type FlightProvider interface {
	Search(ctx context.Context, q provider.FlightQuery) provider.Result
}
