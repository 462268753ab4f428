package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
	logx "github.com/tanpawarit/travelai/pkg/logger"
	"github.com/tanpawarit/travelai/pkg/metrics"
	"github.com/tanpawarit/travelai/pkg/telemetry"
)

type entry struct {
	def   toolDef
	schema *openapi3.Schema
	// run returns a validation error instead of calling the provider.
	run func(ctx context.Context, args map[string]any) (provider.Result, error)
}

// Registry is the static tool catalogue plus its dispatch table.
type Registry struct {
	entries map[string]entry
	infos   []*schema.ToolInfo
}

var _ contractx.ToolDispatcher = (*Registry)(nil)

func NewRegistry(weather contractx.WeatherProvider, hotels contractx.HotelProvider, flights contractx.FlightProvider) *Registry {
	r := &Registry{entries: make(map[string]entry, len(catalog))}

	for _, def := range catalog {
		def := def
		sch := def.openAPISchema()
		e := entry{def: def, schema: sch}

		switch def.name {
		case ToolGetWeather:
			e.run = func(ctx context.Context, args map[string]any) (provider.Result, error) {
				var q provider.WeatherQuery
				if err := validate(def, sch, args, &q); err != nil {
					return invalid(def, err), err
				}
				return weather.Forecast(ctx, q), nil
			}
		case ToolSearchHotels:
			e.run = func(ctx context.Context, args map[string]any) (provider.Result, error) {
				var q provider.HotelQuery
				if err := validate(def, sch, args, &q); err != nil {
					return invalid(def, err), err
				}
				return hotels.Search(ctx, q), nil
			}
		case ToolSearchFlights:
			e.run = func(ctx context.Context, args map[string]any) (provider.Result, error) {
				var q provider.FlightQuery
				if err := validate(def, sch, args, &q); err != nil {
					return invalid(def, err), err
				}
				return flights.Search(ctx, q), nil
			}
		}

		r.entries[def.name] = e
		r.infos = append(r.infos, def.info())
	}
	return r
}

// Infos returns the catalogue in declaration order.
func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

// Dispatch always returns a result. Unknown tools, undecodable or invalid
// arguments and a cancelled context never reach a provider.
func (r *Registry) Dispatch(ctx context.Context, call statex.ToolCall) provider.Result {
	ctx, span := telemetry.Tracer().Start(ctx, "tool.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.ToolNameKey, call.Name),
		attribute.String(telemetry.ToolCallIDKey, call.ID),
	)

	res, err := r.dispatch(ctx, call)

	outcome := "ok"
	switch {
	case errors.Is(err, contractx.ErrValidation):
		outcome = "invalid"
	case res.Failed():
		outcome = "provider_error"
	}
	metrics.RecordToolCall(call.Name, outcome)
	span.SetAttributes(attribute.String(telemetry.OutcomeKey, outcome))
	if res.Failed() {
		span.SetStatus(codes.Error, res.Err)
	}

	logx.Ctx(ctx).Debug().
		Str("tool", call.Name).
		Str("call_id", call.ID).
		Str("outcome", outcome).
		Msg("tool dispatched")
	return res
}

func (r *Registry) dispatch(ctx context.Context, call statex.ToolCall) (provider.Result, error) {
	e, ok := r.entries[call.Name]
	if !ok {
		return provider.Failure("", fmt.Sprintf("Bilinmeyen araç: %s", call.Name)),
			fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, call.Name)
	}
	if call.ParseError != "" {
		err := fmt.Errorf("%w: %s", contractx.ErrValidation, call.ParseError)
		return invalid(e.def, err), err
	}
	if err := ctx.Err(); err != nil {
		return provider.Failure(e.def.kind, fmt.Sprintf("%s iptal edildi: %v", call.Name, err)), err
	}
	return e.run(ctx, call.Arguments)
}

func invalid(def toolDef, err error) provider.Result {
	return provider.Failure(def.kind, fmt.Sprintf("Geçersiz argümanlar (%s): %v", def.name, err))
}
