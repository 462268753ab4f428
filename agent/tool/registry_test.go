package tool

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tanpawarit/travelai/agent/provider"
	statex "github.com/tanpawarit/travelai/agent/state"
)

type fakeWeather struct {
	calls []provider.WeatherQuery
}

func (f *fakeWeather) Forecast(_ context.Context, q provider.WeatherQuery) provider.Result {
	f.calls = append(f.calls, q)
	return provider.WeatherResult(&provider.WeatherReport{City: q.City, Type: "current", Forecasts: []provider.Forecast{{Temperature: 20}}})
}

type fakeHotels struct {
	calls []provider.HotelQuery
}

func (f *fakeHotels) Search(_ context.Context, q provider.HotelQuery) provider.Result {
	f.calls = append(f.calls, q)
	return provider.HotelResult(&provider.HotelSearch{Location: q.Location})
}

type fakeFlights struct {
	calls []provider.FlightQuery
}

func (f *fakeFlights) Search(_ context.Context, q provider.FlightQuery) provider.Result {
	f.calls = append(f.calls, q)
	return provider.FlightResult(&provider.FlightSearch{Departure: q.Departure})
}

func newTestRegistry() (*Registry, *fakeWeather, *fakeHotels, *fakeFlights) {
	w, h, f := &fakeWeather{}, &fakeHotels{}, &fakeFlights{}
	return NewRegistry(w, h, f), w, h, f
}

func TestInfosDeclareCatalogue(t *testing.T) {
	t.Parallel()

	reg, _, _, _ := newTestRegistry()
	infos := reg.Infos()
	if len(infos) != 3 {
		t.Fatalf("expected 3 tool infos, got %d", len(infos))
	}
	names := []string{infos[0].Name, infos[1].Name, infos[2].Name}
	if diff := cmp.Diff([]string{ToolGetWeather, ToolSearchHotels, ToolSearchFlights}, names); diff != "" {
		t.Fatalf("unexpected catalogue (-want +got):\n%s", diff)
	}

	if infos[0].ParamsOneOf == nil {
		t.Fatal("tool info must declare parameters")
	}
	required := append([]string(nil), catalog[2].openAPISchema().Required...)
	sort.Strings(required)
	if diff := cmp.Diff([]string{"arrival", "departure", "outbound_date"}, required); diff != "" {
		t.Fatalf("unexpected required flight params (-want +got):\n%s", diff)
	}
}

func TestDispatchWeatherClampsDays(t *testing.T) {
	t.Parallel()

	cases := []struct {
		days any
		want int
	}{
		{nil, 1},
		{0.0, 1},
		{-3.0, 1},
		{3.0, 3},
		{"4", 4},
		{12.0, 5},
	}
	for _, tc := range cases {
		reg, w, _, _ := newTestRegistry()
		args := map[string]any{"city": "Ankara"}
		if tc.days != nil {
			args["days"] = tc.days
		}
		res := reg.Dispatch(context.Background(), statex.ToolCall{ID: "c1", Name: ToolGetWeather, Arguments: args})
		if res.Failed() {
			t.Fatalf("days=%v: unexpected failure %s", tc.days, res.Err)
		}
		if len(w.calls) != 1 || w.calls[0].Days != tc.want {
			t.Fatalf("days=%v: provider got %+v, want days %d", tc.days, w.calls, tc.want)
		}
	}
}

func TestDispatchRejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		call statex.ToolCall
	}{
		{"missing city", statex.ToolCall{ID: "1", Name: ToolGetWeather, Arguments: map[string]any{}}},
		{"blank city", statex.ToolCall{ID: "2", Name: ToolGetWeather, Arguments: map[string]any{"city": "  "}}},
		{"fractional days", statex.ToolCall{ID: "3", Name: ToolGetWeather, Arguments: map[string]any{"city": "Ankara", "days": 2.5}}},
		{"star rating", statex.ToolCall{ID: "4", Name: ToolSearchHotels, Arguments: map[string]any{"location": "İstanbul", "star_rating": 7.0}}},
		{"budget type", statex.ToolCall{ID: "5", Name: ToolSearchHotels, Arguments: map[string]any{"location": "İstanbul", "budget": true}}},
		{"missing date", statex.ToolCall{ID: "6", Name: ToolSearchFlights, Arguments: map[string]any{"departure": "IST", "arrival": "CDG"}}},
		{"bad date", statex.ToolCall{ID: "7", Name: ToolSearchFlights, Arguments: map[string]any{"departure": "IST", "arrival": "CDG", "outbound_date": "2026-02-30"}}},
		{"return before outbound", statex.ToolCall{ID: "8", Name: ToolSearchFlights, Arguments: map[string]any{"departure": "IST", "arrival": "CDG", "outbound_date": "2026-12-10", "return_date": "2026-12-01"}}},
		{"unparsable json", statex.ToolCall{ID: "9", Name: ToolGetWeather, ParseError: "unexpected end of JSON input"}},
	}

	for _, tc := range cases {
		reg, w, h, f := newTestRegistry()
		res := reg.Dispatch(context.Background(), tc.call)
		if !res.Failed() {
			t.Fatalf("%s: expected failure", tc.name)
		}
		if !strings.HasPrefix(res.Err, "Geçersiz argümanlar") {
			t.Fatalf("%s: unexpected error text %q", tc.name, res.Err)
		}
		if len(w.calls)+len(h.calls)+len(f.calls) != 0 {
			t.Fatalf("%s: invalid call reached a provider", tc.name)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	t.Parallel()

	reg, _, _, _ := newTestRegistry()
	res := reg.Dispatch(context.Background(), statex.ToolCall{ID: "x", Name: "book_taxi"})
	if !res.Failed() || res.Err != "Bilinmeyen araç: book_taxi" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDispatchCoercesAndDecodes(t *testing.T) {
	t.Parallel()

	reg, _, h, f := newTestRegistry()

	res := reg.Dispatch(context.Background(), statex.ToolCall{ID: "h", Name: ToolSearchHotels, Arguments: map[string]any{
		"location":    "İstanbul",
		"budget":      "2000",
		"star_rating": nil,
		"extra":       "ignored",
	}})
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if diff := cmp.Diff([]provider.HotelQuery{{Location: "İstanbul", Budget: 2000}}, h.calls); diff != "" {
		t.Fatalf("hotel query mismatch (-want +got):\n%s", diff)
	}

	res = reg.Dispatch(context.Background(), statex.ToolCall{ID: "f", Name: ToolSearchFlights, Arguments: map[string]any{
		"departure":     "IST",
		"arrival":       "CDG",
		"outbound_date": "2026-12-01",
		"return_date":   "",
	}})
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	want := []provider.FlightQuery{{Departure: "IST", Arrival: "CDG", OutboundDate: "2026-12-01", Adults: 1}}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Fatalf("flight query mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	t.Parallel()

	reg, w, _, _ := newTestRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := reg.Dispatch(ctx, statex.ToolCall{ID: "c", Name: ToolGetWeather, Arguments: map[string]any{"city": "Ankara"}})
	if !res.Failed() || res.Kind != provider.KindWeather {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(w.calls) != 0 {
		t.Fatal("cancelled dispatch reached the provider")
	}
}
