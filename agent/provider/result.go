package provider

import (
	"encoding/json"
)

// Kind tags which provider produced a Result.
type Kind string

const (
	KindWeather Kind = "weather"
	KindHotels  Kind = "hotels"
	KindFlights Kind = "flights"
)

// Result is the normalized outcome of one provider call. Exactly one of
// Weather, Hotels, Flights is set on success; Err is set on failure.
type Result struct {
	Kind    Kind
	Weather *WeatherReport
	Hotels  *HotelSearch
	Flights *FlightSearch
	Err     string
}

func WeatherResult(r *WeatherReport) Result { return Result{Kind: KindWeather, Weather: r} }
func HotelResult(r *HotelSearch) Result     { return Result{Kind: KindHotels, Hotels: r} }
func FlightResult(r *FlightSearch) Result   { return Result{Kind: KindFlights, Flights: r} }

// Failure builds an error result. Kind may be empty for calls that never reached a provider.
func Failure(kind Kind, msg string) Result {
	if msg == "" {
		msg = "unknown provider error"
	}
	return Result{Kind: kind, Err: msg}
}

// Failed reports whether the result carries an error indicator.
func (r Result) Failed() bool {
	if r.Err != "" {
		return true
	}
	switch r.Kind {
	case KindWeather:
		return r.Weather == nil
	case KindHotels:
		return r.Hotels == nil
	case KindFlights:
		return r.Flights == nil
	default:
		return true
	}
}

// Payload returns the success payload, or an {"error": ...} object on failure.
func (r Result) Payload() any {
	if r.Failed() {
		return map[string]string{"error": r.errText()}
	}
	switch r.Kind {
	case KindWeather:
		return r.Weather
	case KindHotels:
		return r.Hotels
	default:
		return r.Flights
	}
}

// Content is the text handed back to the language model: the raw error string on
// failure, the JSON payload otherwise.
func (r Result) Content() string {
	if r.Failed() {
		return r.errText()
	}
	raw, err := json.Marshal(r.Payload())
	if err != nil {
		return "tool result could not be encoded: " + err.Error()
	}
	return string(raw)
}

func (r Result) errText() string {
	if r.Err != "" {
		return r.Err
	}
	return "empty provider result"
}
