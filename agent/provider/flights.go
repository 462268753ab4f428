package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const maxFlights = 5

// FlightClient searches the google_flights engine.
type FlightClient struct {
	serp serpClient
}

func NewFlightClient(cfg Config, opts ...Option) *FlightClient {
	return &FlightClient{serp: newSerpClient("flights", cfg, opts...)}
}

type serpFlights struct {
	BestFlights  []serpFlightOption `json:"best_flights"`
	OtherFlights []serpFlightOption `json:"other_flights"`
}

type serpFlightOption struct {
	Price           *float64 `json:"price"`
	Type            *string  `json:"type"`
	AirlineLogo     *string  `json:"airline_logo"`
	TotalDuration   *int     `json:"total_duration"`
	CarbonEmissions *struct {
		ThisFlight *float64 `json:"this_flight"`
	} `json:"carbon_emissions"`
	Flights []serpSegment `json:"flights"`
}

type serpAirport struct {
	Name *string `json:"name"`
	ID   *string `json:"id"`
	Time *string `json:"time"`
}

type serpSegment struct {
	DepartureAirport *serpAirport `json:"departure_airport"`
	ArrivalAirport   *serpAirport `json:"arrival_airport"`
	Duration         *int         `json:"duration"`
	Airplane         *string      `json:"airplane"`
	Airline          *string      `json:"airline"`
	AirlineLogo      *string      `json:"airline_logo"`
	FlightNumber     *string      `json:"flight_number"`
	TravelClass      *string      `json:"travel_class"`
	Legroom          *string      `json:"legroom"`
}

// Search returns up to five options, best flights first. A return date makes
// the search round-trip.
func (c *FlightClient) Search(ctx context.Context, q FlightQuery) Result {
	departure := strings.ToUpper(strings.TrimSpace(q.Departure))
	arrival := strings.ToUpper(strings.TrimSpace(q.Arrival))
	adults := q.Adults
	if adults < 1 {
		adults = 1
	}

	params := url.Values{
		"departure_id":  {departure},
		"arrival_id":    {arrival},
		"outbound_date": {q.OutboundDate},
		"adults":        {strconv.Itoa(adults)},
		"type":          {"2"},
	}
	var returnDate *string
	if q.ReturnDate != "" {
		rd := q.ReturnDate
		returnDate = &rd
		params.Set("return_date", rd)
		params.Set("type", "1")
	}

	var body serpFlights
	if err := c.serp.search(ctx, "google_flights", params, &body); err != nil {
		if isMalformed(err) {
			return Failure(KindFlights, fmt.Sprintf("Uçuş verisi işlenemedi: %v", err))
		}
		return Failure(KindFlights, fmt.Sprintf("Uçuş arama başarısız: %v", err))
	}

	options := append(append([]serpFlightOption(nil), body.BestFlights...), body.OtherFlights...)
	flights := make([]FlightOption, 0, min(len(options), maxFlights))
	for _, opt := range options {
		if len(flights) == maxFlights {
			break
		}
		flights = append(flights, toFlightOption(opt))
	}

	return FlightResult(&FlightSearch{
		Departure:        departure,
		Arrival:          arrival,
		OutboundDate:     q.OutboundDate,
		ReturnDate:       returnDate,
		Adults:           adults,
		Currency:         c.serp.currency,
		CurrencySymbol:   c.serp.currencySymbol,
		GoogleFlightsURL: googleFlightsURL(departure, arrival, q.OutboundDate),
		Flights:          flights,
	})
}

func toFlightOption(opt serpFlightOption) FlightOption {
	out := FlightOption{
		Price:         opt.Price,
		Type:          opt.Type,
		AirlineLogo:   opt.AirlineLogo,
		TotalDuration: opt.TotalDuration,
		Flights:       make([]FlightSegment, 0, len(opt.Flights)),
	}
	if opt.CarbonEmissions != nil {
		out.CarbonEmissions = opt.CarbonEmissions.ThisFlight
	}
	for _, seg := range opt.Flights {
		s := FlightSegment{
			Duration:     seg.Duration,
			Airplane:     seg.Airplane,
			Airline:      seg.Airline,
			AirlineLogo:  seg.AirlineLogo,
			FlightNumber: seg.FlightNumber,
			TravelClass:  seg.TravelClass,
			Legroom:      seg.Legroom,
		}
		if a := seg.DepartureAirport; a != nil {
			s.DepartureAirport, s.DepartureCode, s.DepartureTime = a.Name, a.ID, a.Time
		}
		if a := seg.ArrivalAirport; a != nil {
			s.ArrivalAirport, s.ArrivalCode, s.ArrivalTime = a.Name, a.ID, a.Time
		}
		out.Flights = append(out.Flights, s)
	}
	return out
}

func googleFlightsURL(departure, arrival, date string) string {
	return fmt.Sprintf("https://www.google.com/travel/flights?q=%s%%20to%%20%s%%20%s", departure, arrival, date)
}
