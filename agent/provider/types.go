package provider

// WeatherQuery is the validated input of get_weather.
type WeatherQuery struct {
	City string `mapstructure:"city"`
	Days int    `mapstructure:"days"`
}

// HotelQuery is the validated input of search_hotels. Zero means "not set".
type HotelQuery struct {
	Location   string `mapstructure:"location"`
	Budget     int    `mapstructure:"budget"`
	StarRating int    `mapstructure:"star_rating"`
}

// FlightQuery is the validated input of search_flights.
type FlightQuery struct {
	Departure    string `mapstructure:"departure"`
	Arrival      string `mapstructure:"arrival"`
	OutboundDate string `mapstructure:"outbound_date"`
	ReturnDate   string `mapstructure:"return_date"`
	Adults       int    `mapstructure:"adults"`
}

type WeatherReport struct {
	City      string     `json:"city"`
	Type      string     `json:"type"` // current | forecast
	Days      int        `json:"days,omitempty"`
	Forecasts []Forecast `json:"forecasts"`
}

type Forecast struct {
	Date          string `json:"date"`
	DayName       string `json:"day_name"`
	Temperature   int    `json:"temperature"`
	Description   string `json:"description"`
	DescriptionEN string `json:"description_en"`
	WeatherType   string `json:"weather_type"`
	FeelsLike     int    `json:"feels_like"`
	Humidity      int    `json:"humidity"`
	Icon          string `json:"icon"`
}

type HotelSearch struct {
	Location       string  `json:"location"`
	Budget         *int    `json:"budget"`
	StarRating     *int    `json:"star_rating"`
	Currency       string  `json:"currency"`
	CurrencySymbol string  `json:"currency_symbol"`
	Hotels         []Hotel `json:"hotels"`
}

type Hotel struct {
	Name          *string  `json:"name"`
	Type          *string  `json:"type"`
	OverallRating *float64 `json:"overall_rating"`
	Reviews       *int     `json:"reviews"`
	HotelClass    any      `json:"hotel_class"`
	Description   *string  `json:"description"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	RatePerNight  *string  `json:"rate_per_night,omitempty"`
	TotalRate     *string  `json:"total_rate,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
}

type FlightSearch struct {
	Departure        string         `json:"departure"`
	Arrival          string         `json:"arrival"`
	OutboundDate     string         `json:"outbound_date"`
	ReturnDate       *string        `json:"return_date"`
	Adults           int            `json:"adults"`
	Currency         string         `json:"currency"`
	CurrencySymbol   string         `json:"currency_symbol"`
	GoogleFlightsURL string         `json:"google_flights_url"`
	Flights          []FlightOption `json:"flights"`
}

type FlightOption struct {
	Price           *float64        `json:"price"`
	Type            *string         `json:"type"`
	AirlineLogo     *string         `json:"airline_logo"`
	TotalDuration   *int            `json:"total_duration"`
	CarbonEmissions *float64        `json:"carbon_emissions"`
	BookingURL      *string         `json:"booking_url"`
	Flights         []FlightSegment `json:"flights"`
}

type FlightSegment struct {
	DepartureAirport *string `json:"departure_airport"`
	DepartureCode    *string `json:"departure_code"`
	DepartureTime    *string `json:"departure_time"`
	ArrivalAirport   *string `json:"arrival_airport"`
	ArrivalCode      *string `json:"arrival_code"`
	ArrivalTime      *string `json:"arrival_time"`
	Duration         *int    `json:"duration"`
	Airplane         *string `json:"airplane"`
	Airline          *string `json:"airline"`
	AirlineLogo      *string `json:"airline_logo"`
	FlightNumber     *string `json:"flight_number"`
	TravelClass      *string `json:"travel_class"`
	Legroom          *string `json:"legroom"`
}
