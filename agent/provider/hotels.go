package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	maxHotels          = 5
	maxHotelAmenities  = 5
	hotelCheckInOffset = 30
)

// HotelClient searches the google_hotels engine.
type HotelClient struct {
	serp serpClient
}

func NewHotelClient(cfg Config, opts ...Option) *HotelClient {
	return &HotelClient{serp: newSerpClient("hotels", cfg, opts...)}
}

type serpHotels struct {
	Currency       string          `json:"currency"`
	CurrencySymbol string          `json:"currency_symbol"`
	Properties     []serpProperty `json:"properties"`
}

type serpProperty struct {
	Name           *string  `json:"name"`
	Type           *string  `json:"type"`
	OverallRating  *float64 `json:"overall_rating"`
	Reviews        *int     `json:"reviews"`
	HotelClass     any      `json:"hotel_class"`
	Description    *string  `json:"description"`
	GPSCoordinates *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"gps_coordinates"`
	RatePerNight *serpRate `json:"rate_per_night"`
	TotalRate    *serpRate `json:"total_rate"`
	Amenities    []string  `json:"amenities"`
}

type serpRate struct {
	Lowest *string `json:"lowest"`
}

// Search looks up a one-night stay for two adults thirty days from today.
func (c *HotelClient) Search(ctx context.Context, q HotelQuery) Result {
	checkIn := c.serp.up.now().In(c.serp.up.loc).AddDate(0, 0, hotelCheckInOffset)
	checkOut := checkIn.AddDate(0, 0, 1)

	params := url.Values{
		"q":              {q.Location},
		"check_in_date":  {checkIn.Format("2006-01-02")},
		"check_out_date": {checkOut.Format("2006-01-02")},
		"adults":         {"2"},
	}
	if q.Budget > 0 {
		params.Set("max_price", strconv.Itoa(q.Budget))
	}
	if q.StarRating >= 2 && q.StarRating <= 5 {
		params.Set("hotel_class", strconv.Itoa(q.StarRating))
	}

	var body serpHotels
	if err := c.serp.search(ctx, "google_hotels", params, &body); err != nil {
		if isMalformed(err) {
			return Failure(KindHotels, fmt.Sprintf("Otel verisi işlenemedi: %v", err))
		}
		return Failure(KindHotels, fmt.Sprintf("Otel arama başarısız: %v", err))
	}

	out := &HotelSearch{
		Location:       q.Location,
		Budget:         optionalInt(q.Budget),
		StarRating:     optionalInt(q.StarRating),
		Currency:       firstNonEmpty(body.Currency, "TRY"),
		CurrencySymbol: firstNonEmpty(body.CurrencySymbol, "₺"),
		Hotels:         make([]Hotel, 0, min(len(body.Properties), maxHotels)),
	}
	for _, p := range body.Properties {
		if len(out.Hotels) == maxHotels {
			break
		}
		out.Hotels = append(out.Hotels, toHotel(p))
	}
	return HotelResult(out)
}

func toHotel(p serpProperty) Hotel {
	h := Hotel{
		Name:          p.Name,
		Type:          p.Type,
		OverallRating: p.OverallRating,
		Reviews:       p.Reviews,
		HotelClass:    p.HotelClass,
		Description:   p.Description,
	}
	if gps := p.GPSCoordinates; gps != nil {
		h.Latitude = gps.Latitude
		h.Longitude = gps.Longitude
	}
	switch {
	case p.RatePerNight != nil:
		h.RatePerNight = p.RatePerNight.Lowest
	case p.TotalRate != nil:
		h.TotalRate = p.TotalRate.Lowest
	}
	if len(p.Amenities) > 0 {
		h.Amenities = p.Amenities[:min(len(p.Amenities), maxHotelAmenities)]
	}
	return h
}

func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
