package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// WeatherClient talks to the OpenWeatherMap 2.5 API.
type WeatherClient struct {
	up     *upstream
	apiKey string
	lang   string
}

func NewWeatherClient(cfg Config, opts ...Option) *WeatherClient {
	cfg = cfg.withDefaults()
	return &WeatherClient{
		up:     newUpstream("weather", cfg.WeatherBaseURL, cfg, opts...),
		apiKey: strings.TrimSpace(cfg.WeatherAPIKey),
		lang:   cfg.Locale,
	}
}

type owmCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *int     `json:"humidity"`
}

type owmCurrent struct {
	Name    string         `json:"name"`
	Weather []owmCondition `json:"weather"`
	Main    *owmMain       `json:"main"`
}

type owmForecast struct {
	List []struct {
		Dt      int64          `json:"dt"`
		Main    *owmMain       `json:"main"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
	City *struct {
		Name string `json:"name"`
	} `json:"city"`
}

var errMissingField = errors.New("missing field")

// Forecast returns current conditions for days == 1 and a noon-time daily
// forecast otherwise. days is clamped into [1,5].
func (c *WeatherClient) Forecast(ctx context.Context, q WeatherQuery) Result {
	days := clampDays(q.Days)
	query := url.Values{
		"q":     {q.City},
		"appid": {c.apiKey},
		"units": {"metric"},
		"lang":  {c.lang},
	}

	if days == 1 {
		var body owmCurrent
		if err := c.up.getJSON(ctx, "/weather", query, &body); err != nil {
			return weatherFailure(err)
		}
		report, err := c.currentReport(body)
		if err != nil {
			return weatherFailure(err)
		}
		return WeatherResult(report)
	}

	var body owmForecast
	if err := c.up.getJSON(ctx, "/forecast", query, &body); err != nil {
		return weatherFailure(err)
	}
	report, err := c.forecastReport(body, days)
	if err != nil {
		return weatherFailure(err)
	}
	return WeatherResult(report)
}

func (c *WeatherClient) currentReport(body owmCurrent) (*WeatherReport, error) {
	if len(body.Weather) == 0 {
		return nil, fmt.Errorf("%w: weather", errMissingField)
	}
	f, err := buildForecast(body.Main, body.Weather[0])
	if err != nil {
		return nil, err
	}
	now := c.up.now().In(c.up.loc)
	f.Date = now.Format("02 January 2006")
	f.DayName = turkishDayName(now)

	return &WeatherReport{
		City:      body.Name,
		Type:      "current",
		Forecasts: []Forecast{f},
	}, nil
}

func (c *WeatherClient) forecastReport(body owmForecast, days int) (*WeatherReport, error) {
	if body.City == nil {
		return nil, fmt.Errorf("%w: city", errMissingField)
	}

	seen := make(map[string]bool, days)
	forecasts := make([]Forecast, 0, days)
	for _, item := range body.List {
		dt := unixIn(item.Dt, c.up.loc)
		key := dt.Format("2006-01-02")
		if seen[key] || dt.Hour() < 11 || dt.Hour() > 14 {
			continue
		}
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("%w: list.weather", errMissingField)
		}
		f, err := buildForecast(item.Main, item.Weather[0])
		if err != nil {
			return nil, err
		}
		f.Date = dt.Format("02 January")
		f.DayName = turkishDayName(dt)
		seen[key] = true
		forecasts = append(forecasts, f)
		if len(forecasts) == days {
			break
		}
	}

	return &WeatherReport{
		City:      body.City.Name,
		Type:      "forecast",
		Days:      days,
		Forecasts: forecasts,
	}, nil
}

func buildForecast(m *owmMain, cond owmCondition) (Forecast, error) {
	if m == nil || m.Temp == nil || m.FeelsLike == nil || m.Humidity == nil {
		return Forecast{}, fmt.Errorf("%w: main", errMissingField)
	}
	return Forecast{
		Temperature:   roundHalfEven(*m.Temp),
		Description:   translateWeather(cond.Description),
		DescriptionEN: cond.Description,
		WeatherType:   weatherType(cond.Description),
		FeelsLike:     roundHalfEven(*m.FeelsLike),
		Humidity:      *m.Humidity,
		Icon:          cond.Icon,
	}, nil
}

func weatherFailure(err error) Result {
	switch {
	case errors.Is(err, errMissingField):
		return Failure(KindWeather, fmt.Sprintf("Hava durumu verisi işlenemedi: %v", err))
	case errors.Is(err, ErrMalformed):
		return Failure(KindWeather, "Hava durumu verisi işlenemedi")
	default:
		return Failure(KindWeather, fmt.Sprintf("Hava durumu bilgisi alınamadı: %v", err))
	}
}

// roundHalfEven matches the rounding the client has always displayed.
func roundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}

func unixIn(sec int64, loc *time.Location) time.Time {
	return time.Unix(sec, 0).In(loc)
}
