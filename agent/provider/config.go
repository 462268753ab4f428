package provider

import "time"

// Config is read without prefix so the original variable names keep working.
type Config struct {
	WeatherAPIKey  string        `envconfig:"WEATHER_API_KEY" required:"true"`
	WeatherBaseURL string        `envconfig:"WEATHER_BASE_URL" default:"http://api.openweathermap.org/data/2.5"`
	SerpAPIKey     string        `envconfig:"SERP_API_KEY" required:"true"`
	SerpBaseURL    string        `envconfig:"SERP_BASE_URL" default:"https://serpapi.com/search.json"`
	Timeout        time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	RatePerSecond  float64       `envconfig:"PROVIDER_RATE_PER_SECOND" default:"5"`
	RateBurst      int           `envconfig:"PROVIDER_RATE_BURST" default:"5"`
	Currency       string        `envconfig:"PROVIDER_CURRENCY" default:"TRY"`
	CurrencySymbol string        `envconfig:"PROVIDER_CURRENCY_SYMBOL" default:"₺"`
	Locale         string        `envconfig:"PROVIDER_LOCALE" default:"tr"`
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 5
	}
	if c.Currency == "" {
		c.Currency = "TRY"
	}
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = "₺"
	}
	if c.Locale == "" {
		c.Locale = "tr"
	}
	return c
}
