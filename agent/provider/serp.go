package provider

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// serpClient is the SerpAPI search.json endpoint shared by hotels and flights.
type serpClient struct {
	up             *upstream
	apiKey         string
	locale         string
	currency       string
	currencySymbol string
}

func newSerpClient(name string, cfg Config, opts ...Option) serpClient {
	cfg = cfg.withDefaults()
	return serpClient{
		up:             newUpstream(name, cfg.SerpBaseURL, cfg, opts...),
		apiKey:         strings.TrimSpace(cfg.SerpAPIKey),
		locale:         cfg.Locale,
		currency:       cfg.Currency,
		currencySymbol: cfg.CurrencySymbol,
	}
}

func (s serpClient) search(ctx context.Context, engine string, params url.Values, out any) error {
	params.Set("engine", engine)
	params.Set("currency", s.currency)
	params.Set("gl", s.locale)
	params.Set("hl", s.locale)
	params.Set("api_key", s.apiKey)
	return s.up.getJSON(ctx, "", params, out)
}

func isMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
