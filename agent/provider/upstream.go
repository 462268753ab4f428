package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tanpawarit/travelai/pkg/metrics"
)

var (
	// ErrUpstream covers transport failures, timeouts and non-2xx responses.
	ErrUpstream = errors.New("upstream request failed")
	// ErrMalformed covers bodies that cannot be decoded or lack required fields.
	ErrMalformed = errors.New("upstream payload malformed")
)

const maxResponseSizeBytes = 4 << 20

// Option customizes an upstream client.
type Option func(*upstream)

func WithHTTPClient(client *http.Client) Option {
	return func(u *upstream) {
		if client != nil {
			u.httpClient = client
		}
	}
}

func WithLimiter(l *rate.Limiter) Option {
	return func(u *upstream) {
		if l != nil {
			u.limiter = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *upstream) {
		if now != nil {
			u.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(u *upstream) {
		if loc != nil {
			u.loc = loc
		}
	}
}

type upstream struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	now        func() time.Time
	loc        *time.Location
}

func newUpstream(name, baseURL string, cfg Config, opts ...Option) *upstream {
	u := &upstream{
		name:       name,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		timeout:    cfg.Timeout,
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// getJSON issues a bounded GET and decodes the body into out.
func (u *upstream) getJSON(ctx context.Context, path string, query url.Values, out any) (err error) {
	started := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrMalformed):
			outcome = "malformed"
		case err != nil:
			outcome = "error"
		}
		metrics.ObserveProvider(u.name, outcome, time.Since(started))
	}()

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrUpstream, err)
	}

	endpoint := u.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, scrubKeys(err.Error(), query))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d %s", ErrUpstream, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// scrubKeys keeps API keys out of error strings that are fed back to the model.
func scrubKeys(msg string, query url.Values) string {
	for _, k := range []string{"appid", "api_key"} {
		if v := query.Get(k); v != "" {
			msg = strings.ReplaceAll(msg, url.QueryEscape(v), "***")
			msg = strings.ReplaceAll(msg, v, "***")
		}
	}
	return msg
}
