package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 32 << 20

// Cache stores raw upstream response bodies keyed by request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Client calls the Open-Meteo HTTP APIs.
type Client struct {
	urls          BaseURLs
	hc            *http.Client
	log           *slog.Logger
	limiter       *rate.Limiter
	cache         Cache
	maxRetries    uint
	retryInterval time.Duration
	userAgent     string

	group singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for upstream requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRateLimit caps the upstream request rate. A non-positive rps disables
// limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithMaxRetries sets how many times a failed request is retried after the
// first attempt.
func WithMaxRetries(n uint) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryInterval sets the initial retry backoff.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithUserAgent sets the User-Agent header of upstream requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a Client for the given hosts.
func NewClient(urls BaseURLs, opts ...Option) *Client {
	c := &Client{
		urls:          urls,
		hc:            &http.Client{Timeout: 30 * time.Second},
		log:           slog.Default(),
		maxRetries:    2,
		retryInterval: 500 * time.Millisecond,
		userAgent:     "open-meteo-mcp-server/1.0.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET against the endpoint with the encoded params and
// returns the raw JSON body. Identical concurrent requests share one upstream
// call.
func (c *Client) Fetch(ctx context.Context, ep Endpoint, p Params) (json.RawMessage, error) {
	base, err := c.urls.lookup(ep.Host)
	if err != nil {
		return nil, err
	}
	q, err := EncodeQuery(p)
	if err != nil {
		return nil, err
	}
	encoded := q.Encode()
	key := ep.Name + "?" + encoded

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.WarnContext(ctx, "openmeteo.cache.get.fail", slog.String("endpoint", ep.Name), slog.String("err", err.Error()))
		} else if ok {
			c.log.DebugContext(ctx, "openmeteo.cache.hit", slog.String("endpoint", ep.Name))
			return body, nil
		}
	}

	// The shared call runs detached from ctx. Each caller waits on its own
	// context.
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := c.detach(ctx)
		defer cancel()

		body, err := c.fetchWithRetry(fctx, ep, base+ep.Path+"?"+encoded)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Set(fctx, key, body); err != nil {
				c.log.WarnContext(fctx, "openmeteo.cache.set.fail", slog.String("endpoint", ep.Name), slog.String("err", err.Error()))
			}
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

// detach returns a context that keeps ctx's values but not its cancellation.
// It is bounded by the HTTP timeout across every allowed attempt.
func (c *Client) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.hc.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.hc.Timeout*time.Duration(c.maxRetries+1))
}

func (c *Client) fetchWithRetry(ctx context.Context, ep Endpoint, u string) (json.RawMessage, error) {
	start := time.Now()
	attempt := 0

	op := func() (json.RawMessage, error) {
		attempt++
		return c.do(ctx, u)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryInterval

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.log.WarnContext(ctx, "openmeteo.request.retry",
				slog.String("endpoint", ep.Name),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", d),
				slog.String("err", err.Error()),
			)
		}),
	)
	if err != nil {
		c.log.ErrorContext(ctx, "openmeteo.request.fail",
			slog.String("endpoint", ep.Name),
			slog.Int("attempts", attempt),
			slog.Duration("dur", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	c.log.DebugContext(ctx, "openmeteo.request.ok",
		slog.String("endpoint", ep.Name),
		slog.Int("attempts", attempt),
		slog.Int("size", len(body)),
		slog.Duration("dur", time.Since(start)),
	)
	return body, nil
}

// do performs a single attempt. Errors that retrying cannot fix are wrapped
// with backoff.Permanent.
func (c *Client) do(ctx context.Context, u string) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, backoff.Permanent(ctxErr)
		}
		return nil, fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read open-meteo response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := newAPIError(res.StatusCode, body)
		if apiErr.Temporary() {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	if !json.Valid(body) {
		return nil, backoff.Permanent(errors.New("open-meteo returned a malformed JSON body"))
	}

	return json.RawMessage(body), nil
}
