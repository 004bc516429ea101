package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cache-fest/festival-registration/registration"
)

const (
	STRATEGY_JSON_POST = "json-post"
	STRATEGY_QUERY_GET = "query-get"

	DefaultQueryTimeout = 5 * time.Second
	defaultPostTimeout  = 10 * time.Second
)

// errRejected marks an answer from the endpoint that must not be retried with another strategy.
var errRejected = errors.New("webhook rejected the registration")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type strategy interface {
	name() string
	deliver(ctx context.Context, endpoint string, p payload) (registration.Delivery, error)
}

var _ registration.Submitter = &Client{}
var _ registration.DuplicateChecker = &Client{}

// Client delivers registrations to the spreadsheet webhook.
type Client struct {
	webhookURL   string
	checkURL     string
	httpClient   HTTPClient
	queryTimeout time.Duration
	order        []string
	strategies   []strategy
	logger       *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithQueryTimeout sets how long the query strategy waits before assuming delivery.
func WithQueryTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.queryTimeout = d
	}
}

// WithStrategies restricts delivery to the named strategies, tried in the given order.
func WithStrategies(names ...string) Option {
	return func(cl *Client) {
		cl.order = names
	}
}

// NewClient builds a client that tries a JSON POST first and falls back to a query GET when the
// POST cannot reach the endpoint. An empty webhookURL is allowed: Submit then reports a
// configuration error.
func NewClient(webhookURL, checkURL string, opts ...Option) *Client {
	c := &Client{
		webhookURL:   webhookURL,
		checkURL:     checkURL,
		httpClient:   &http.Client{},
		queryTimeout: DefaultQueryTimeout,
		order:        []string{STRATEGY_JSON_POST, STRATEGY_QUERY_GET},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, n := range c.order {
		switch n {
		case STRATEGY_JSON_POST:
			c.strategies = append(c.strategies, &jsonPost{client: c.httpClient})
		case STRATEGY_QUERY_GET:
			c.strategies = append(c.strategies, &queryGet{client: c.httpClient, timeout: c.queryTimeout})
		}
	}
	return c
}

func (c *Client) Submit(ctx context.Context, reg registration.Registration) (registration.Delivery, error) {
	if c.webhookURL == "" {
		return registration.Delivery{}, registration.NewConfigurationError("Registration endpoint is not configured")
	}

	p := newPayload(reg)
	var lastErr error
	for _, s := range c.strategies {
		delivery, err := s.deliver(ctx, c.webhookURL, p)
		if err == nil {
			return delivery, nil
		}
		if errors.Is(err, errRejected) || ctx.Err() != nil {
			return registration.Delivery{}, registration.NewNetworkError(err.Error(), err)
		}

		c.logger.WarnContext(ctx, "webhook delivery failed, trying next strategy",
			slog.String("strategy", s.name()),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}

	if lastErr == nil {
		return registration.Delivery{}, registration.NewConfigurationError("No delivery strategy is configured")
	}
	return registration.Delivery{}, registration.NewNetworkError("Failed to submit registration", lastErr)
}

type jsonPost struct {
	client HTTPClient
}

func (j *jsonPost) name() string { return STRATEGY_JSON_POST }

func (j *jsonPost) deliver(ctx context.Context, endpoint string, p payload) (registration.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultPostTimeout)
	defer cancel()

	body, err := json.Marshal(p)
	if err != nil {
		return registration.Delivery{}, fmt.Errorf("failed to encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return registration.Delivery{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return registration.Delivery{}, fmt.Errorf("failed to reach webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return registration.Delivery{}, fmt.Errorf("%w: status %d", errRejected, resp.StatusCode)
	}

	return registration.Delivery{
		Strategy:   STRATEGY_JSON_POST,
		Confirmed:  true,
		StatusCode: resp.StatusCode,
	}, nil
}

// queryGet flattens the registration into query parameters and fires a GET whose answer is not
// inspected. Any response, or no response within the timeout, counts as likely delivered.
type queryGet struct {
	client  HTTPClient
	timeout time.Duration
}

func (q *queryGet) name() string { return STRATEGY_QUERY_GET }

func (q *queryGet) deliver(ctx context.Context, endpoint string, p payload) (registration.Delivery, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return registration.Delivery{}, fmt.Errorf("invalid webhook url: %w", err)
	}
	query := u.Query()
	for k, vs := range p.values() {
		query[k] = vs
	}
	u.RawQuery = query.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return registration.Delivery{}, fmt.Errorf("failed to build request: %w", err)
	}

	unconfirmed := registration.Delivery{Strategy: STRATEGY_QUERY_GET, Confirmed: false}

	resp, err := q.client.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return unconfirmed, nil
		}
		return registration.Delivery{}, fmt.Errorf("failed to reach webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return unconfirmed, nil
}
