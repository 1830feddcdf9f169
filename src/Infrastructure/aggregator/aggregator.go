// Package aggregator implements an HTTP client for the DEX aggregator quote
// endpoint.
//
// Notes:
//   - Only GET /quote is consumed. Responses are plain JSON objects, there is
//     no {result, success} envelope.
//   - Optional query parameters are sent only when the caller sets them, the
//     aggregator's own defaults for slippage and deadline apply otherwise.
//   - Non-2xx answers surface as *HTTPError so callers can tell them apart
//     from transport failures.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Errors
var (
	ErrTransport = errors.New("aggregator request failed")
	ErrDecode    = errors.New("aggregator response undecodable")
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultQuotePath = "/v4/quote"
)

// NewClient constructs a quote client for the aggregator at baseUrl.
func NewClient(baseUrl string, opts ...Option) (*Client, error) {
	if baseUrl == "" {
		return nil, errors.New("base url is required")
	}

	u, err := url.Parse(strings.TrimRight(baseUrl, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		BaseURL:   u,
		HTTP:      &http.Client{Timeout: DefaultTimeout},
		QuotePath: DefaultQuotePath,
		UserAgent: "megaswap/1.0",
		Logger:    log.Logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Option functional options
type Option func(*Client)

// WithTimeout sets the timeout on the current HTTP client, including one
// given earlier through WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.HTTP == nil {
			c.HTTP = &http.Client{}
		}
		c.HTTP.Timeout = d
	}
}

func WithSource(id string) Option          { return func(c *Client) { c.Source = id } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithQuotePath(p string) Option        { return func(c *Client) { c.QuotePath = p } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL   *url.URL
	HTTP      *http.Client
	Source    string
	QuotePath string
	UserAgent string
	Logger    zerolog.Logger
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.Body)
}

// QuoteParams mirrors the quote endpoint's query string. Nil pointers are
// omitted from the request.
type QuoteParams struct {
	From        string
	To          string
	Amount      string
	Sender      *string
	MaxSlippage *uint32 // basis points
	Deadline    *uint64 // seconds
	Destination *string
}

// QuoteResponse is the raw aggregator answer. Fields stay as the aggregator
// sent them; interpretation belongs to the caller.
type QuoteResponse struct {
	OutputFormatted *string           `json:"output_formatted"`
	Transaction     *QuoteTransaction `json:"transaction"`
	GasEstimate     json.Number       `json:"gas_estimate"`
	Routes          []json.RawMessage `json:"routes"`
}

type QuoteTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// GetQuote requests a quote for swapping params.Amount of params.From into
// params.To.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*QuoteResponse, error) {
	if params.From == "" || params.To == "" || params.Amount == "" {
		return nil, errors.New("from, to and amount are required")
	}

	result, err := doJSON[QuoteResponse](c, ctx, http.MethodGet, c.QuotePath, params.values(c.Source))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (p QuoteParams) values(source string) url.Values {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	q.Set("from", p.From)
	q.Set("to", p.To)
	q.Set("amount", p.Amount)
	if p.Sender != nil {
		q.Set("sender", *p.Sender)
	}
	if p.MaxSlippage != nil {
		q.Set("max_slippage", strconv.FormatUint(uint64(*p.MaxSlippage), 10))
	}
	if p.Deadline != nil {
		q.Set("deadline", strconv.FormatUint(*p.Deadline, 10))
	}
	if p.Destination != nil {
		q.Set("destination", *p.Destination)
	}
	return q
}

func (c *Client) do(
	ctx context.Context,
	method, p string,
	q url.Values,
	out any,
) error {
	u := *c.BaseURL
	u.Path = path.Join(u.Path, p)
	u.RawQuery = q.Encode()

	// --- Build request ---
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	// --- Execute request ---
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http do: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	// --- Logging response ---
	ev := c.Logger.Info()
	if len(b) <= 2048 && json.Valid(b) {
		ev = ev.RawJSON("response", b)
	} else {
		ev = ev.Bytes("response", truncate(b, 512))
	}
	ev.Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Str("duration", time.Since(start).String()).
		Msg("http response")

	// --- Status check ---
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(truncate(b, 512))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// doJSON decodes the response body into T
func doJSON[T any](
	c *Client,
	ctx context.Context,
	method, path string,
	query url.Values,
) (T, error) {
	var out T
	err := c.do(ctx, method, path, query, &out)
	return out, err
}

func truncate(b []byte, max int) []byte {
	if len(b) > max {
		return b[:max]
	}
	return b
}
