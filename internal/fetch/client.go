// Package fetch retrieves raw collection and play-history documents from
// the BoardGameGeek XML API 2 and stores them in the data directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/gameshelf/internal/logger"
	"github.com/mesh-intelligence/gameshelf/internal/metrics"
	"github.com/mesh-intelligence/gameshelf/internal/retry"
	"github.com/mesh-intelligence/gameshelf/internal/source"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Endpoints.
const (
	EndpointCollection = "collection"
	EndpointPlays      = "plays"
)

// maxBodyBytes caps a single response body.
const maxBodyBytes = 64 << 20

// maxPlayPages bounds the play-history walk for a service that never
// returns an empty page.
const maxPlayPages = 10000

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      retry.Options
	HTTPClient *http.Client
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

// Client talks to the catalog service.
type Client struct {
	baseURL string
	retry   retry.Options
	http    *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New builds a Client. A nil HTTPClient gets one with opts.Timeout.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	r := opts.Retry
	r.Classifier = isTransient

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		retry:   r,
		http:    hc,
		log:     log,
		metrics: opts.Metrics,
	}
}

// statusError is a non-200 response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	if e.code == http.StatusAccepted {
		return "request accepted but still processing"
	}
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

func isTransient(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code == http.StatusAccepted ||
		se.code == http.StatusTooManyRequests ||
		se.code >= 500
}

// Fetch performs GET {base}/{endpoint}?params and returns the body. A 202,
// 429 or 5xx response is retried with backoff up to the attempt cap; every
// other failure is returned at once. Errors wrap types.ErrFetch.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	opts := c.retry
	opts.OnRetry = func(attempt int, err error, wait time.Duration) {
		if c.metrics != nil {
			c.metrics.FetchRetries.Inc()
		}
		c.log.Warn("catalog request not ready, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("reason", err.Error()),
		)
	}

	var body []byte
	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
		b, err := c.get(ctx, endpoint, target)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, opts)
	if err != nil {
		return nil, types.NewStageError(types.StageFetch, endpoint, fmt.Errorf("%w: %w", types.ErrFetch, err))
	}

	c.log.Debug("catalog response received", zap.String("endpoint", endpoint), zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) get(ctx context.Context, endpoint, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		c.count(endpoint, "error")
		return nil, err
	}
	defer resp.Body.Close()
	c.count(endpoint, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}

func (c *Client) count(endpoint, status string) {
	if c.metrics != nil {
		c.metrics.FetchRequests.WithLabelValues(endpoint, status).Inc()
	}
}

// FetchCollection returns the user's owned-games document.
func (c *Client) FetchCollection(ctx context.Context, username string) ([]byte, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("own", "1")
	return c.Fetch(ctx, EndpointCollection, params)
}

// FetchPlays returns every page of the user's play history in page order.
// Paging stops once a page comes back empty or the plays seen so far cover
// the total the service reports. The service picks its own page size, so
// the walk never assumes one. An empty page that arrives before the stated
// total is covered is a parse failure: the history would be incomplete.
func (c *Client) FetchPlays(ctx context.Context, username string) ([][]byte, error) {
	var pages [][]byte
	seen := 0
	for page := 1; page <= maxPlayPages; page++ {
		params := url.Values{}
		params.Set("username", username)
		params.Set("page", strconv.Itoa(page))

		body, err := c.Fetch(ctx, EndpointPlays, params)
		if err != nil {
			return nil, err
		}
		where := fmt.Sprintf("%s page %d", EndpointPlays, page)
		parsed, err := source.ParsePlayPage(body)
		if err != nil {
			return nil, types.NewStageError(types.StageParse, where, err)
		}
		pages = append(pages, body)
		seen += len(parsed.Plays)

		c.log.Debug("play page fetched",
			zap.Int("page", page),
			zap.Int("plays", len(parsed.Plays)),
			zap.Int("total", parsed.Total),
		)

		if len(parsed.Plays) == 0 {
			if seen < parsed.Total {
				return nil, types.NewStageError(types.StageParse, where,
					fmt.Errorf("%w: play history ended after %d of %d plays", types.ErrParse, seen, parsed.Total))
			}
			return pages, nil
		}
		if parsed.Total > 0 && seen >= parsed.Total {
			return pages, nil
		}
	}
	return nil, types.NewStageError(types.StageFetch, EndpointPlays,
		fmt.Errorf("%w: more than %d pages of play history", types.ErrFetch, maxPlayPages))
}
