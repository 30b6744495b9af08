// Package httpfetch provides the HTTP client used to retrieve film pages.
// It presents browser-like request headers, bounds response body size, and
// maps transport failures onto the engine's error taxonomy so the retry
// logic can classify them.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kinostat/kinofetch/pkg/engine"
	"github.com/kinostat/kinofetch/pkg/pagecache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for HTTP fetch operations.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinofetch_http_requests_total",
		Help: "HTTP requests by status code",
	}, []string{"status"})

	httpRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kinofetch_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	httpTransportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinofetch_http_transport_errors_total",
		Help: "Transport-level request failures by class",
	}, []string{"class"})
)

// maxBodySize bounds how much of a response body is read. Film detail pages
// are well under 1 MiB; anything larger is not a page we want.
const maxBodySize = 4 << 20

// Default timeouts for the HTTP client.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 45 * time.Second
	DefaultTotalTimeout   = 60 * time.Second
)

// Config holds the fetch client configuration.
type Config struct {
	// UserAgent sent with every request.
	UserAgent string

	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for response headers.
	ReadTimeout time.Duration

	// TotalTimeout bounds the whole request including body read.
	TotalTimeout time.Duration

	// MaxConcurrent sizes the connection pool. Should match the engine's
	// concurrency setting.
	MaxConcurrent int

	// Cache is consulted before network I/O when non-nil.
	Cache *pagecache.Manager

	// Logger for fetch events.
	Logger zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:      defaultUserAgent,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		TotalTimeout:   DefaultTotalTimeout,
		MaxConcurrent:  10,
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client fetches pages over HTTP. It implements engine.FetchClient.
type Client struct {
	httpClient *http.Client
	cache      *pagecache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a fetch client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = DefaultTotalTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("max_concurrent must be positive (got %d)", cfg.MaxConcurrent)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConns:          cfg.MaxConcurrent + 3,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.TotalTimeout,
		},
		cache:  cfg.Cache,
		config: cfg,
		logger: cfg.Logger.With().Str("component", "httpfetch").Logger(),
	}, nil
}

// Fetch retrieves the page at target. Cached pages are returned without
// network I/O. Timeouts are wrapped in engine.ErrTimeout and other transport
// failures in engine.ErrTransport so the retry loop can classify them.
func (c *Client) Fetch(ctx context.Context, target string) (*engine.Response, error) {
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, target)
		if err == nil {
			c.logger.Debug().
				Str("target", target).
				Dur("age", entry.Age()).
				Msg("Serving page from cache")
			return &engine.Response{StatusCode: entry.StatusCode, Body: entry.Body}, nil
		}
		if !errors.Is(err, pagecache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("target", target).Msg("Cache get error")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	httpRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, c.wrapTransportError(target, err)
	}
	defer resp.Body.Close()

	httpRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.wrapTransportError(target, err)
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		if err := c.cache.Put(ctx, target, body); err != nil {
			c.logger.Warn().Err(err).Str("target", target).Msg("Failed to cache page")
		}
	}

	return &engine.Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// setHeaders applies browser-like headers. The origin serves Russian content
// and rejects requests that look too mechanical.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	// Accept-Encoding is left to the transport so gzip bodies come back
	// transparently decoded.
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
}

// wrapTransportError maps a low-level error onto the engine's sentinels.
func (c *Client) wrapTransportError(target string, err error) error {
	var netErr net.Error
	isTimeout := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())

	if isTimeout {
		httpTransportErrorsTotal.WithLabelValues("timeout").Inc()
		c.logger.Warn().Err(err).Str("target", target).Msg("Request timed out")
		return fmt.Errorf("%w: %v", engine.ErrTimeout, err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	httpTransportErrorsTotal.WithLabelValues("transport").Inc()
	c.logger.Warn().Err(err).Str("target", target).Msg("Transport error")
	return fmt.Errorf("%w: %v", engine.ErrTransport, err)
}

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
