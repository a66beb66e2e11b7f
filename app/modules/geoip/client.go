package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fragstats/fragstatsd/internal/attr"
)

const (
	defaultEndpoint    = "http://ip-api.com/json"
	defaultHTTPTimeout = 5 * time.Second
	defaultRatePerSec  = 2.0

	// maxResponseBytes caps how much of a lookup response is read. The
	// payloads are tiny; anything larger is a misbehaving endpoint.
	maxResponseBytes = 64 << 10
)

// ClientConfig tunes the HTTP lookup client.
type ClientConfig struct {
	// Endpoint is the base URL; the IP is appended as a path segment.
	Endpoint string
	// Timeout bounds one lookup round trip.
	Timeout time.Duration
	// RequestsPerSecond throttles outbound lookups across all workers
	// sharing the client.
	RequestsPerSecond float64
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultHTTPTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRatePerSec
	}
	return c
}

// Client looks locations up over HTTP, rate limited so a burst of connects
// never hammers the endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a lookup client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     logger,
	}
}

// lookupResponse follows the ip-api.com wire shape; status "fail" means the
// endpoint had no answer for the address.
type lookupResponse struct {
	Status      string  `json:"status"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Lookup resolves one address. Returns ErrNotFound when the endpoint has no
// location for it.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.endpoint + "/" + url.PathEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup endpoint returned %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if body.Status == "fail" {
		c.logger.DebugContext(ctx, "Lookup endpoint had no location", attr.String("ip", ip))
		return nil, ErrNotFound
	}

	return &Location{
		City:        body.City,
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
	}, nil
}
