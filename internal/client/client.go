// Package client talks to the Blockfrost indexing API on behalf of the harvester.
// Credentials are injected here; nothing above this package sees them.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/metaharvest/internal/config"
	"github.com/manifest-network/metaharvest/internal/metrics"
	"github.com/manifest-network/metaharvest/internal/models"
)

const credentialHeader = "project_id"

// DefaultBaseURLs are the public indexer endpoints per network.
var DefaultBaseURLs = map[models.Network]string{
	models.Mainnet: "https://cardano-mainnet.blockfrost.io/api/v0",
	models.Preprod: "https://cardano-preprod.blockfrost.io/api/v0",
	models.Preview: "https://cardano-preview.blockfrost.io/api/v0",
}

// ExplorerURL returns the cardanoscan page of a transaction.
func ExplorerURL(network models.Network, hash string) string {
	switch network {
	case models.Preprod, models.Preview:
		return fmt.Sprintf("https://%s.cardanoscan.io/transaction/%s", network, hash)
	default:
		return "https://cardanoscan.io/transaction/" + hash
	}
}

// Fetcher resolves an API path against a network and decodes the JSON body into out.
type Fetcher interface {
	FetchJSON(ctx context.Context, network models.Network, path string, out any) error
}

// Source binds a Fetcher to the single network a query targets.
type Source struct {
	Fetcher Fetcher
	Network models.Network
}

// Get fetches path from the bound network.
func (s Source) Get(ctx context.Context, path string, out any) error {
	return s.Fetcher.FetchJSON(ctx, s.Network, path, out)
}

// Client is the resty-backed Fetcher.
type Client struct {
	http     *resty.Client
	keys     map[models.Network]string
	baseURLs map[models.Network]string
}

// NewClient builds a Client from configuration. Missing keys are reported
// per request, so a client can serve the networks it has keys for.
func NewClient(cfg config.ClientConfig) *Client {
	baseURLs := make(map[models.Network]string, len(DefaultBaseURLs))
	for network, url := range DefaultBaseURLs {
		baseURLs[network] = url
	}
	for network, url := range cfg.BaseURLs {
		baseURLs[network] = strings.TrimRight(url, "/")
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(int(cfg.MaxRetries)).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: httpClient, keys: cfg.Keys, baseURLs: baseURLs}
}

// FetchJSON implements Fetcher.
func (c *Client) FetchJSON(ctx context.Context, network models.Network, path string, out any) error {
	baseURL, ok := c.baseURLs[network]
	if !ok {
		return &ConfigurationError{Network: network, Reason: "invalid network"}
	}
	key := c.keys[network]
	if key == "" {
		return &ConfigurationError{Network: network, Reason: "missing project key"}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(credentialHeader, key).
		Get(baseURL + path)
	metrics.UpstreamLatency.WithLabelValues(string(network)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(string(network), "transport_error").Inc()
		return &TransportError{Path: path, Err: err}
	}
	if !resp.IsSuccess() {
		metrics.UpstreamRequests.WithLabelValues(string(network), "http_error").Inc()
		return &UpstreamError{Path: path, StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	metrics.UpstreamRequests.WithLabelValues(string(network), "ok").Inc()

	slog.Debug("Fetched", "network", network, "path", path, "status", resp.StatusCode())

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
