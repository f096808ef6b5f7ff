// Package planet provides a client for the Planet Data API and the filter
// tree model of its quick-search dialect.
package planet

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
)

// assetRetryAttempts bounds the retry loop around an asset listing fetch.
// Planet transiently returns empty or non-JSON bodies from that endpoint;
// the same GET is retried until a response decodes.
const assetRetryAttempts = 10

// UpstreamError is returned when Planet responds with a non-2xx status. The
// original status code is preserved so callers can propagate Planet's status
// semantics instead of masking them.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("planet API returned status %d: %s", e.StatusCode, e.Body)
}

// Client handles communication with the Planet Data API. Credentials are
// supplied per call rather than stored: the proxy serves many callers, each
// resolving to its own Auth. The client itself is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Planet Data API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// QuickSearch executes a quick-search request and returns the first result
// page. Query parameters carry the out-of-band _page_size and _sort values.
func (c *Client) QuickSearch(ctx context.Context, auth Auth, params url.Values, body *SearchRequest) (*SearchResponse, error) {
	searchURL := c.baseURL + "/quick-search"
	if len(params) > 0 {
		searchURL += "?" + params.Encode()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	c.logger.DebugContext(ctx, "executing Planet quick-search",
		slog.String("url", searchURL),
		slog.Any("item_types", body.ItemTypes),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result SearchResponse
	if err := c.do(ctx, req, auth, &result); err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "Planet quick-search completed",
		slog.Int("feature_count", len(result.Features)),
	)

	return &result, nil
}

// GetPage dereferences a continuation URL from a previous search response.
// The URL is fetched exactly as Planet issued it.
func (c *Client) GetPage(ctx context.Context, auth Auth, pageURL string) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result SearchResponse
	if err := c.do(ctx, req, auth, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetItem retrieves a single item by item type and ID.
func (c *Client) GetItem(ctx context.Context, auth Auth, itemType, itemID string) (*Feature, error) {
	itemURL := fmt.Sprintf("%s/item-types/%s/items/%s",
		c.baseURL, url.PathEscape(itemType), url.PathEscape(itemID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, itemURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result Feature
	if err := c.do(ctx, req, auth, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListItemTypes returns the IDs of all item types Planet currently serves.
func (c *Client) ListItemTypes(ctx context.Context, auth Auth) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/item-types", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result ItemTypesResponse
	if err := c.do(ctx, req, auth, &result); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.ItemTypes))
	for _, it := range result.ItemTypes {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

// GetAssetListing fetches an item's asset listing. Transport failures are
// returned immediately, but a body that fails to decode as JSON is retried
// up to assetRetryAttempts times; the decode error is propagated only once
// the budget is exhausted.
func (c *Client) GetAssetListing(ctx context.Context, auth Auth, assetsURL string) (AssetListing, error) {
	var lastErr error

	for attempt := 1; attempt <= assetRetryAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetsURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		var listing AssetListing
		err = c.do(ctx, req, auth, &listing)
		if err == nil {
			return listing, nil
		}
		if !isDecodeError(err) {
			return nil, err
		}

		c.logger.DebugContext(ctx, "asset listing did not decode, retrying",
			slog.String("url", assetsURL),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("asset listing failed after %d attempts: %w", assetRetryAttempts, lastErr)
}

// GetRaw fetches an arbitrary Planet URL and returns the raw body and its
// content type. Used to proxy binary thumbnails.
func (c *Client) GetRaw(ctx context.Context, auth Auth, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	auth.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("planet API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read planet response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// decodeError marks errors from JSON-decoding a 2xx response body, so the
// asset retry loop can tell them apart from transport and status failures.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// do executes the request with auth applied, enforces 2xx, and decodes the
// JSON body into out.
func (c *Client) do(ctx context.Context, req *http.Request, auth Auth, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "planet-stac-proxy/1.0")
	auth.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "planet API request failed",
			slog.String("error", err.Error()),
			slog.String("url", req.URL.String()),
		)
		return fmt.Errorf("planet API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read planet response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.ErrorContext(ctx, "planet API returned non-2xx status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("url", req.URL.String()),
		)
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &decodeError{err: fmt.Errorf("failed to decode planet response: %w", err)}
	}

	return nil
}
