// Package broker implements the Angel One SmartAPI HTTP client used for the
// scrip master download, batched market quotes and index spot lookups.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	apperrors "angel-options/internal/errors"
	"angel-options/internal/logging"
	"angel-options/internal/master"
	"angel-options/internal/models"
	"angel-options/pkg/utils"
)

const (
	// DefaultBaseURL is the SmartAPI REST root.
	DefaultBaseURL = "https://apiconnect.angelbroking.com/rest"
	// DefaultMasterURL serves the full scrip master as one JSON array.
	DefaultMasterURL = "https://margincalculator.angelone.in/OpenAPI_File/files/OpenAPIScripMaster.json"

	quotePath = "/secure/angelbroking/market/v1/quote/"
)

// Config holds client configuration.
type Config struct {
	BaseURL   string
	MasterURL string
	Session   Session
	// QuoteTimeout bounds each quote call; worst-case cycle latency is a
	// multiple of this.
	QuoteTimeout time.Duration
	// MasterTimeout bounds the (large) scrip master download.
	MasterTimeout time.Duration
	Logger        zerolog.Logger
}

// Client is the SmartAPI HTTP client.
type Client struct {
	baseURL      string
	masterURL    string
	session      Session
	quoteClient  *http.Client
	masterClient *http.Client
	logger       zerolog.Logger
}

// New creates a SmartAPI client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MasterURL == "" {
		cfg.MasterURL = DefaultMasterURL
	}
	if cfg.QuoteTimeout == 0 {
		cfg.QuoteTimeout = 5 * time.Second
	}
	if cfg.MasterTimeout == 0 {
		cfg.MasterTimeout = 90 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		masterURL:    cfg.MasterURL,
		session:      cfg.Session,
		quoteClient:  &http.Client{Timeout: cfg.QuoteTimeout},
		masterClient: &http.Client{Timeout: cfg.MasterTimeout},
		logger:       cfg.Logger,
	}
}

// IsAuthenticated reports whether the client carries a usable session.
func (c *Client) IsAuthenticated() bool {
	return c.session.IsAuthenticated()
}

// quoteRequest is the market quote request body.
type quoteRequest struct {
	Mode           models.QuoteMode            `json:"mode"`
	ExchangeTokens map[models.Segment][]string `json:"exchangeTokens"`
}

// quoteResponse is the market quote response envelope.
type quoteResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Fetched []models.QuoteEntry `json:"fetched"`
	} `json:"data"`
}

// MarketQuotes issues one quote call for up to an API-limit's worth of tokens
// on a single exchange segment. Chunking across calls is the fetcher's job.
// A false status or malformed body is a fetch failure for this call.
func (c *Client) MarketQuotes(ctx context.Context, mode models.QuoteMode, segment models.Segment, tokens []string) ([]models.QuoteEntry, error) {
	if !c.IsAuthenticated() {
		return nil, apperrors.ErrNotAuthenticated
	}

	url := c.baseURL + quotePath
	body, err := json.Marshal(quoteRequest{
		Mode:           mode,
		ExchangeTokens: map[models.Segment][]string{segment: tokens},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding quote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building quote request: %w", err)
	}
	for k, v := range c.session.Headers() {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.quoteClient.Do(req)
	if err != nil {
		return nil, apperrors.NewDownloadError(url, err)
	}
	defer resp.Body.Close()

	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.NewParseError(url, err)
	}
	if !decoded.Status {
		return nil, apperrors.NewDownloadError(url, fmt.Errorf("quote request rejected: %s", decoded.Message))
	}

	c.logger.Debug().
		Str("segment", string(segment)).
		Int("tokens", len(tokens)).
		Int("fetched", len(decoded.Data.Fetched)).
		Dur("duration", time.Since(start)).
		Msg("Quote call completed")
	return decoded.Data.Fetched, nil
}

// FetchScripMaster downloads the full unfiltered scrip master. The download
// is retried with backoff; the file is large and the endpoint flaky enough
// that one attempt is not a fair trial.
func (c *Client) FetchScripMaster(ctx context.Context) ([]master.ScripRecord, error) {
	return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() ([]master.ScripRecord, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.masterURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building master request: %w", err)
		}

		start := time.Now()
		resp, err := c.masterClient.Do(req)
		logging.LogAPICall(c.logger, http.MethodGet, c.masterURL, time.Since(start), err)
		if err != nil {
			return nil, apperrors.NewDownloadError(c.masterURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.NewDownloadError(c.masterURL, fmt.Errorf("status %d", resp.StatusCode))
		}

		var records []master.ScripRecord
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return nil, apperrors.NewParseError(c.masterURL, err)
		}

		c.logger.Info().
			Int("records", len(records)).
			Dur("duration", time.Since(start)).
			Msg("Scrip master downloaded")
		return records, nil
	})
}

// Compile-time interface checks against the consumer-side seams.
var _ master.Source = (*Client)(nil)
