// Package saucenao implements a client for the SauceNAO reverse image
// search API.
package saucenao

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wardenbot/warden/internal/config"
	apperrors "github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/resilience"
)

// ErrNoMatch reports a search that completed without any result at or
// above the configured similarity floor.
var ErrNoMatch = errors.New("no source found")

// maxImageBytes caps downloaded images at the Telegram bot API file limit.
const maxImageBytes = 20 << 20

// Client defines the interface for reverse image searches.
type Client interface {
	Enabled() bool
	Search(ctx context.Context, image []byte) (*Result, error)
	SearchByURL(ctx context.Context, imageURL string) (*Result, error)
}

// Result is the best match for a searched image.
type Result struct {
	Similarity float64
	URL        string
}

// StatusError reports a non-OK HTTP response from the search endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("saucenao returned HTTP %d", e.StatusCode)
}

type searchClient struct {
	cfg     config.SauceNAOConfig
	http    *http.Client
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	log     *slog.Logger
}

// NewClient creates a SauceNAO client. A client configured without an
// API key is disabled and refuses searches without touching the network.
func NewClient(cfg config.SauceNAOConfig, log *slog.Logger) Client {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With("component", "saucenao_client")

	retry := resilience.DefaultRetryConfig()
	retry.MaxInterval = 2 * time.Second
	retry.RetryIf = func(err error) bool {
		return apperrors.Code(err) == apperrors.CodeTransientNetwork
	}

	return &searchClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:        "saucenao",
			CallTimeout: cfg.Timeout,
		}, logger),
		retry: retry,
		log:   logger,
	}
}

func (c *searchClient) Enabled() bool {
	return c.cfg.APIKey != ""
}

// SearchByURL downloads the image at imageURL and searches for its source.
func (c *searchClient) SearchByURL(ctx context.Context, imageURL string) (*Result, error) {
	if !c.Enabled() {
		return nil, apperrors.NewAPIError("saucenao API key is not configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewTransientNetworkError("image download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAPIError(fmt.Sprintf("image download returned HTTP %d", resp.StatusCode), nil)
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, apperrors.NewTransientNetworkError("image download failed", err)
	}

	return c.Search(ctx, image)
}

// Search uploads the image and returns the best match at or above the
// similarity floor, or ErrNoMatch when nothing qualifies.
func (c *searchClient) Search(ctx context.Context, image []byte) (*Result, error) {
	if !c.Enabled() {
		return nil, apperrors.NewAPIError("saucenao API key is not configured", nil)
	}

	// Transient upload failures are retried with backoff; the breaker sits
	// inside the retry loop so an open circuit fails fast instead of
	// burning the remaining attempts.
	var best *Result
	search := func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			match, postErr := c.post(ctx, image)
			if postErr != nil {
				return postErr
			}
			best = match
			return nil
		})
	}
	if err := resilience.WithRetry(ctx, search, c.retry); err != nil {
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen):
			return nil, apperrors.NewTransientNetworkError("saucenao suspended after repeated failures", err)
		case errors.Is(err, resilience.ErrExhaustedRetries):
			return nil, apperrors.NewTransientNetworkError("saucenao kept failing after retries", err)
		}
		return nil, err
	}

	if best == nil || best.Similarity < c.cfg.MinSimilarity {
		return nil, ErrNoMatch
	}

	c.log.DebugContext(ctx, "Source found", "similarity", best.Similarity, "url", best.URL)
	return best, nil
}

type searchResult struct {
	Header struct {
		Similarity string `json:"similarity"`
	} `json:"header"`
	Data struct {
		ExtURLs []string `json:"ext_urls"`
	} `json:"data"`
}

func (r searchResult) similarity() float64 {
	value, err := strconv.ParseFloat(r.Header.Similarity, 64)
	if err != nil {
		return 0
	}
	return value
}

type searchResponse struct {
	Header struct {
		ResultsReturned json.Number `json:"results_returned"`
	} `json:"header"`
	Results []searchResult `json:"results"`
}

// post performs one search round trip. A nil result with a nil error
// means the search succeeded but returned nothing usable.
func (c *searchClient) post(ctx context.Context, image []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	query := url.Values{}
	query.Set("output_type", "2")
	query.Set("numres", "1")
	query.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"?"+query.Encode(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewTransientNetworkError("saucenao request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAPIError("saucenao search failed", &StatusError{StatusCode: resp.StatusCode})
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.NewAPIError("saucenao returned malformed JSON", err)
	}

	if returned, _ := decoded.Header.ResultsReturned.Int64(); returned == 0 {
		return nil, nil
	}

	var match *Result
	for _, result := range decoded.Results {
		if len(result.Data.ExtURLs) == 0 {
			continue
		}
		if match == nil || result.similarity() > match.Similarity {
			match = &Result{Similarity: result.similarity(), URL: result.Data.ExtURLs[0]}
		}
	}
	return match, nil
}
