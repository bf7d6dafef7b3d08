// Package provider implements the remote scripture API client. The wire
// format follows the scripture.api.bible v1 surface: bible identifiers,
// a search endpoint returning verses and passages, and an api-key header.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/havenapps/selah/core/errors"
	"github.com/havenapps/selah/core/resolve"
	"github.com/havenapps/selah/internal/logging"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultBaseURL is the production scripture API endpoint.
	DefaultBaseURL = "https://api.scripture.api.bible/v1"

	serviceName    = "scripture_api"
	defaultTimeout = 10 * time.Second
	searchLimit    = 10
)

// Config configures a Client.
type Config struct {
	BaseURL string        // empty = DefaultBaseURL
	APIKey  string        // sent as the api-key header
	Timeout time.Duration // whole-request timeout; 0 = default
}

// Client is an HTTP client for the remote scripture API. It satisfies
// resolve.ScriptureProvider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a scripture API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "selah/1.0",
	}
}

// searchResponse is the envelope of GET /bibles/{id}/search.
type searchResponse struct {
	Data struct {
		Verses []struct {
			ID        string `json:"id"`
			Reference string `json:"reference"`
			Text      string `json:"text"`
		} `json:"verses"`
		Passages []struct {
			ID        string `json:"id"`
			Reference string `json:"reference"`
			Content   string `json:"content"`
			Copyright string `json:"copyright"`
		} `json:"passages"`
	} `json:"data"`
}

// biblesResponse is the envelope of GET /bibles.
type biblesResponse struct {
	Data []struct {
		ID           string `json:"id"`
		Abbreviation string `json:"abbreviation"`
		Name         string `json:"name"`
		Language     struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"data"`
}

// SearchByReference runs the search endpoint for a reference or phrase.
// Verse hits come back first, then passage hits.
func (c *Client) SearchByReference(ctx context.Context, bibleID, query string) ([]resolve.Candidate, error) {
	endpoint := fmt.Sprintf("%s/bibles/%s/search?query=%s&limit=%d",
		c.baseURL, url.PathEscape(bibleID), url.QueryEscape(query), searchLimit)

	var parsed searchResponse
	if err := c.getJSON(ctx, "search", endpoint, &parsed); err != nil {
		return nil, err
	}

	var candidates []resolve.Candidate
	for _, v := range parsed.Data.Verses {
		candidates = append(candidates, resolve.Candidate{
			ID:        v.ID,
			Reference: v.Reference,
			Content:   v.Text,
		})
	}
	for _, p := range parsed.Data.Passages {
		candidates = append(candidates, resolve.Candidate{
			ID:        p.ID,
			Reference: p.Reference,
			Content:   p.Content,
			Copyright: p.Copyright,
		})
	}
	return candidates, nil
}

// PassagesByQuery runs the search endpoint in passage mode. It is the
// secondary lookup used when the primary search yields nothing usable.
func (c *Client) PassagesByQuery(ctx context.Context, bibleID, query string) ([]resolve.Candidate, error) {
	endpoint := fmt.Sprintf("%s/bibles/%s/search?query=%s&limit=%d&sort=relevance",
		c.baseURL, url.PathEscape(bibleID), url.QueryEscape(query), searchLimit)

	var parsed searchResponse
	if err := c.getJSON(ctx, "passages", endpoint, &parsed); err != nil {
		return nil, err
	}

	var candidates []resolve.Candidate
	for _, p := range parsed.Data.Passages {
		candidates = append(candidates, resolve.Candidate{
			ID:        p.ID,
			Reference: p.Reference,
			Content:   p.Content,
			Copyright: p.Copyright,
		})
	}
	return candidates, nil
}

// ListTranslations lists the bibles available to the configured key.
func (c *Client) ListTranslations(ctx context.Context) ([]resolve.ProviderTranslation, error) {
	var parsed biblesResponse
	if err := c.getJSON(ctx, "list_translations", c.baseURL+"/bibles", &parsed); err != nil {
		return nil, err
	}

	translations := make([]resolve.ProviderTranslation, 0, len(parsed.Data))
	for _, b := range parsed.Data {
		translations = append(translations, resolve.ProviderTranslation{
			ID:           b.ID,
			Abbreviation: b.Abbreviation,
			Name:         b.Name,
			Language:     b.Language.Name,
		})
	}
	return translations, nil
}

// getJSON performs an authenticated GET and decodes the JSON body.
// Non-2xx statuses become upstream errors carrying the status code, so
// callers can distinguish auth failures from transient ones.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewUpstream(serviceName, operation, err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstream(serviceName, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		logging.ProviderError(operation,
			fmt.Errorf("unexpected status %d", resp.StatusCode), "endpoint", endpoint)
		return apperrors.NewUpstreamStatus(serviceName, operation, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstream(serviceName, operation, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewUpstream(serviceName, operation, err)
	}
	return nil
}
