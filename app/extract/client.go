package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vibetix/event-scraper/app/config"
	"github.com/vibetix/event-scraper/app/retry"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBackoffBase  = 1500 * time.Millisecond
)

// Client talks to the asynchronous content extraction service. It has
// no knowledge of event semantics beyond the wire schema: callers get
// back raw records and decide what they mean.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	userAgent    string
	jobTimeout   time.Duration
	pollInterval time.Duration
	backoffBase  time.Duration
}

func NewClient(httpClient *http.Client, baseURL, apiKey, userAgent string, jobTimeout time.Duration) *Client {
	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		userAgent:    userAgent,
		jobTimeout:   jobTimeout,
		pollInterval: defaultPollInterval,
		backoffBase:  defaultBackoffBase,
	}
}

// Configured reports whether an extraction service credential is
// present. Scrapes cannot be attempted without one.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Extract submits an extraction job for the given URLs and polls until
// it completes, fails, or timeout elapses.
func (c *Client) Extract(ctx context.Context, urls []string, prompt string, timeout time.Duration) ([]RawEvent, error) {
	jobID, err := c.startJob(ctx, urls, prompt)
	if err != nil {
		return nil, err
	}

	slog.Debug("Extraction job started", "job_id", jobID, "urls", len(urls))

	return c.pollJob(ctx, jobID, timeout)
}

func (c *Client) startJob(ctx context.Context, urls []string, prompt string) (string, error) {
	body := startJobRequest{
		URLs:   urls,
		Prompt: prompt,
		Schema: eventSchema,
	}

	var resp startJobResponse
	statusCode, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/extract", body, &resp)
	if err != nil {
		return "", err
	}
	if statusCode != http.StatusOK {
		return "", httpError("job start", statusCode, resp.Error)
	}
	if !resp.Success || resp.ID == "" {
		// A 200 with no job ID means the service did not understand
		// the request. Retrying the same payload will not help.
		return "", &Error{Op: "job start", Message: fmt.Sprintf("malformed job-start response: %s", resp.Error), Retryable: false}
	}

	return resp.ID, nil
}

func (c *Client) pollJob(ctx context.Context, jobID string, timeout time.Duration) ([]RawEvent, error) {
	deadline := time.Now().Add(timeout)

	for {
		if time.Now().After(deadline) {
			return nil, &Error{Op: "job poll", Message: fmt.Sprintf("job %s timed out after %s", jobID, timeout), Retryable: true}
		}

		var resp jobStatusResponse
		statusCode, err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/extract/"+jobID, nil, &resp)
		if err != nil {
			return nil, err
		}
		if statusCode != http.StatusOK {
			return nil, httpError("job poll", statusCode, resp.Error)
		}

		switch resp.Status {
		case "completed":
			return resp.Data.Events, nil
		case "failed":
			return nil, &Error{Op: "job poll", Message: fmt.Sprintf("job %s failed: %s", jobID, resp.Error), Retryable: false}
		case "pending", "processing":
		default:
			return nil, &Error{Op: "job poll", Message: fmt.Sprintf("job %s reported unknown status %q", jobID, resp.Status), Retryable: false}
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Scrape requests a raw markdown rendering of a single page. Used for
// platforms where structured extraction is unreliable; the caller runs
// the markdown parser over the result.
func (c *Client) Scrape(ctx context.Context, url string) (string, error) {
	body := scrapeRequest{
		URL:     url,
		Formats: []string{"markdown"},
	}

	var resp scrapeResponse
	statusCode, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/scrape", body, &resp)
	if err != nil {
		return "", err
	}
	if statusCode != http.StatusOK {
		return "", httpError("scrape", statusCode, resp.Error)
	}
	if resp.Data.Markdown == "" {
		return "", &Error{Op: "scrape", Message: "scrape returned no markdown", Retryable: true}
	}

	return resp.Data.Markdown, nil
}

// ExtractPlatformEvents runs one platform's extraction with bounded
// retries and exponential backoff, short-circuiting on non-retryable
// errors. Zero events is treated as a transient condition (sites
// change, extraction glitches) and retried like any other soft
// failure.
func (c *Client) ExtractPlatformEvents(ctx context.Context, platform config.Platform, maxRetries int) ([]RawEvent, error) {
	if !c.Configured() {
		return nil, &Error{Op: "extract", Message: "extraction API key is not configured", Retryable: false}
	}

	policy := retry.Policy{
		MaxAttempts: maxRetries,
		Backoff:     retry.Exponential(c.backoffBase),
		Retryable:   IsRetryable,
	}

	var events []RawEvent
	err := policy.Do(ctx, func() error {
		var attemptErr error
		events, attemptErr = c.extractOnce(ctx, platform, c.jobTimeout)
		if attemptErr != nil {
			slog.Warn("Platform extraction attempt failed", "platform", platform.ID, "error", attemptErr)
			return attemptErr
		}
		if len(events) == 0 {
			slog.Warn("Platform extraction returned no events", "platform", platform.ID)
			return &Error{Op: "extract", Message: "no events extracted", Retryable: true}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("platform %s extraction failed: %w", platform.ID, err)
	}

	return events, nil
}

func (c *Client) extractOnce(ctx context.Context, platform config.Platform, timeout time.Duration) ([]RawEvent, error) {
	if platform.ParsingStrategy == config.StrategyMarkdown {
		markdown, err := c.Scrape(ctx, platform.EventsURL())
		if err != nil {
			return nil, err
		}
		return ParseMarkdown(markdown, platform.BaseURL), nil
	}

	return c.Extract(ctx, []string{platform.EventsURL()}, platform.ExtractionPrompt, timeout)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			if resp.StatusCode == http.StatusOK {
				return resp.StatusCode, &Error{Op: "decode", Message: fmt.Sprintf("malformed response: %v", err), Retryable: false}
			}
			// Non-200 with an unparseable body still classifies by
			// status code alone.
		}
	}

	return resp.StatusCode, nil
}
