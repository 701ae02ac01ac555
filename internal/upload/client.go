package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/intake"
	"github.com/claude/liftplan/internal/models"
)

// Client sends programs to the LiftPlan server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	retryDelay time.Duration
}

// NewClient creates a new HTTP client for the LiftPlan server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryDelay: time.Second,
	}
}

// RejectedError is a 4xx answer. The server will give the same answer
// again, so these are not retried.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected (status %d): %s", e.Status, e.Body)
}

// PostProgram stores a program document with source "upload".
func (c *Client) PostProgram(ctx context.Context, req intake.Request) (*models.ProgramRow, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	params := url.Values{"source": {models.SourceUpload}}
	return c.send(ctx, "/api/v1/programs", params, "application/json", data)
}

// ImportCSV stores a program from a CSV sheet.
func (c *Client) ImportCSV(ctx context.Context, client, block string, csv []byte) (*models.ProgramRow, error) {
	params := url.Values{"client": {client}, "source": {models.SourceUpload}}
	if block != "" {
		params.Set("block", block)
	}
	return c.send(ctx, "/api/v1/programs/import", params, "text/csv", csv)
}

// send POSTs data and decodes the stored program.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) send(ctx context.Context, path string, params url.Values, contentType string, data []byte) (*models.ProgramRow, error) {
	u := c.serverURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay << uint(attempt-1)):
			}
		}

		row, err := c.post(ctx, u, contentType, data)
		if err == nil {
			return row, nil
		}
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) post(ctx context.Context, u, contentType string, data []byte) (*models.ProgramRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &RejectedError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	default:
		return nil, fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, body)
	}

	var row models.ProgramRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return &row, nil
}
