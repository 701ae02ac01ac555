package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftPlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the server lives elsewhere (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RemoteError is a non-2xx answer from the server. For engine errors
// (status 422) Kind, Lift and Field are filled from the error body.
type RemoteError struct {
	Path    string
	Status  int
	Message string
	Kind    string
	Lift    string
	Field   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(path, resp.StatusCode, data)
	}
	return data, nil
}

func remoteError(path string, status int, body []byte) *RemoteError {
	e := &RemoteError{Path: path, Status: status, Message: strings.TrimSpace(string(body))}
	var parsed struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
		Lift  string `json:"lift"`
		Field string `json:"field"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		e.Message, e.Kind, e.Lift, e.Field = parsed.Error, parsed.Kind, parsed.Lift, parsed.Field
	}
	return e
}

func (c *HTTPClient) Calculate(ctx context.Context, in engine.Input) (*engine.Output, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode input: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/v1/calculate", nil, payload)
	if err != nil {
		return nil, err
	}

	var out engine.Output
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode output: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) Patterns(ctx context.Context) (*engine.PatternTables, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/patterns", nil, nil)
	if err != nil {
		return nil, err
	}

	var tables engine.PatternTables
	if err := json.Unmarshal(body, &tables); err != nil {
		return nil, fmt.Errorf("httpclient: decode patterns: %w", err)
	}
	return &tables, nil
}

func (c *HTTPClient) ListPrograms(ctx context.Context, client string, limit int) ([]models.ProgramSummary, error) {
	params := url.Values{}
	if client != "" {
		params.Set("client", client)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.do(ctx, http.MethodGet, "/api/v1/programs", params, nil)
	if err != nil {
		return nil, err
	}

	var programs []models.ProgramSummary
	if err := json.Unmarshal(body, &programs); err != nil {
		return nil, fmt.Errorf("httpclient: decode programs: %w", err)
	}
	return programs, nil
}

func (c *HTTPClient) GetProgram(ctx context.Context, id uuid.UUID) (*models.ProgramRow, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/programs/"+id.String(), nil, nil)
	if err != nil {
		return nil, err
	}

	var program models.ProgramRow
	if err := json.Unmarshal(body, &program); err != nil {
		return nil, fmt.Errorf("httpclient: decode program: %w", err)
	}
	return &program, nil
}

func (c *HTTPClient) GetProgramStats(ctx context.Context) (*storage.ProgramStats, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, nil)
	if err != nil {
		return nil, err
	}

	var stats storage.ProgramStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}
