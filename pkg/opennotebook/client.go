package opennotebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"notebook-widget-be/pkg/apperror"
)

// Client talks to the Open Notebook backend. The backend is treated as an
// opaque upstream: metadata responses are forwarded verbatim and the chat
// stream body is handed to the caller undecoded.
type Client struct {
	BaseURL    string
	NotebookID string
	Model      string
	APIKey     string

	// Metadata and session calls get a bounded client; the chat stream
	// client has no overall timeout because the wall-clock budget belongs
	// to the hosting request handler (ctx cancellation still applies).
	httpClient   *http.Client
	streamClient *http.Client
}

func NewClient(baseURL, notebookID, model, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		NotebookID: notebookID,
		Model:      model,
		APIKey:     apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		streamClient: &http.Client{},
	}
}

// --- Request/Response structs (internal to this package) ---

type createSessionRequest struct {
	NotebookID    string `json:"notebook_id"`
	Title         string `json:"title"`
	ModelOverride string `json:"model_override,omitempty"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type executeChatRequest struct {
	SessionID     string `json:"session_id"`
	Message       string `json:"message"`
	ModelOverride string `json:"model_override,omitempty"`
	Stream        bool   `json:"stream"`
}

// --- API calls ---

// CreateSession opens a new backend conversation session and returns its id.
func (c *Client) CreateSession(ctx context.Context, title string) (string, error) {
	if c.BaseURL == "" {
		return "", apperror.NewConfiguration("OPEN_NOTEBOOK_ENDPOINT")
	}

	reqPayload := createSessionRequest{
		NotebookID:    c.NotebookID,
		Title:         title,
		ModelOverride: c.Model,
	}
	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", c.BaseURL+"/api/sessions", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperror.NewUpstream(resp.StatusCode, string(bodyBytes))
	}

	var sessionResp createSessionResponse
	if err := json.Unmarshal(bodyBytes, &sessionResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if sessionResp.ID == "" {
		return "", apperror.NewUpstream(resp.StatusCode, "session response missing id")
	}

	return sessionResp.ID, nil
}

// ExecuteChat sends a user message to an existing backend session and returns
// the raw SSE response body. The caller owns the body and must close it;
// closing it is also how an abandoned request releases the connection.
func (c *Client) ExecuteChat(ctx context.Context, sessionID, message string) (io.ReadCloser, error) {
	if c.BaseURL == "" {
		return nil, apperror.NewConfiguration("OPEN_NOTEBOOK_ENDPOINT")
	}

	reqPayload := executeChatRequest{
		SessionID:     sessionID,
		Message:       message,
		ModelOverride: c.Model,
		Stream:        true,
	}
	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", c.BaseURL+"/api/chat/execute", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, apperror.MaxDetail))
		resp.Body.Close()
		return nil, apperror.NewUpstream(resp.StatusCode, string(bodyBytes))
	}

	return resp.Body, nil
}

// GetSource fetches source document metadata. The id may be a bare database
// key, a prefixed id, or a chunk-level id; it is normalized before lookup.
func (c *Client) GetSource(ctx context.Context, id string) ([]byte, error) {
	return c.getMetadata(ctx, "/api/sources/", NormalizeSourceID(id), "source")
}

// GetInsight fetches extracted-insight metadata.
func (c *Client) GetInsight(ctx context.Context, id string) ([]byte, error) {
	return c.getMetadata(ctx, "/api/insights/", NormalizeInsightID(id), "insight")
}

func (c *Client) getMetadata(ctx context.Context, path, prefixedID, resource string) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, apperror.NewConfiguration("OPEN_NOTEBOOK_ENDPOINT")
	}

	reqURL := c.BaseURL + path + url.PathEscape(prefixedID)
	req, err := c.newRequest(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.NewUpstream(0, err.Error())
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewUpstream(resp.StatusCode, err.Error())
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperror.NewNotFound(resource, prefixedID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.NewUpstream(resp.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}

func (c *Client) newRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	return req, nil
}
