package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ServiceConfig locates one remote analysis service.
type ServiceConfig struct {
	BaseURL string
	Token   string
}

// Client talks to a job-based analysis service.
type Client interface {
	Kind() Kind
	// Configured returns an ErrConfig-wrapped error when the service cannot be reached at all.
	Configured() error
	Start(ctx context.Context, imageDataURL string) (*StartResponse, error)
	Poll(ctx context.Context, jobID string) (*PollResponse, error)
	DownloadReport(ctx context.Context, jobID string) (*ReportFile, error)
}

type SaveImageRequest struct {
	ImageData string `json:"image_data"`
}

type StartResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	// Result holds the whole response body when the service answered with the analysis itself
	// instead of a job to poll.
	Result json.RawMessage `json:"-"`
}

// Inline reports whether the upload already carried the finished analysis.
func (r *StartResponse) Inline() bool {
	return hasPayload(r.Result)
}

// PollResponse is one progress report. Every field except Status may be absent.
type PollResponse struct {
	Status    string          `json:"status"`
	Stage     *string         `json:"stage,omitempty"`
	Progress  *float64        `json:"progress,omitempty"`
	Message   *string         `json:"message,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// HasResult reports whether the response carries a non-null result payload.
func (r *PollResponse) HasResult() bool {
	return hasPayload(r.Result)
}

type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type httpClient struct {
	kind       Kind
	config     ServiceConfig
	httpClient *http.Client
}

// NewClient returns an HTTP client for the analysis service of the given kind.
func NewClient(kind Kind, cfg ServiceConfig, hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &httpClient{kind: kind, config: cfg, httpClient: hc}
}

func (c *httpClient) Kind() Kind { return c.kind }

func (c *httpClient) Configured() error {
	if c.config.BaseURL == "" {
		return fmt.Errorf("%w: %s analysis base URL not configured", ErrConfig, c.kind)
	}
	if c.config.Token == "" {
		return fmt.Errorf("%w: %s analysis token not configured", ErrConfig, c.kind)
	}
	return nil
}

// Start uploads an image data URL and returns the job the service queued for it.
func (c *httpClient) Start(ctx context.Context, imageDataURL string) (*StartResponse, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(SaveImageRequest{ImageData: imageDataURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/save-image", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrUpload, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = resp.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrUpload, text)
	}

	var result StartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrProtocol, err)
	}
	if result.JobID == "" {
		var inline struct {
			ModelID  Text            `json:"model_id"`
			Analysis json.RawMessage `json:"analysis"`
		}
		if json.Unmarshal(body, &inline) == nil && hasPayload(inline.Analysis) {
			result.JobID = inline.ModelID.String()
			result.Status = StatusCompleted
			result.Result = append(json.RawMessage(nil), body...)
			return &result, nil
		}
		return nil, fmt.Errorf("%w: missing job identifier", ErrProtocol)
	}

	return &result, nil
}

// Poll fetches the current progress of jobID.
func (c *httpClient) Poll(ctx context.Context, jobID string) (*PollResponse, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/progress/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPoll, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrPoll, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrPoll, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result PollResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrPoll, err)
	}

	return &result, nil
}

// DownloadReport fetches the rendered report of a finished job.
func (c *httpClient) DownloadReport(ctx context.Context, jobID string) (*ReportFile, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/report/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrReportUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("report download failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	return &ReportFile{
		Filename:    ParseContentDisposition(resp.Header.Get("Content-Disposition"), jobID),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (c *httpClient) authorize(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
}

func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
