package transcribe

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

	"tactile/internal/polling"
	"tactile/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Service is the asynchronous transcription interface the pipeline consumes.
type Service interface {
	Submit(ctx context.Context, jobName, mediaURI string) (string, error)
	GetStatus(ctx context.Context, jobID string) (polling.Status, string, error)
	FetchTranscript(ctx context.Context, jobID string) (string, error)
	Delete(ctx context.Context, jobID string) error
}

// Config captures the runtime settings required to talk to the transcription
// service.
type Config struct {
	BaseURL        string
	APIKey         string
	LanguageCode   string
	MediaFormat    string
	TimeoutSeconds int
}

// Client wraps an S3-transcription style HTTP API: jobs are submitted by
// name, polled for status, and deliver their transcript through a separate
// document URI.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			LanguageCode:   strings.TrimSpace(cfg.LanguageCode),
			MediaFormat:    strings.TrimSpace(cfg.MediaFormat),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.LanguageCode == "" {
		client.cfg.LanguageCode = "en-US"
	}
	if client.cfg.MediaFormat == "" {
		client.cfg.MediaFormat = "wav"
	}
	return client
}

type jobEnvelope struct {
	Job jobDocument `json:"job"`
	// Some deployments return the job document at the top level.
	Name          string `json:"name"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
	TranscriptURI string `json:"transcript_uri"`
}

type jobDocument struct {
	Name          string `json:"name"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
	TranscriptURI string `json:"transcript_uri"`
}

func (e jobEnvelope) document() jobDocument {
	if e.Job.Name != "" || e.Job.Status != "" {
		return e.Job
	}
	return jobDocument{Name: e.Name, Status: e.Status, FailureReason: e.FailureReason, TranscriptURI: e.TranscriptURI}
}

type submitRequest struct {
	Name         string `json:"name"`
	MediaURI     string `json:"media_uri"`
	MediaFormat  string `json:"media_format"`
	LanguageCode string `json:"language_code"`
}

// Submit starts a transcription job for the uploaded media object and returns
// the job identifier. A job that reports failure immediately is surfaced as a
// transcription error carrying the remote reason.
func (c *Client) Submit(ctx context.Context, jobName, mediaURI string) (string, error) {
	if strings.TrimSpace(jobName) == "" {
		return "", services.Wrap(services.ErrInput, "transcription", "submit", "job name required", nil)
	}
	if strings.TrimSpace(mediaURI) == "" {
		return "", services.Wrap(services.ErrInput, "transcription", "submit", "media uri required", nil)
	}

	payload := submitRequest{
		Name:         jobName,
		MediaURI:     mediaURI,
		MediaFormat:  c.cfg.MediaFormat,
		LanguageCode: c.cfg.LanguageCode,
	}
	var envelope jobEnvelope
	if err := c.doJSON(ctx, http.MethodPost, c.jobURL(""), payload, &envelope); err != nil {
		return "", err
	}
	doc := envelope.document()
	if polling.Status(doc.Status) == polling.StatusFailed {
		reason := doc.FailureReason
		if reason == "" {
			reason = "unknown error"
		}
		return "", services.Wrap(services.ErrTranscription, "transcription", "submit", reason, nil)
	}
	if doc.Name != "" {
		return doc.Name, nil
	}
	return jobName, nil
}

// GetStatus reports the job's lifecycle state plus the remote failure reason
// when the job has failed.
func (c *Client) GetStatus(ctx context.Context, jobID string) (polling.Status, string, error) {
	var envelope jobEnvelope
	if err := c.doJSON(ctx, http.MethodGet, c.jobURL(jobID), nil, &envelope); err != nil {
		return "", "", err
	}
	doc := envelope.document()
	status := mapStatus(doc.Status)
	if status == "" {
		return "", "", services.Wrap(services.ErrTransient, "transcription", "get status", fmt.Sprintf("unrecognized status %q", doc.Status), nil)
	}
	return status, doc.FailureReason, nil
}

// FetchTranscript downloads and parses the transcript document of a completed
// job. An empty or structurally invalid document is a non-retryable format
// error.
func (c *Client) FetchTranscript(ctx context.Context, jobID string) (string, error) {
	var envelope jobEnvelope
	if err := c.doJSON(ctx, http.MethodGet, c.jobURL(jobID), nil, &envelope); err != nil {
		return "", err
	}
	doc := envelope.document()
	if strings.TrimSpace(doc.TranscriptURI) == "" {
		return "", services.Wrap(services.ErrTranscription, "transcription", "fetch result", "job has no transcript uri", nil)
	}
	return c.downloadTranscript(ctx, doc.TranscriptURI)
}

type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

func (c *Client) downloadTranscript(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcription", "fetch result", "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", wrapNetworkError("transcription", "fetch result", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapNetworkError("transcription", "fetch result", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus("transcription", "fetch result", resp.StatusCode, body)
	}

	var doc transcriptDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcription", "fetch result", "malformed transcript document", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", services.Wrap(services.ErrTranscription, "transcription", "fetch result", "transcript document has no transcripts", nil)
	}
	transcript := doc.Results.Transcripts[0].Transcript
	if strings.TrimSpace(transcript) == "" {
		return "", services.Wrap(services.ErrTranscription, "transcription", "fetch result", "transcript is empty", nil)
	}
	return transcript, nil
}

// Delete removes the remote job. Missing jobs report services.ErrNotFound so
// cleanup can treat them as already released.
func (c *Client) Delete(ctx context.Context, jobID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.jobURL(jobID), nil, nil)
}

func (c *Client) jobURL(jobID string) string {
	base := c.cfg.BaseURL + "/v1/jobs"
	if jobID == "" {
		return base
	}
	return base + "/" + url.PathEscape(jobID)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrInput, "transcription", "encode request", "", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return services.Wrap(services.ErrInput, "transcription", "build request", "", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapNetworkError("transcription", method+" "+endpoint, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapNetworkError("transcription", "read response", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return classifyStatus("transcription", method+" request", resp.StatusCode, data)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return services.Wrap(services.ErrTranscription, "transcription", "decode response", "", err)
	}
	return nil
}

func mapStatus(remote string) polling.Status {
	switch strings.ToUpper(strings.TrimSpace(remote)) {
	case "SUBMITTED", "QUEUED", "PENDING":
		return polling.StatusSubmitted
	case "IN_PROGRESS", "RUNNING", "PROCESSING":
		return polling.StatusInProgress
	case "COMPLETED", "COMPLETE":
		return polling.StatusCompleted
	case "FAILED", "ERROR":
		return polling.StatusFailed
	default:
		return ""
	}
}

func wrapNetworkError(stage, operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrTransient, stage, operation, "network failure", err)
}

// classifyStatus maps HTTP errors onto the shared taxonomy: credential
// problems are fatal, missing jobs are not-found, throttling and server
// failures are retryable.
func classifyStatus(stage, operation string, status int, body []byte) error {
	detail := fmt.Sprintf("http %d: %s", status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, stage, operation, detail, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, stage, operation, detail, nil)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, stage, operation, detail, nil)
	default:
		return services.Wrap(services.ErrTranscription, stage, operation, detail, nil)
	}
}
