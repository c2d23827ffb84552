// Package tts provides the HTTP client for the standalone TTS synthesis
// service used by the audiobook pipeline.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/audiobook-service/internal/core"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Default voice values applied when the caller leaves them unset.
const (
	defaultTemperature = 0.75
	defaultLanguage    = "en"
)

// Error messages.
const (
	errTextCannotBeEmpty       = "text cannot be empty"
	errUnexpectedContentType   = "unexpected content type: expected audio/wav, got %s"
	errReceivedEmptyAudio      = "received empty audio data"
	errFmtServiceErrorWithCode = "TTS service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "TTS service returned non-OK status: %s, body: %s"
)

// Compile-time collaborator check.
var _ core.Synthesizer = (*Client)(nil)

// Client talks to the standalone TTS HTTP service. It encapsulates the HTTP
// configuration and implements the pipeline's Synthesizer collaborator.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// synthesisRequest defines the JSON payload for speech generation requests,
// following the service's API contract.
type synthesisRequest struct {
	// Text contains the chunk to convert to speech. Must be non-empty.
	Text string `json:"text"`

	// Voice optionally selects a named speaker. The service default is
	// used when empty.
	Voice string `json:"voice,omitempty"`

	// Language specifies the target language code (e.g. "en", "es").
	Language string `json:"language"`

	// Temperature controls randomness in speech generation.
	Temperature float64 `json:"temperature"`
}

// serviceErrorResponse represents a structured error response from the
// service, providing actionable diagnostics when requests fail.
type serviceErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewClient creates and configures an HTTP client for the TTS service.
// The baseURL should include protocol and port (e.g. "http://localhost:8000").
// The timeout applies to all HTTP requests made by this client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one chunk to the service and returns the raw WAV data.
// A returned error always means the synthesis attempt failed; quality
// assessment of successful audio is the caller's concern.
func (c *Client) Synthesize(
	ctx context.Context,
	text string,
	voice core.VoiceConfig,
) ([]byte, error) {
	if text == "" {
		return nil, errors.New(errTextCannotBeEmpty)
	}

	payload := synthesisRequest{
		Text:        text,
		Voice:       voice.Voice,
		Language:    voice.Language,
		Temperature: voice.Temperature,
	}

	if payload.Temperature == 0 {
		payload.Temperature = defaultTemperature
	}

	if payload.Language == "" {
		payload.Language = defaultLanguage
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + apiGenerateSpeech

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to TTS service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf(errUnexpectedContentType, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, errors.New(errReceivedEmptyAudio)
	}

	return audioData, nil
}

// HealthCheck verifies that the TTS service is running and operational.
// It should be performed once before processing a document so a dead service
// fails fast with a clear diagnostic instead of burning retry attempts.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf(
			"health check failed for service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw response body so diagnostic information is
// never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp serviceErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}
