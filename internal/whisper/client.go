// Package whisper provides the Whisper API client that proofreads
// synthesized audio for the verification loop.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/audiobook-service/internal/core"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel   = "whisper-1"
	defaultTimeout = 60 * time.Second
)

// Form field names.
const (
	formFieldFile     = "file"
	formFieldModel    = "model"
	formFieldLanguage = "language"
)

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
)

const envOpenAIAPIKey = "OPENAI_API_KEY"

// Static errors.
var (
	ErrAPIKeyNotSet = errors.New("OPENAI_API_KEY environment variable not set")
)

// Compile-time collaborator check.
var _ core.Transcriber = (*Client)(nil)

// Client transcribes audio files through the Whisper API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	language   string
}

// transcriptionResponse is the JSON body returned by the API.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different transcription endpoint, such
// as a locally hosted Whisper server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithModel selects the transcription model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLanguage fixes the transcription language instead of letting the model
// guess. Matching the synthesis language keeps similarity scores stable.
func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// NewClient creates a new Whisper API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		model:    defaultModel,
		language: "",
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewClientFromEnv creates a client using the OPENAI_API_KEY environment
// variable.
func NewClientFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(envOpenAIAPIKey)
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return NewClient(apiKey, opts...), nil
}

// Transcribe sends the audio file at audioPath to the API and returns the
// recognized text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	body, contentType, err := c.buildRequestBody(audioPath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	req.Header.Set(headerContentType, contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf(
			"transcription request failed with status %d: %s",
			resp.StatusCode,
			string(respBody),
		)
	}

	var parsed transcriptionResponse

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return parsed.Text, nil
}

// buildRequestBody assembles the multipart form holding the audio file and
// the model parameters.
func (c *Client) buildRequestBody(audioPath string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(formFieldFile, filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	_, err = io.Copy(part, file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to copy file data: %w", err)
	}

	err = writer.WriteField(formFieldModel, c.model)
	if err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}

	if c.language != "" {
		err = writer.WriteField(formFieldLanguage, c.language)
		if err != nil {
			return nil, "", fmt.Errorf("failed to write language field: %w", err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
