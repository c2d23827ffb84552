package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/audiobook-service/internal/core"
)

const testTimeout = 5 * time.Second

func TestClient_Synthesize_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodPost {
				t.Errorf("expected POST request, got %s", request.Method)
			}

			if request.URL.Path != apiGenerateSpeech {
				t.Errorf("expected %s path, got %s", apiGenerateSpeech, request.URL.Path)
			}

			if request.Header.Get(headerContentType) != contentTypeJSON {
				t.Error("expected application/json content type")
			}

			var req synthesisRequest

			err := json.NewDecoder(request.Body).Decode(&req)
			if err != nil {
				t.Errorf("failed to decode request: %v", err)
			}

			if req.Text != "Hello, world." {
				t.Errorf("expected text to be preserved, got %q", req.Text)
			}

			if req.Language != "en" {
				t.Errorf("expected default language 'en', got %q", req.Language)
			}

			if req.Temperature != defaultTemperature {
				t.Errorf("expected default temperature, got %f", req.Temperature)
			}

			responseWriter.Header().Set(headerContentType, contentTypeWAV)

			_, err = responseWriter.Write([]byte("RIFF....WAVEdata"))
			if err != nil {
				t.Errorf("failed to write response: %v", err)
			}
		},
	))
	defer server.Close()

	client := NewClient(server.URL, testTimeout)

	audioData, err := client.Synthesize(
		context.Background(),
		"Hello, world.",
		core.VoiceConfig{Voice: "", Language: "", Temperature: 0},
	)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if len(audioData) == 0 {
		t.Error("expected non-empty audio data")
	}

	if !strings.HasPrefix(string(audioData), "RIFF") {
		t.Error("expected WAV format audio data")
	}
}

func TestClient_Synthesize_EmptyText(t *testing.T) {
	t.Parallel()

	client := NewClient("http://localhost:1", testTimeout)

	_, err := client.Synthesize(context.Background(), "", core.VoiceConfig{})
	if err == nil {
		t.Fatal("expected error for empty text")
	}

	if !strings.Contains(err.Error(), errTextCannotBeEmpty) {
		t.Errorf("expected empty text error, got: %v", err)
	}
}

func TestClient_Synthesize_ServiceError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set(headerContentType, contentTypeJSON)
			responseWriter.WriteHeader(http.StatusBadRequest)

			err := json.NewEncoder(responseWriter).Encode(serviceErrorResponse{
				Detail:    "voice not found",
				ErrorCode: "VOICE_NOT_FOUND",
			})
			if err != nil {
				t.Errorf("failed to encode error response: %v", err)
			}
		},
	))
	defer server.Close()

	client := NewClient(server.URL, testTimeout)

	_, err := client.Synthesize(context.Background(), "Hello.", core.VoiceConfig{})
	if err == nil {
		t.Fatal("expected error for service failure")
	}

	if !strings.Contains(err.Error(), "voice not found") {
		t.Errorf("expected service error detail, got: %v", err)
	}

	if !strings.Contains(err.Error(), "VOICE_NOT_FOUND") {
		t.Errorf("expected error code in message, got: %v", err)
	}
}

func TestClient_Synthesize_WrongContentType(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set(headerContentType, "text/plain")

			_, err := responseWriter.Write([]byte("not audio"))
			if err != nil {
				t.Errorf("failed to write response: %v", err)
			}
		},
	))
	defer server.Close()

	client := NewClient(server.URL, testTimeout)

	_, err := client.Synthesize(context.Background(), "Hello.", core.VoiceConfig{})
	if err == nil {
		t.Fatal("expected error for wrong content type")
	}

	if !strings.Contains(err.Error(), "unexpected content type") {
		t.Errorf("expected content type error, got: %v", err)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			if request.URL.Path != apiHealth {
				t.Errorf("expected %s path, got %s", apiHealth, request.URL.Path)
			}

			responseWriter.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	client := NewClient(server.URL, testTimeout)

	err := client.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestClient_HealthCheck_Unreachable(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", time.Second)

	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable service")
	}
}
