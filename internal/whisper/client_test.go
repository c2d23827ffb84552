package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "speech.wav")

	err := os.WriteFile(path, []byte("RIFF....WAVEdata"), 0o600)
	if err != nil {
		t.Fatalf("failed to write test audio: %v", err)
	}

	return path
}

func TestClient_Transcribe_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodPost {
				t.Errorf("expected POST request, got %s", request.Method)
			}

			authorization := request.Header.Get(headerAuthorization)
			if authorization != "Bearer test-key" {
				t.Errorf("expected bearer token, got %q", authorization)
			}

			err := request.ParseMultipartForm(1 << 20)
			if err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}

			if request.FormValue(formFieldModel) != "whisper-1" {
				t.Errorf("expected default model, got %q", request.FormValue(formFieldModel))
			}

			if request.FormValue(formFieldLanguage) != "en" {
				t.Errorf("expected language field, got %q", request.FormValue(formFieldLanguage))
			}

			_, _, err = request.FormFile(formFieldFile)
			if err != nil {
				t.Errorf("expected audio file in form: %v", err)
			}

			responseWriter.Header().Set(headerContentType, "application/json")

			encodeErr := json.NewEncoder(responseWriter).Encode(transcriptionResponse{
				Text: "hello world",
			})
			if encodeErr != nil {
				t.Errorf("failed to encode response: %v", encodeErr)
			}
		},
	))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithLanguage("en"))

	transcript, err := client.Transcribe(context.Background(), writeTestAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if transcript != "hello world" {
		t.Errorf("expected transcript 'hello world', got %q", transcript)
	}
}

func TestClient_Transcribe_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			http.Error(responseWriter, `{"error": "rate limited"}`, http.StatusTooManyRequests)
		},
	))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.Transcribe(context.Background(), writeTestAudio(t))
	if err == nil {
		t.Fatal("expected error for non-OK status")
	}

	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status code in error, got: %v", err)
	}
}

func TestClient_Transcribe_MissingFile(t *testing.T) {
	t.Parallel()

	client := NewClient("test-key")

	_, err := client.Transcribe(
		context.Background(),
		filepath.Join(t.TempDir(), "absent.wav"),
	)
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv(envOpenAIAPIKey, "")

	_, err := NewClientFromEnv()
	if err == nil {
		t.Fatal("expected error when API key is not set")
	}
}
