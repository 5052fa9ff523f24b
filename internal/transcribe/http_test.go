package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestHTTPCapability_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/asr", r.URL.Path)
		assert.Equal(t, "transcribe", r.URL.Query().Get("task"))
		assert.Equal(t, "kk", r.URL.Query().Get("language"))

		file, _, err := r.FormFile("audio_file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"text": " Сәлем. Қалайсыз? ",
			"chunks": [
				{"text": " Сәлем. ", "timestamp": [0.0, 1.6]},
				{"text": " Қалайсыз? ", "timestamp": [1.87, null]}
			]
		}`))
	}))
	defer server.Close()

	capability, err := NewHTTPCapability(HTTPCapabilityConfig{
		BaseURL:  server.URL,
		Language: language.Make("kk"),
	})
	require.NoError(t, err)

	result, err := capability.Transcribe(context.Background(), make([]float64, 1600), 16000)
	require.NoError(t, err)

	assert.Equal(t, "Сәлем. Қалайсыз?", result.Text)
	require.Len(t, result.Spans, 2)
	assert.Equal(t, "Сәлем.", result.Spans[0].Text)
	assert.Equal(t, 0.0, result.Spans[0].Start)
	require.NotNil(t, result.Spans[0].End)
	assert.Equal(t, 1.6, *result.Spans[0].End)
	assert.Equal(t, "Қалайсыз?", result.Spans[1].Text)
	assert.Nil(t, result.Spans[1].End)
}

func TestHTTPCapability_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	capability, err := NewHTTPCapability(HTTPCapabilityConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = capability.Transcribe(context.Background(), make([]float64, 160), 16000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewHTTPCapability_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPCapability(HTTPCapabilityConfig{})
	require.Error(t, err)
}
