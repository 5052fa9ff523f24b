package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/dkenzhe/videosub/internal/audio"
)

// HTTPCapabilityConfig configures the speech recognition HTTP client.
type HTTPCapabilityConfig struct {
	// BaseURL of the ASR service, e.g. "http://asr:9000".
	BaseURL string
	// Language forces the recognition language; language.Und lets the model
	// detect it per window.
	Language language.Tag
	// Timeout bounds a single window request. Zero means no client timeout.
	Timeout time.Duration
}

// HTTPCapability talks to a whisper-style ASR webservice: the WAV-encoded
// window goes up as multipart form data, recognized text plus optional
// time-stamped sub-spans come back as JSON.
type HTTPCapability struct {
	cfg        HTTPCapabilityConfig
	httpClient *http.Client
}

func NewHTTPCapability(cfg HTTPCapabilityConfig) (*HTTPCapability, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("asr base url is required")
	}
	return &HTTPCapability{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

type asrResponse struct {
	Text   string `json:"text"`
	Chunks []struct {
		Text      string      `json:"text"`
		Timestamp [2]*float64 `json:"timestamp"`
	} `json:"chunks"`
}

// Transcribe posts one audio window and parses the model response. Span
// timestamps stay window-relative; the orchestrator owns the translation to
// absolute time.
func (c *HTTPCapability) Transcribe(ctx context.Context, samples []float64, rate int) (Result, error) {
	wavData, err := audio.EncodeWAV(samples, rate)
	if err != nil {
		return Result{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio_file", "window.wav")
	if err != nil {
		return Result{}, err
	}
	if _, err := fw.Write(wavData); err != nil {
		return Result{}, err
	}
	if err := mw.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("asr http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed asrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("parse asr response: %w", err)
	}

	result := Result{Text: strings.TrimSpace(parsed.Text)}
	for _, chunk := range parsed.Chunks {
		span := ModelSpan{
			Text: strings.TrimSpace(chunk.Text),
			End:  chunk.Timestamp[1],
		}
		if chunk.Timestamp[0] != nil {
			span.Start = *chunk.Timestamp[0]
		}
		result.Spans = append(result.Spans, span)
	}
	return result, nil
}

func (c *HTTPCapability) requestURL() string {
	params := url.Values{}
	params.Set("task", "transcribe")
	params.Set("output", "json")
	if c.cfg.Language != language.Und {
		params.Set("language", c.cfg.Language.String())
	}
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/asr?" + params.Encode()
}
