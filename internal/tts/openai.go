package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
)

// Base URL includes /v1, matching the OpenAI SDK convention and the
// textgen backend, so one OPENAI_BASE_URL override serves both.
const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiVoices maps affirmation voices to OpenAI speech voices.
var openaiVoices = map[store.Voice]string{
	store.VoiceEmber: "alloy",
	store.VoiceBrook: "nova",
	store.VoiceSol:   "onyx",
	store.VoiceAsha:  "shimmer",
}

// openaiSpeeds maps paces to OpenAI speech speed multipliers.
var openaiSpeeds = map[store.Pace]float64{
	store.PaceSlow:   0.85,
	store.PaceSteady: 1.0,
	store.PaceBrisk:  1.2,
}

// OpenAI synthesizes speech through the OpenAI speech API.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates an OpenAI synthesizer from config.
func NewOpenAI(cfg Config) *OpenAI {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize sends text to the speech endpoint and returns the audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string, voice store.Voice, pace store.Pace) (*Result, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	v := openaiVoices[voice]
	if v == "" {
		v = "alloy"
	}
	speed := openaiSpeeds[pace]
	if speed == 0 {
		speed = 1.0
	}

	body, err := json.Marshal(speechRequest{
		Model:          "tts-1",
		Input:          text,
		Voice:          v,
		Speed:          speed,
		ResponseFormat: "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating speech request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("speech failed (status %d): %s", resp.StatusCode, respBody)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	logger.Debug("openai synthesize complete", "bytes", len(audio), "voice", v, "speed", speed)

	return &Result{
		Audio:       audio,
		ContentType: "audio/wav",
		SampleRate:  24000,
		Channels:    1,
	}, nil
}

// Close is a no-op for the OpenAI synthesizer.
func (o *OpenAI) Close() error { return nil }
