// Package tts converts affirmation text to speech.
//
// Two providers are supported: a local Piper server speaking the Wyoming
// protocol, and the OpenAI speech API. Both return complete WAV files so
// the audio cache can store and serve them as-is.
package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/mantradev/mantra/internal/store"
)

// Result holds the output of speech synthesis.
type Result struct {
	// Audio is a complete WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio.
	ContentType string

	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// Channels is the number of audio channels.
	Channels int
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates audio for one affirmation line in the given
	// voice and pace.
	Synthesize(ctx context.Context, text string, voice store.Voice, pace store.Pace) (*Result, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// Config selects and configures a synthesis provider.
type Config struct {
	Provider string // "piper" (default) or "openai"

	// Piper provider.
	PiperAddr       string
	PiperVoiceModel string

	// OpenAI provider.
	OpenAIAPIKey  string
	OpenAIBaseURL string

	Timeout time.Duration
}

// New creates the synthesizer named by cfg.Provider.
func New(cfg Config) (Synthesizer, error) {
	switch cfg.Provider {
	case "", "piper":
		return NewPiper(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.Provider)
	}
}
