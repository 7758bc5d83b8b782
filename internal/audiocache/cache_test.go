package audiocache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mantradev/mantra/internal/artifact"
	"github.com/mantradev/mantra/internal/store"
	"github.com/mantradev/mantra/internal/tts"
)

// countingSynth records how many times each text was synthesized.
type countingSynth struct {
	mu    sync.Mutex
	calls map[string]int
	delay time.Duration
	fail  bool
}

func (s *countingSynth) Synthesize(ctx context.Context, text string, voice store.Voice, pace store.Pace) (*tts.Result, error) {
	s.mu.Lock()
	s.calls[text]++
	fail := s.fail
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if fail {
		return nil, errors.New("synth down")
	}
	return &tts.Result{
		Audio:       []byte("RIFF:" + text),
		ContentType: "audio/wav",
		SampleRate:  22050,
		Channels:    1,
	}, nil
}

func (s *countingSynth) Close() error { return nil }

func (s *countingSynth) callCount(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[text]
}

func (s *countingSynth) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func newTestCache(t *testing.T, synth tts.Synthesizer) *Cache {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := artifact.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return New(st, blobs, synth)
}

func TestGetOrSynthesizeReusesAudio(t *testing.T) {
	synth := &countingSynth{calls: map[string]int{}}
	c := newTestCache(t, synth)
	ctx := context.Background()

	first, err := c.GetOrSynthesize(ctx, "I am calm", store.VoiceEmber, store.PaceSteady)
	if err != nil {
		t.Fatalf("first GetOrSynthesize: %v", err)
	}
	if len(first.Key) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(first.Key))
	}
	if synth.callCount("I am calm") != 1 {
		t.Fatalf("synth calls = %d, want 1", synth.callCount("I am calm"))
	}

	second, err := c.GetOrSynthesize(ctx, "I am calm", store.VoiceEmber, store.PaceSteady)
	if err != nil {
		t.Fatalf("second GetOrSynthesize: %v", err)
	}
	if second.Key != first.Key {
		t.Errorf("keys differ for identical rendition: %s vs %s", first.Key, second.Key)
	}
	if synth.callCount("I am calm") != 1 {
		t.Errorf("synth calls after hit = %d, want 1", synth.callCount("I am calm"))
	}
	if second.AccessCount != 2 {
		t.Errorf("access count = %d, want 2", second.AccessCount)
	}

	// A different pace is a different rendition.
	third, err := c.GetOrSynthesize(ctx, "I am calm", store.VoiceEmber, store.PaceSlow)
	if err != nil {
		t.Fatalf("third GetOrSynthesize: %v", err)
	}
	if third.Key == first.Key {
		t.Error("pace change produced the same key")
	}
	if synth.callCount("I am calm") != 2 {
		t.Errorf("synth calls = %d, want 2", synth.callCount("I am calm"))
	}

	rc, err := c.Open(ctx, first.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	audio, _ := io.ReadAll(rc)
	rc.Close()
	if string(audio) != "RIFF:I am calm" {
		t.Errorf("audio = %q", audio)
	}
}

func TestKeyIsUnambiguous(t *testing.T) {
	base := Key("I sleep deeply", store.VoiceEmber, store.PaceSlow)

	if Key("I sleep deeply", store.VoiceEmber, store.PaceSteady) == base {
		t.Error("pace not part of the key")
	}
	if Key("I sleep deeply", store.VoiceBrook, store.PaceSlow) == base {
		t.Error("voice not part of the key")
	}
	if Key("i sleep deeply", store.VoiceEmber, store.PaceSlow) == base {
		t.Error("text case folded into the same key")
	}
	if Key("I sleep deeply ", store.VoiceEmber, store.PaceSlow) == base {
		t.Error("trailing space folded into the same key")
	}

	// Field boundaries must not shift between fields.
	if Key("ab", store.Voice("c"), store.PaceSlow) == Key("a", store.Voice("bc"), store.PaceSlow) {
		t.Error("length framing failed to separate fields")
	}
}

func TestConcurrentRequestsSynthesizeOnce(t *testing.T) {
	synth := &countingSynth{calls: map[string]int{}, delay: 50 * time.Millisecond}
	c := newTestCache(t, synth)

	const n = 8
	var wg sync.WaitGroup
	keys := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := c.GetOrSynthesize(context.Background(), "We breathe slowly", store.VoiceSol, store.PaceSlow)
			if err != nil {
				errs[i] = err
				return
			}
			keys[i] = entry.Key
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	for i := 1; i < n; i++ {
		if keys[i] != keys[0] {
			t.Errorf("caller %d got key %s, caller 0 got %s", i, keys[i], keys[0])
		}
	}
	if got := synth.callCount("We breathe slowly"); got != 1 {
		t.Errorf("synth calls = %d, want 1", got)
	}
}

func TestSynthesisFailureLeavesNoEntry(t *testing.T) {
	synth := &countingSynth{calls: map[string]int{}, fail: true}
	c := newTestCache(t, synth)
	ctx := context.Background()

	_, err := c.GetOrSynthesize(ctx, "I am focused", store.VoiceAsha, store.PaceBrisk)
	if err == nil {
		t.Fatal("expected synthesis error")
	}
	if !strings.Contains(err.Error(), "synth down") {
		t.Errorf("error = %v, want synthesizer failure wrapped", err)
	}

	key := Key("I am focused", store.VoiceAsha, store.PaceBrisk)
	entry, err := c.store.GetCacheEntry(key)
	if err != nil {
		t.Fatalf("GetCacheEntry: %v", err)
	}
	if entry != nil {
		t.Error("failed synthesis left a cache entry")
	}

	// A later attempt retries from scratch.
	synth.setFail(false)
	if _, err := c.GetOrSynthesize(ctx, "I am focused", store.VoiceAsha, store.PaceBrisk); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got := synth.callCount("I am focused"); got != 2 {
		t.Errorf("synth calls = %d, want 2", got)
	}
}

func TestEnsureSessionKeepsLineOrder(t *testing.T) {
	synth := &countingSynth{calls: map[string]int{}}
	c := newTestCache(t, synth)

	texts := []string{
		"My mind is quiet now",
		"I release the day",
		"Rest comes easily to me",
	}
	keys, err := c.EnsureSession(context.Background(), texts, store.VoiceBrook, store.PaceSlow)
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if len(keys) != len(texts) {
		t.Fatalf("keys = %d, want %d", len(keys), len(texts))
	}
	for i, text := range texts {
		if want := Key(text, store.VoiceBrook, store.PaceSlow); keys[i] != want {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want)
		}
	}

	// A repeated line set costs no further synthesis.
	if _, err := c.EnsureSession(context.Background(), texts, store.VoiceBrook, store.PaceSlow); err != nil {
		t.Fatalf("second EnsureSession: %v", err)
	}
	for _, text := range texts {
		if got := synth.callCount(text); got != 1 {
			t.Errorf("synth calls for %q = %d, want 1", text, got)
		}
	}
}

func TestOpenMissingKey(t *testing.T) {
	synth := &countingSynth{calls: map[string]int{}}
	c := newTestCache(t, synth)

	_, err := c.Open(context.Background(), fmt.Sprintf("%064d", 0))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}
