// Package resolver decides how each session request gets its affirmation
// lines: an exact template match, an assembly from the shared line pool,
// or paid generation with a static fallback. Cheaper tiers are tried
// first and accepted only above their confidence thresholds.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mantradev/mantra/internal/audiocache"
	"github.com/mantradev/mantra/internal/intent"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/score"
	"github.com/mantradev/mantra/internal/store"
	"github.com/mantradev/mantra/internal/telemetry"
	"github.com/mantradev/mantra/internal/textgen"
)

// Acceptance thresholds for the cheap tiers.
const (
	exactThreshold  = 0.75
	pooledThreshold = 0.65
)

// ErrSynthesis marks a session that failed because its audio could not
// be produced. Text tiers degrade gracefully; silence does not.
var ErrSynthesis = errors.New("audio synthesis failed")

// Request is one session-generation request.
type Request struct {
	Goal         store.Goal
	Intent       string
	Voice        store.Voice
	Pace         store.Pace
	FirstSession bool
}

// Result is the terminal outcome of one resolution: the lines to speak,
// their cached audio keys in the same order, and the record id a client
// submits feedback against.
type Result struct {
	RecordID   string     `json:"record_id"`
	Tier       store.Tier `json:"tier"`
	Lines      []string   `json:"lines"`
	AudioKeys  []string   `json:"audio_keys"`
	Confidence float64    `json:"confidence"`
	Cost       float64    `json:"cost"`
}

// outcome is one accepted tier result before the audio pass.
type outcome struct {
	tier       store.Tier
	texts      []string
	confidence float64
	templateID *string
	lineIDs    []string
}

// Options tune the resolver; zero values take defaults.
type Options struct {
	LinesPerSession   int
	GenerationTimeout time.Duration
	Score             score.Func
}

// Service runs the tiered resolution state machine.
type Service struct {
	store      *store.SQLiteStore
	cache      *audiocache.Cache
	generator  textgen.Generator
	recorder   *telemetry.Recorder
	score      score.Func
	target     int
	genTimeout time.Duration
}

// New creates a resolver over the given collaborators.
func New(st *store.SQLiteStore, cache *audiocache.Cache, generator textgen.Generator, recorder *telemetry.Recorder, opts Options) *Service {
	if opts.LinesPerSession <= 0 {
		opts.LinesPerSession = 6
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 20 * time.Second
	}
	if opts.Score == nil {
		opts.Score = score.Jaccard
	}
	return &Service{
		store:      st,
		cache:      cache,
		generator:  generator,
		recorder:   recorder,
		score:      opts.Score,
		target:     opts.LinesPerSession,
		genTimeout: opts.GenerationTimeout,
	}
}

// Resolve runs the state machine to completion: pick a tier, synthesize
// audio for its lines, then write exactly one resolution record. A
// synthesis failure fails the whole session and writes no record.
func (s *Service) Resolve(ctx context.Context, req Request) (*Result, error) {
	out, err := s.selectTier(ctx, req)
	if err != nil {
		return nil, err
	}

	keys, err := s.cache.EnsureSession(ctx, out.texts, req.Voice, req.Pace)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	rec := &store.ResolutionRecord{
		Tier:       out.tier,
		Cost:       costFor(out.tier),
		Confidence: out.confidence,
		Goal:       req.Goal,
		Intent:     req.Intent,
		TemplateID: out.templateID,
		LineIDs:    out.lineIDs,
	}
	if err := s.recorder.Record(rec); err != nil {
		return nil, fmt.Errorf("record resolution: %w", err)
	}

	logger.Info("session resolved",
		"tier", string(out.tier),
		"goal", string(req.Goal),
		"confidence", out.confidence,
		"cost", rec.Cost,
		"lines", len(out.texts),
		"record_id", rec.ID)

	return &Result{
		RecordID:   rec.ID,
		Tier:       out.tier,
		Lines:      out.texts,
		AudioKeys:  keys,
		Confidence: out.confidence,
		Cost:       rec.Cost,
	}, nil
}

// selectTier walks the tiers in cost order. First sessions never see the
// exact or pooled tiers; their lines are always freshly generated.
func (s *Service) selectTier(ctx context.Context, req Request) (*outcome, error) {
	if req.FirstSession {
		logger.Debug("first session, skipping exact and pooled tiers", "goal", string(req.Goal))
		return s.tryGenerate(ctx, req)
	}

	keywords := intent.Keywords(req.Intent)

	exact, err := s.tryExact(req.Goal, keywords)
	if err != nil {
		return nil, err
	}
	if exact != nil && exact.confidence >= exactThreshold {
		return s.acceptExact(exact)
	}

	themes := intent.Themes(req.Intent, req.Goal)

	pooled, err := s.tryPooled(req.Goal, themes)
	if err != nil && !errors.Is(err, ErrNoCandidate) {
		return nil, err
	}
	if pooled != nil && pooled.confidence >= pooledThreshold {
		return s.acceptPooled(pooled)
	}

	return s.tryGenerate(ctx, req)
}
