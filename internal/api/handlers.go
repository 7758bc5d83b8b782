package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mantradev/mantra/internal/artifact"
	"github.com/mantradev/mantra/internal/audiocache"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/resolver"
	"github.com/mantradev/mantra/internal/store"
	"github.com/mantradev/mantra/internal/telemetry"
)

// audioRoute is the public path audio keys resolve under.
const audioRoute = "/api/audio/"

type APIHandler struct {
	resolver *resolver.Service
	recorder *telemetry.Recorder
	cache    *audiocache.Cache
	store    *store.SQLiteStore
	blobs    artifact.Store
}

func NewAPIHandler(res *resolver.Service, rec *telemetry.Recorder, cache *audiocache.Cache, st *store.SQLiteStore, blobs artifact.Store) *APIHandler {
	return &APIHandler{
		resolver: res,
		recorder: rec,
		cache:    cache,
		store:    st,
		blobs:    blobs,
	}
}

type SessionRequest struct {
	Goal         string `json:"goal"`
	Intent       string `json:"intent"`
	Voice        string `json:"voice,omitempty"`
	Pace         string `json:"pace,omitempty"`
	FirstSession bool   `json:"first_session,omitempty"`
}

type SessionLine struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url"`
}

type SessionResponse struct {
	ResolutionID string        `json:"resolution_id"`
	Tier         store.Tier    `json:"tier"`
	Confidence   float64       `json:"confidence"`
	Cost         float64       `json:"cost"`
	Lines        []SessionLine `json:"lines"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := store.ParseGoal(req.Goal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	voice := store.VoiceEmber
	if req.Voice != "" {
		if voice, err = store.ParseVoice(req.Voice); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	pace := store.PaceSteady
	if req.Pace != "" {
		if pace, err = store.ParsePace(req.Pace); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := h.resolver.Resolve(r.Context(), resolver.Request{
		Goal:         goal,
		Intent:       req.Intent,
		Voice:        voice,
		Pace:         pace,
		FirstSession: req.FirstSession,
	})
	if err != nil {
		if errors.Is(err, resolver.ErrSynthesis) {
			logger.Error("session audio failed", "goal", req.Goal, "error", err.Error())
			http.Error(w, "Audio could not be produced for this session", http.StatusUnprocessableEntity)
			return
		}
		logger.Error("session resolution failed", "goal", req.Goal, "error", err.Error())
		http.Error(w, "Failed to resolve session", http.StatusInternalServerError)
		return
	}

	resp := SessionResponse{
		ResolutionID: result.RecordID,
		Tier:         result.Tier,
		Confidence:   result.Confidence,
		Cost:         result.Cost,
		Lines:        make([]SessionLine, len(result.Lines)),
	}
	for i, text := range result.Lines {
		resp.Lines[i] = SessionLine{Text: text, AudioURL: audioRoute + result.AudioKeys[i]}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

type FeedbackRequest struct {
	Rating   *int  `json:"rating"`
	Replayed *bool `json:"replayed"`
}

func (h *APIHandler) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	resolutionID := chi.URLParam(r, "resolutionID")

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Rating == nil && req.Replayed == nil {
		http.Error(w, "Feedback requires a rating or a replayed flag", http.StatusBadRequest)
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	if _, err := h.recorder.Feedback(resolutionID, req.Rating, req.Replayed); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Resolution not found", http.StatusNotFound)
		case errors.Is(err, store.ErrDuplicateFeedback):
			http.Error(w, "Feedback already submitted for this resolution", http.StatusConflict)
		default:
			logger.Error("feedback failed", "resolution_id", resolutionID, "error", err.Error())
			http.Error(w, "Failed to record feedback", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) AudioHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !isCacheKey(key) {
		http.Error(w, "Invalid audio key", http.StatusBadRequest)
		return
	}

	rc, err := h.cache.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Audio not found", http.StatusNotFound)
			return
		}
		logger.Error("audio fetch failed", "key", key, "error", err.Error())
		http.Error(w, "Failed to fetch audio", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	// Keys are content hashes, so the bytes behind one never change.
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	io.Copy(w, rc)
}

// isCacheKey accepts exactly the hex form the audio cache produces.
func isCacheKey(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.store.Ping(); err != nil {
		logger.Error("health check failed", "component", "store", "error", err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","component":"store"}`))
		return
	}
	if !h.blobs.Healthy(r.Context()) {
		logger.Error("health check failed", "component", "artifacts")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","component":"artifacts"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

type StatsWindow struct {
	Resolutions int64            `json:"resolutions"`
	Cost        float64          `json:"cost"`
	Tiers       []store.TierStat `json:"tiers"`
}

type StatsResponse struct {
	Today      StatsWindow              `json:"today"`
	Last7Days  StatsWindow              `json:"last_7_days"`
	Recent     []store.ResolutionRecord `json:"recent"`
	CacheBytes int64                    `json:"cache_bytes"`
}

func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := h.statsWindow(midnight)
	if err != nil {
		logger.Error("stats failed", "window", "today", "error", err.Error())
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}
	week, err := h.statsWindow(now.AddDate(0, 0, -7))
	if err != nil {
		logger.Error("stats failed", "window", "week", "error", err.Error())
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}
	cacheBytes, err := h.store.TotalCacheBytes()
	if err != nil {
		logger.Error("stats failed", "window", "cache", "error", err.Error())
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	recent := h.recorder.Recent(10)
	if recent == nil {
		recent = []store.ResolutionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatsResponse{
		Today:      *today,
		Last7Days:  *week,
		Recent:     recent,
		CacheBytes: cacheBytes,
	})
}

func (h *APIHandler) statsWindow(since time.Time) (*StatsWindow, error) {
	tiers, err := h.recorder.Stats(since)
	if err != nil {
		return nil, err
	}
	win := StatsWindow{Tiers: tiers}
	if win.Tiers == nil {
		win.Tiers = []store.TierStat{}
	}
	for _, ts := range tiers {
		win.Resolutions += ts.Count
		win.Cost += ts.Cost
	}
	return &win, nil
}
