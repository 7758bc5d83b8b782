// Package telemetry persists resolution outcomes and feeds ratings back
// into the quality scores of what was spoken.
package telemetry

import (
	"time"

	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
)

// promotionThreshold is the minimum rating that nudges quality scores.
// Lower ratings are recorded for analytics but promote nothing.
const promotionThreshold = 4

// Recorder writes resolution records and applies feedback to them.
type Recorder struct {
	store  *store.SQLiteStore
	mirror Mirror
}

// NewRecorder creates a recorder. A nil mirror disables mirroring.
func NewRecorder(st *store.SQLiteStore, mirror Mirror) *Recorder {
	if mirror == nil {
		mirror = NopMirror{}
	}
	return &Recorder{store: st, mirror: mirror}
}

// Record persists one resolution outcome and mirrors it. The record's ID
// and timestamp are assigned by the store.
func (r *Recorder) Record(rec *store.ResolutionRecord) error {
	if err := r.store.CreateResolutionRecord(rec); err != nil {
		return err
	}
	r.mirror.Add(*rec)
	return nil
}

// Feedback applies the one allowed rating/replay submission to a record
// and returns the updated record. A rating at or above the promotion
// threshold updates the running averages of what resolved the session:
// each line for a pooled resolution, the template for an exact one.
// Generated and fallback resolutions record the rating without promotion.
//
// A second submission returns store.ErrDuplicateFeedback and changes no
// quality score.
func (r *Recorder) Feedback(id string, rating *int, replayed *bool) (*store.ResolutionRecord, error) {
	if err := r.store.SetResolutionFeedback(id, rating, replayed); err != nil {
		return nil, err
	}

	rec, err := r.store.GetResolutionRecord(id)
	if err != nil {
		return nil, err
	}

	if rating != nil && *rating >= promotionThreshold {
		switch rec.Tier {
		case store.TierPooled:
			for _, lineID := range rec.LineIDs {
				if err := r.store.PromoteLineRating(lineID, *rating); err != nil {
					logger.Warn("line promotion failed", "line_id", lineID, "error", err)
				}
			}
		case store.TierExact:
			if rec.TemplateID != nil {
				if err := r.store.PromoteTemplateRating(*rec.TemplateID, *rating); err != nil {
					logger.Warn("template promotion failed", "template_id", *rec.TemplateID, "error", err)
				}
			}
		}
	}

	logger.Info("feedback recorded", "record_id", id, "tier", string(rec.Tier), "has_rating", rating != nil)
	return rec, nil
}

// Recent returns up to n mirrored records, newest first.
func (r *Recorder) Recent(n int) []store.ResolutionRecord {
	return r.mirror.Recent(n)
}

// Stats aggregates per-tier counts, cost and ratings since the given time.
func (r *Recorder) Stats(since time.Time) ([]store.TierStat, error) {
	return r.store.ResolutionStats(since)
}
