// Package maintenance keeps the audio cache under its size budget. A
// cron-scheduled sweep evicts the least recently played entries, blob
// and row together, until the total drops below the limit.
package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/mantradev/mantra/internal/artifact"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
)

// evictBatchSize bounds how many entries one pass loads, so a badly
// oversized cache is drained in rounds instead of one huge query.
const evictBatchSize = 32

// Sweeper evicts cold cache entries until the cache fits its budget.
type Sweeper struct {
	store    *store.SQLiteStore
	blobs    artifact.Store
	maxBytes int64
	cron     *cron.Cron
}

// SweepResult reports one sweep pass.
type SweepResult struct {
	Evicted        int
	FreedBytes     int64
	RemainingBytes int64
}

// NewSweeper creates a sweeper with the given cache budget in bytes.
func NewSweeper(st *store.SQLiteStore, blobs artifact.Store, maxBytes int64) *Sweeper {
	return &Sweeper{store: st, blobs: blobs, maxBytes: maxBytes}
}

// Sweep evicts least-recently-accessed entries until the cache total is
// at or under the budget. The row goes even when the blob removal
// fails, otherwise one stuck blob would wedge eviction forever.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	total, err := s.store.TotalCacheBytes()
	if err != nil {
		return nil, fmt.Errorf("measure cache: %w", err)
	}

	res := &SweepResult{RemainingBytes: total}
	for res.RemainingBytes > s.maxBytes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entries, err := s.store.OldestCacheEntries(evictBatchSize)
		if err != nil {
			return res, fmt.Errorf("list cold entries: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			if res.RemainingBytes <= s.maxBytes {
				break
			}
			if err := s.blobs.Remove(ctx, entry.Location); err != nil {
				logger.Warn("evicting entry despite blob removal failure",
					"key", entry.Key,
					"location", entry.Location,
					"error", err.Error())
			}
			if err := s.store.DeleteCacheEntry(entry.Key); err != nil {
				return res, fmt.Errorf("delete cache entry %s: %w", entry.Key, err)
			}
			res.Evicted++
			res.FreedBytes += entry.Bytes
			res.RemainingBytes -= entry.Bytes
		}
	}

	if res.Evicted > 0 {
		logger.Info("cache swept",
			"evicted", res.Evicted,
			"freed_bytes", res.FreedBytes,
			"remaining_bytes", res.RemainingBytes)
	}
	return res, nil
}

// Start schedules recurring sweeps. The schedule uses standard five
// field cron syntax.
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			logger.Error("scheduled cache sweep failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cache sweep %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	logger.Info("cache sweep scheduled", "schedule", schedule, "max_bytes", s.maxBytes)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
