// Package audiocache is a content-addressable cache of synthesized
// affirmation audio.
//
// Audio is keyed by a digest of the exact line text plus voice and pace,
// so a line synthesized for one session is reused byte-for-byte by every
// later session that resolves the same rendition. Concurrent requests
// for a missing key collapse into a single synthesis.
package audiocache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mantradev/mantra/internal/artifact"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
	"github.com/mantradev/mantra/internal/tts"
)

// Key derives the cache key for one rendition. Fields are length-framed
// before hashing so no two (text, voice, pace) triples share a digest.
// Text is hashed exactly as it will be spoken; no normalization.
func Key(text string, voice store.Voice, pace store.Pace) string {
	h := sha256.New()
	for _, part := range []string{text, string(voice), string(pace)} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache coordinates the cache index, the blob store, and the synthesizer.
type Cache struct {
	store *store.SQLiteStore
	blobs artifact.Store
	synth tts.Synthesizer
	group singleflight.Group
}

// New creates a cache over the given index, blob store, and synthesizer.
func New(st *store.SQLiteStore, blobs artifact.Store, synth tts.Synthesizer) *Cache {
	return &Cache{store: st, blobs: blobs, synth: synth}
}

// GetOrSynthesize returns the cache entry for one rendition, synthesizing
// and storing it on a miss. A hit never calls the synthesizer. On
// synthesis or storage failure nothing is recorded and the error is
// returned.
func (c *Cache) GetOrSynthesize(ctx context.Context, text string, voice store.Voice, pace store.Pace) (*store.CacheEntry, error) {
	key := Key(text, voice, pace)

	entry, err := c.store.TouchCacheEntry(key)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have filled the entry while we waited.
		entry, err := c.store.TouchCacheEntry(key)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry, nil
		}

		res, err := c.synth.Synthesize(ctx, text, voice, pace)
		if err != nil {
			return nil, fmt.Errorf("synthesize: %w", err)
		}

		location, err := c.blobs.Put(ctx, key+".wav", res.Audio, res.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}

		entry = &store.CacheEntry{
			Key:      key,
			Location: location,
			Bytes:    int64(len(res.Audio)),
			Voice:    voice,
			Pace:     pace,
		}
		if err := c.store.CreateCacheEntry(entry); err != nil {
			return nil, fmt.Errorf("record cache entry: %w", err)
		}

		logger.Debug("audio cached", "key", key, "bytes", entry.Bytes, "voice", string(voice), "pace", string(pace))
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.CacheEntry), nil
}

// EnsureSession synthesizes (or reuses) audio for every line of a session
// and returns the cache keys in line order. Lines run concurrently; the
// first failure cancels the rest.
func (c *Cache) EnsureSession(ctx context.Context, texts []string, voice store.Voice, pace store.Pace) ([]string, error) {
	keys := make([]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		g.Go(func() error {
			entry, err := c.GetOrSynthesize(gctx, text, voice, pace)
			if err != nil {
				return err
			}
			keys[i] = entry.Key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Open returns a reader over cached audio and bumps its recency. Missing
// keys return store.ErrNotFound.
func (c *Cache) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	entry, err := c.store.TouchCacheEntry(key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, store.ErrNotFound
	}

	rc, err := c.blobs.Open(ctx, entry.Location)
	if err != nil {
		return nil, fmt.Errorf("open audio %s: %w", key, err)
	}
	return rc, nil
}
