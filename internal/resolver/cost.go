package resolver

import "github.com/mantradev/mantra/internal/store"

// Per-session cost by tier. Exact matches and static fallbacks are free.
// Pooled assembly pays only for synthesis; generation pays for the model
// call plus synthesis.
const (
	costExact     = 0.00
	costPooled    = 0.05
	costGenerated = 0.30
	costFallback  = 0.00
)

func costFor(tier store.Tier) float64 {
	switch tier {
	case store.TierExact:
		return costExact
	case store.TierPooled:
		return costPooled
	case store.TierGenerated:
		return costGenerated
	default:
		return costFallback
	}
}
