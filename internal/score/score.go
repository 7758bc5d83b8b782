package score

// Func scores the overlap between a request token set and a candidate's stored
// token set, returning a value in [0, 1]. The resolver takes one of these so the
// formula can be swapped without touching tier gating.
type Func func(request, candidate []string) float64

// Jaccard calculates intersection size over union size for two token sets.
// An empty union scores 0, which gating treats as no match.
func Jaccard(request, candidate []string) float64 {
	req := toSet(request)
	cand := toSet(candidate)

	union := len(req)
	var intersection int
	for token := range cand {
		if _, ok := req[token]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// toSet deduplicates a token slice.
func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
