package search

import "sort"

// fused is one chunk's combined ranking score.
type fused struct {
	ID    string
	Score float64
}

// fuseRRF merges ranked ID lists with reciprocal rank fusion:
// score(d) = sum over lists of 1/(k + rank). Higher is better. Ties break
// on ID so results are stable across runs.
func fuseRRF(k int, lists ...[]string) []fused {
	scores := make(map[string]float64)
	for _, list := range lists {
		for rank, id := range list {
			scores[id] += 1.0 / float64(k+rank+1)
		}
	}

	out := make([]fused, 0, len(scores))
	for id, score := range scores {
		out = append(out, fused{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// normalize rescales merged scores so the best hit is 1.0. Raw RRF scores
// are already comparable across collections (same k, same rank scale), so
// this runs once after the cross-collection merge, not per collection.
func normalize(results []Result) {
	if len(results) == 0 || results[0].Score == 0 {
		return
	}
	top := results[0].Score
	for i := range results {
		results[i].Score /= top
	}
}
