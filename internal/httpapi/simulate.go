package httpapi

import (
	"fmt"
	"hash/fnv"
	"math"

	"wordcheck.org/internal/docs"
)

// simulate scores every source against the target. Scores depend only on
// the file ids and the sensitivity, so repeated comparisons agree.
func simulate(target docs.WordFile, sources []docs.WordFile, sensitivity int) []docs.SimilarityResult {
	out := make([]docs.SimilarityResult, 0, len(sources))
	for _, src := range sources {
		h := pairHash(target.ID, src.ID)
		base := float64(h%10000) / 100
		sim := round2(base * float64(sensitivity) / 100)
		out = append(out, docs.SimilarityResult{
			SourceFileID:    src.ID,
			SourceFileName:  src.OriginalName,
			Similarity:      sim,
			MatchedSegments: segments(h, sim),
		})
	}
	return out
}

// segments yields one matched passage per started 30 points of similarity.
func segments(h uint64, sim float64) []docs.MatchedSegment {
	if sim <= 0 {
		return []docs.MatchedSegment{}
	}
	n := 1 + int(sim/30)
	out := make([]docs.MatchedSegment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, docs.MatchedSegment{
			Text:     fmt.Sprintf("匹配段落 %d", i+1),
			Position: i*120 + int((h>>8)%50),
			Length:   20 + int(sim),
		})
	}
	return out
}

// overall is the mean similarity, zero for no results.
func overall(results []docs.SimilarityResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	return round2(sum / float64(len(results)))
}

func pairHash(target, source int64) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d:%d", target, source)
	return h.Sum64()
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
