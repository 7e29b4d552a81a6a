// Package eval holds the silver ground-truth evaluation results: per-sample
// hit records and the aggregated Hit@K / MRR summary.
package eval

import "math"

// Cutoffs are the ranks at which hit rate is reported.
var Cutoffs = [4]int{1, 3, 5, 10}

// Detail is the outcome of a single self-recovery probe: whether the sampled
// mentor reappeared in its own top-10 and at which 1-based rank.
type Detail struct {
	MentorID       int64
	IsHit          bool
	Rank           int // 1-based; 0 when not recovered
	RecommendedIDs []int64
}

// Summary aggregates hit rates and mean reciprocal rank over a sample.
type Summary struct {
	HitAt1  float64 // percentage in [0,100]
	HitAt3  float64
	HitAt5  float64
	HitAt10 float64
	MRR     float64 // in [0,1]
	Total   int
	Details []Detail
}

// Summarize computes Hit@{1,3,5,10} and MRR from per-sample details.
// An empty sample yields the zero summary.
func Summarize(details []Detail) Summary {
	total := len(details)
	if total == 0 {
		return Summary{}
	}

	var hits [4]int
	var reciprocal float64
	for _, d := range details {
		if !d.IsHit || d.Rank < 1 {
			continue
		}
		reciprocal += 1.0 / float64(d.Rank)
		for i, k := range Cutoffs {
			if d.Rank <= k {
				hits[i]++
			}
		}
	}

	rate := func(n int) float64 {
		return round(float64(n)/float64(total)*100, 2)
	}

	return Summary{
		HitAt1:  rate(hits[0]),
		HitAt3:  rate(hits[1]),
		HitAt5:  rate(hits[2]),
		HitAt10: rate(hits[3]),
		MRR:     round(reciprocal/float64(total), 4),
		Total:   total,
		Details: details,
	}
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
