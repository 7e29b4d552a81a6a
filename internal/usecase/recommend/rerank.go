package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/mentorlink/mentordex/internal/domain/mentor"
)

// Rerank weights. The response-rate bonus applies only to candidates with no
// job and no skill match, so strong matches are never outranked by responsive
// but unrelated mentors.
const (
	jobMatchBonus      = 0.15
	skillOverlapBonus  = 0.05
	responseRateCap    = 0.10
	recencyBonus       = 0.05
	recencyWindow      = 7 * 24 * time.Hour
	responseRateWeight = 1.0 / 1000
)

// rerank scores every candidate against now and orders the slice by rerank
// score descending. Equal scores fall back to similarity descending; beyond
// that the incoming (retrieval) order is preserved.
func rerank(candidates []*mentor.Candidate, now time.Time) {
	for _, c := range candidates {
		c.SetRerankScore(score(c, now))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RerankScore() != candidates[j].RerankScore() {
			return candidates[i].RerankScore() > candidates[j].RerankScore()
		}
		return candidates[i].Similarity > candidates[j].Similarity
	})
}

func score(c *mentor.Candidate, now time.Time) float64 {
	s := c.Similarity

	if c.JobMatched() {
		s += jobMatchBonus
	}
	s += skillOverlapBonus * float64(c.SkillOverlap())

	if !c.JobMatched() && !c.SkillMatched() {
		s += math.Min(c.ResponseRate*responseRateWeight, responseRateCap)
	}

	if c.LastActiveAt != nil && now.Sub(*c.LastActiveAt) <= recencyWindow {
		s += recencyBonus
	}

	return s
}
