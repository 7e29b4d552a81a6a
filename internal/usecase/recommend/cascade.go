package recommend

import (
	"sort"

	"github.com/mentorlink/mentordex/internal/domain/mentor"
)

// applyCascade runs the three-stage acceptance cascade over enriched
// candidates and returns the accepted set in acceptance order.
//
// Stage 1 accepts every job match. Stage 2 (skill expansion) runs only when
// stage 1 accepted at most threshold candidates. Stage 3 tops the set up to
// topK from the remaining pool, best responders first. Each candidate is
// tagged by the stage that accepted it, exactly once.
func applyCascade(candidates []*mentor.Candidate, topK, threshold int) []*mentor.Candidate {
	accepted := make([]*mentor.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if c.JobMatched() && c.Accept(mentor.TagJob) {
			accepted = append(accepted, c)
		}
	}

	if len(accepted) <= threshold {
		for _, c := range candidates {
			if c.SkillMatched() && c.Accept(mentor.TagSkill) {
				accepted = append(accepted, c)
			}
		}
	}

	if len(accepted) < topK {
		accepted = fillByResponseRate(candidates, accepted, topK)
	}

	return accepted
}

// fillByResponseRate tops accepted up to topK from the untagged remainder,
// ordered by response rate descending, then similarity descending.
func fillByResponseRate(
	candidates, accepted []*mentor.Candidate, topK int,
) []*mentor.Candidate {
	remainder := make([]*mentor.Candidate, 0, len(candidates)-len(accepted))
	for _, c := range candidates {
		if c.Tag() == mentor.TagNone {
			remainder = append(remainder, c)
		}
	}

	sort.SliceStable(remainder, func(i, j int) bool {
		if remainder[i].ResponseRate != remainder[j].ResponseRate {
			return remainder[i].ResponseRate > remainder[j].ResponseRate
		}
		return remainder[i].Similarity > remainder[j].Similarity
	})

	for _, c := range remainder {
		if len(accepted) >= topK {
			break
		}
		if c.Accept(mentor.TagResponseRate) {
			accepted = append(accepted, c)
		}
	}
	return accepted
}
