package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/mentorlink/mentordex/internal/domain/mentor"
	"github.com/mentorlink/mentordex/internal/domain/profile"
)

// fallback walks the whole catalog page by page and ranks mentors by response
// rate, then rating. It carries no similarity signal; every returned candidate
// is tagged fallback_response_rate so callers can tell a degraded response
// from a ranked one.
func (s *Service) fallback(
	ctx context.Context, topK int, excludeID int64, onlyVerified bool,
) (*mentor.RankedResult, error) {
	var pool []*mentor.Candidate
	empty := profile.Attributes{}

	cursor := ""
	for {
		details, next, hasMore, err := s.profiles.ListPage(ctx, cursor, s.opts.FallbackPageSize)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}

		for _, d := range details {
			if excludeID > 0 && d.ID == excludeID {
				continue
			}
			if onlyVerified && !d.Verified {
				continue
			}
			pool = append(pool, mentor.NewCandidate(d, 0, empty))
		}

		if !hasMore {
			break
		}
		cursor = next
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].ResponseRate != pool[j].ResponseRate {
			return pool[i].ResponseRate > pool[j].ResponseRate
		}
		return pool[i].RatingAvg > pool[j].RatingAvg
	})

	total := len(pool)
	if len(pool) > topK {
		pool = pool[:topK]
	}
	for _, c := range pool {
		c.Accept(mentor.TagFallbackResponseRate)
	}

	return &mentor.RankedResult{Items: pool, TotalCount: total}, nil
}
