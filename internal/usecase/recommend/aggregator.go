package recommend

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mentorlink/mentordex/internal/domain/mentor"
	"github.com/mentorlink/mentordex/internal/domain/profile"
)

// enrich fetches the detail record behind every hit with bounded concurrency
// and builds candidates matched against the requester. Failed or timed-out
// fetches are dropped, never failing the whole batch; retrieval order is
// preserved for the survivors.
func (s *Service) enrich(
	ctx context.Context, hits []mentor.Hit, requester profile.Attributes, fanOut int,
) ([]*mentor.Candidate, int) {
	if len(hits) == 0 {
		return nil, 0
	}
	if fanOut <= 0 {
		fanOut = 1
	}

	slots := make([]*mentor.Candidate, len(hits))
	sem := make(chan struct{}, fanOut)
	var wg sync.WaitGroup

	for i, hit := range hits {
		wg.Add(1)
		go func(i int, hit mentor.Hit) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, s.opts.DetailTimeout)
			defer cancel()

			d, err := s.profiles.GetDetail(fetchCtx, hit.ID)
			if err != nil {
				s.logger.Warn("Dropping candidate: detail fetch failed",
					zap.Int64("mentor_id", hit.ID), zap.Error(err))
				return
			}
			slots[i] = mentor.NewCandidate(d, hit.Similarity, requester)
		}(i, hit)
	}
	wg.Wait()

	candidates := make([]*mentor.Candidate, 0, len(hits))
	dropped := 0
	for _, c := range slots {
		if c == nil {
			dropped++
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, dropped
}
