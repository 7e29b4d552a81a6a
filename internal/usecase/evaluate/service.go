// Package evaluate measures retrieval self-consistency without human labels:
// a sampled mentor queried by its own profile should reappear in its own
// neighborhood. Hit@K and MRR over the sample quantify how well the embedding
// space preserves identity.
package evaluate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mentorlink/mentordex/internal/domain"
	"github.com/mentorlink/mentordex/internal/domain/eval"
	"github.com/mentorlink/mentordex/internal/domain/mentor"
)

// probeDepth is the neighborhood size of a self-recovery probe; it matches
// the largest reported cutoff.
var probeDepth = eval.Cutoffs[len(eval.Cutoffs)-1]

// Options holds evaluation settings.
type Options struct {
	SampleSize int // mentors probed per run
	PageSize   int // catalog page size while sampling
}

// ApplyDefaults fills zero fields with production defaults.
func (o *Options) ApplyDefaults() {
	if o.SampleSize <= 0 {
		o.SampleSize = 5
	}
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
}

// Service runs silver ground-truth evaluation.
type Service struct {
	embed    Embedder
	index    VectorIndex
	profiles ProfileStore
	opts     Options
	logger   *zap.Logger
}

// New creates an evaluation service.
func New(embed Embedder, index VectorIndex, profiles ProfileStore, opts Options, logger *zap.Logger) *Service {
	opts.ApplyDefaults()
	return &Service{
		embed:    embed,
		index:    index,
		profiles: profiles,
		opts:     opts,
		logger:   logger,
	}
}

// Evaluate probes sampleSize mentors (0 means the configured default) and
// aggregates Hit@K and MRR. Mentors with no usable attributes are skipped
// during sampling; probe failures fail the run.
func (s *Service) Evaluate(ctx context.Context, sampleSize int) (eval.Summary, error) {
	if sampleSize <= 0 {
		sampleSize = s.opts.SampleSize
	}

	sample, err := s.sample(ctx, sampleSize)
	if err != nil {
		return eval.Summary{}, err
	}

	details := make([]eval.Detail, 0, len(sample))
	for _, d := range sample {
		rank, ids, err := s.probe(ctx, d)
		if err != nil {
			return eval.Summary{}, fmt.Errorf("probe mentor %d: %w", d.ID, err)
		}
		details = append(details, eval.Detail{
			MentorID:       d.ID,
			IsHit:          rank > 0,
			Rank:           rank,
			RecommendedIDs: ids,
		})
	}

	summary := eval.Summarize(details)
	s.logger.Info("Self-recovery evaluation completed",
		zap.Int("sample", summary.Total),
		zap.Float64("hit_at_10", summary.HitAt10),
		zap.Float64("mrr", summary.MRR))
	return summary, nil
}

// Verify runs a single self-recovery probe. A mentor with no usable
// attributes yields domain.ErrInsufficientProfile.
func (s *Service) Verify(ctx context.Context, d mentor.Detail) (mentor.GroundTruthRecord, error) {
	rank, _, err := s.probe(ctx, d)
	if err != nil {
		return mentor.GroundTruthRecord{}, err
	}
	return mentor.GroundTruthRecord{IsHit: rank > 0, Rank: rank}, nil
}

// probe searches with the mentor's own profile and returns the mentor's
// 1-based rank among the neighbors (0 when absent) plus the neighbor ids.
// The mentor itself is deliberately not excluded from the search.
func (s *Service) probe(ctx context.Context, d mentor.Detail) (int, []int64, error) {
	attrs := d.Attributes()
	if attrs.IsEmpty() {
		return 0, nil, fmt.Errorf("mentor %d: %w", d.ID, domain.ErrInsufficientProfile)
	}

	emb, err := s.embed.Embed(ctx, attrs.QueryText())
	if err != nil {
		return 0, nil, fmt.Errorf("embed profile: %w", err)
	}

	hits, err := s.index.SearchSimilar(ctx, emb.Embedding, probeDepth, 0)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	rank := 0
	ids := make([]int64, 0, len(hits))
	for i, h := range hits {
		ids = append(ids, h.ID)
		if h.ID == d.ID && rank == 0 {
			rank = i + 1
		}
	}
	return rank, ids, nil
}

// sample walks the catalog in pages and keeps the first n mentors that carry
// usable profile attributes.
func (s *Service) sample(ctx context.Context, n int) ([]mentor.Detail, error) {
	var sample []mentor.Detail

	cursor := ""
	for len(sample) < n {
		details, next, hasMore, err := s.profiles.ListPage(ctx, cursor, s.opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("sample catalog: %w", err)
		}

		for _, d := range details {
			if d.Attributes().IsEmpty() {
				continue
			}
			sample = append(sample, d)
			if len(sample) == n {
				break
			}
		}

		if !hasMore {
			break
		}
		cursor = next
	}

	return sample, nil
}
