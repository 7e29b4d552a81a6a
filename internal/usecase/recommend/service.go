// Package recommend implements the mentor retrieval pipeline: embed the
// requester's query, fetch nearest neighbors, enrich them with bounded
// concurrency, run the acceptance cascade, and rerank into a bounded top-K.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mentorlink/mentordex/internal/domain"
	"github.com/mentorlink/mentordex/internal/domain/eval"
	"github.com/mentorlink/mentordex/internal/domain/mentor"
	"github.com/mentorlink/mentordex/internal/domain/profile"
	"github.com/mentorlink/mentordex/internal/metrics"
)

// Options holds the pipeline tuning knobs.
type Options struct {
	DefaultTopK         int
	MaxTopK             int
	CandidateMultiplier int
	MinCandidates       int
	JobStageThreshold   int
	FanOut              int
	InteractiveFanOut   int
	DetailTimeout       time.Duration
	FallbackPageSize    int
}

// ApplyDefaults fills zero fields with production defaults.
func (o *Options) ApplyDefaults() {
	if o.DefaultTopK <= 0 {
		o.DefaultTopK = 5
	}
	if o.MaxTopK <= 0 {
		o.MaxTopK = 20
	}
	if o.CandidateMultiplier <= 0 {
		o.CandidateMultiplier = 5
	}
	if o.MinCandidates <= 0 {
		o.MinCandidates = 30
	}
	if o.JobStageThreshold <= 0 {
		o.JobStageThreshold = 5
	}
	if o.FanOut <= 0 {
		o.FanOut = 10
	}
	if o.InteractiveFanOut <= 0 {
		o.InteractiveFanOut = 3
	}
	if o.DetailTimeout <= 0 {
		o.DetailTimeout = 10 * time.Second
	}
	if o.FallbackPageSize <= 0 {
		o.FallbackPageSize = 100
	}
}

// Request carries the per-call knobs of a retrieval.
type Request struct {
	TopK            int  // 0 means the configured default
	OnlyVerified    bool // drop unverified mentors after enrichment
	WithGroundTruth bool // annotate results with self-recovery diagnostics
	Interactive     bool // conversational caller, lower enrichment fan-out
}

// Service runs the retrieval pipeline.
type Service struct {
	embed    Embedder
	index    VectorIndex
	profiles ProfileStore
	verifier GroundTruthVerifier
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a recommendation service.
func New(embed Embedder, index VectorIndex, profiles ProfileStore, opts Options, logger *zap.Logger) *Service {
	opts.ApplyDefaults()
	return &Service{
		embed:    embed,
		index:    index,
		profiles: profiles,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// WithVerifier attaches the self-recovery verifier used when a caller asks
// for ground-truth annotations.
func (s *Service) WithVerifier(v GroundTruthVerifier) *Service {
	s.verifier = v
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Recommend returns ranked mentors for the given requester, excluding the
// requester itself from the neighborhood. A requester with no usable profile
// attributes yields domain.ErrInsufficientProfile.
func (s *Service) Recommend(ctx context.Context, userID int64, req Request) (*mentor.RankedResult, error) {
	d, err := s.profiles.GetDetail(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load requester %d: %w", userID, err)
	}

	attrs := d.Attributes()
	if attrs.IsEmpty() {
		return nil, fmt.Errorf("requester %d: %w", userID, domain.ErrInsufficientProfile)
	}

	return s.run(ctx, "profile", attrs, attrs.QueryText(), userID, req)
}

// RecommendByAttributes returns ranked mentors for an ad-hoc profile snapshot
// with no catalog identity behind it.
func (s *Service) RecommendByAttributes(
	ctx context.Context, attrs profile.Attributes, req Request,
) (*mentor.RankedResult, error) {
	if attrs.IsEmpty() {
		return nil, domain.ErrInsufficientProfile
	}
	return s.run(ctx, "profile", attrs, attrs.QueryText(), 0, req)
}

// Search returns ranked mentors for a free-text query. A blank query skips
// the vector path entirely and serves the response-rate fallback.
func (s *Service) Search(ctx context.Context, query string, req Request) (*mentor.RankedResult, error) {
	if strings.TrimSpace(query) == "" {
		topK := s.clampTopK(req.TopK)
		result, err := s.fallback(ctx, topK, 0, req.OnlyVerified)
		if err != nil {
			metrics.RetrievalRequestsTotal.WithLabelValues("query", "error").Inc()
			return nil, err
		}
		metrics.RetrievalRequestsTotal.WithLabelValues("query", "fallback").Inc()
		return result, nil
	}
	return s.run(ctx, "query", profile.Attributes{}, query, 0, req)
}

// SearchConditions returns ranked mentors for structured search conditions.
// Conditions that render to an empty query text yield
// domain.ErrInsufficientProfile. Conversational callers get the lower
// enrichment fan-out regardless of req.Interactive.
func (s *Service) SearchConditions(
	ctx context.Context, cond profile.Conditions, req Request,
) (*mentor.RankedResult, error) {
	queryText := cond.QueryText()
	if queryText == "" {
		return nil, domain.ErrInsufficientProfile
	}
	req.Interactive = true
	return s.run(ctx, "conditions", cond.Attributes(), queryText, 0, req)
}

// run executes the full pipeline for an already-validated query.
func (s *Service) run(
	ctx context.Context,
	pipelineMode string,
	requester profile.Attributes,
	queryText string,
	excludeID int64,
	req Request,
) (*mentor.RankedResult, error) {
	start := time.Now()
	topK := s.clampTopK(req.TopK)

	emb, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(pipelineMode, "error").Inc()
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := s.candidateLimit(topK)
	hits, err := s.index.SearchSimilar(ctx, emb.Embedding, limit, excludeID)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(pipelineMode, "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}
	metrics.RetrievalCandidates.WithLabelValues("raw").Observe(float64(len(hits)))

	if len(hits) == 0 {
		return s.serveFallback(ctx, pipelineMode, topK, excludeID, req.OnlyVerified)
	}

	fanOut := s.opts.FanOut
	if req.Interactive {
		fanOut = s.opts.InteractiveFanOut
	}

	candidates, dropped := s.enrich(ctx, hits, requester, fanOut)
	if dropped > 0 {
		metrics.RetrievalDroppedTotal.Add(float64(dropped))
	}
	if req.OnlyVerified {
		candidates = filterVerified(candidates)
	}
	metrics.RetrievalCandidates.WithLabelValues("enriched").Observe(float64(len(candidates)))

	if len(candidates) == 0 {
		return s.serveFallback(ctx, pipelineMode, topK, excludeID, req.OnlyVerified)
	}

	accepted := applyCascade(candidates, topK, s.opts.JobStageThreshold)
	metrics.RetrievalCandidates.WithLabelValues("filtered").Observe(float64(len(accepted)))

	total := len(accepted)
	if len(accepted) > topK {
		accepted = accepted[:topK]
	}

	rerank(accepted, s.now())
	metrics.RetrievalCandidates.WithLabelValues("final").Observe(float64(len(accepted)))

	result := &mentor.RankedResult{
		Items:      accepted,
		TotalCount: total,
		Dropped:    dropped,
	}

	if req.WithGroundTruth && s.verifier != nil {
		s.annotateGroundTruth(ctx, result.Items)
		result.Evaluation = summarizeGroundTruth(result.Items)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues(pipelineMode, "ok").Inc()
	metrics.RetrievalDuration.WithLabelValues(pipelineMode).Observe(time.Since(start).Seconds())

	s.logger.Debug("Retrieval pipeline completed",
		zap.String("mode", pipelineMode),
		zap.Int("raw", len(hits)),
		zap.Int("dropped", dropped),
		zap.Int("accepted", total),
		zap.Int("returned", len(result.Items)),
		zap.Duration("took", time.Since(start)))

	return result, nil
}

func (s *Service) serveFallback(
	ctx context.Context, pipelineMode string, topK int, excludeID int64, onlyVerified bool,
) (*mentor.RankedResult, error) {
	result, err := s.fallback(ctx, topK, excludeID, onlyVerified)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(pipelineMode, "error").Inc()
		return nil, err
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(pipelineMode, "fallback").Inc()
	s.logger.Info("Serving response-rate fallback",
		zap.String("mode", pipelineMode),
		zap.Int("returned", len(result.Items)))
	return result, nil
}

// annotateGroundTruth attaches self-recovery diagnostics to the returned
// candidates. Probe failures are logged and leave the candidate unannotated.
func (s *Service) annotateGroundTruth(ctx context.Context, items []*mentor.Candidate) {
	for _, c := range items {
		d := mentor.Detail{
			ID:           c.ID,
			Jobs:         c.Jobs.Values(),
			Skills:       c.Skills.Values(),
			Introduction: c.Introduction,
		}
		record, err := s.verifier.Verify(ctx, d)
		if err != nil {
			s.logger.Warn("Ground-truth probe failed",
				zap.Int64("mentor_id", c.ID), zap.Error(err))
			continue
		}
		c.GroundTruth = &record
	}
}

// summarizeGroundTruth aggregates the per-candidate records into a summary;
// nil when no candidate was annotated.
func summarizeGroundTruth(items []*mentor.Candidate) *eval.Summary {
	details := make([]eval.Detail, 0, len(items))
	for _, c := range items {
		if c.GroundTruth == nil {
			continue
		}
		details = append(details, eval.Detail{
			MentorID: c.ID,
			IsHit:    c.GroundTruth.IsHit,
			Rank:     c.GroundTruth.Rank,
		})
	}
	if len(details) == 0 {
		return nil
	}
	summary := eval.Summarize(details)
	return &summary
}

func (s *Service) clampTopK(topK int) int {
	if topK <= 0 {
		return s.opts.DefaultTopK
	}
	if topK > s.opts.MaxTopK {
		return s.opts.MaxTopK
	}
	return topK
}

// candidateLimit widens the neighborhood so the cascade has room to filter.
func (s *Service) candidateLimit(topK int) int {
	limit := s.opts.CandidateMultiplier * topK
	if limit < s.opts.MinCandidates {
		limit = s.opts.MinCandidates
	}
	return limit
}

func filterVerified(candidates []*mentor.Candidate) []*mentor.Candidate {
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Verified {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

