// Package mentor models catalog entries as they move through the retrieval
// pipeline: the raw detail record, the per-request Candidate built from it,
// and the ranked result returned to callers.
package mentor

import (
	"math"
	"time"

	"github.com/mentorlink/mentordex/internal/domain/eval"
	"github.com/mentorlink/mentordex/internal/domain/profile"
)

// FilterTag records which cascade stage accepted a candidate.
type FilterTag string

const (
	// TagNone marks a candidate not yet accepted by any stage.
	TagNone FilterTag = ""
	// TagJob marks a job-set intersection match.
	TagJob FilterTag = "job"
	// TagSkill marks a skill-expansion match.
	TagSkill FilterTag = "skill"
	// TagResponseRate marks a response-rate fallback fill.
	TagResponseRate FilterTag = "response_rate"
	// TagFallbackResponseRate marks the degraded whole-catalog fallback path.
	TagFallbackResponseRate FilterTag = "fallback_response_rate"
)

// Hit is a raw nearest-neighbor match: the catalog id and its similarity
// (1 minus cosine distance, clamped to [0,1] by the store).
type Hit struct {
	ID         int64
	Similarity float64
}

// Detail is a full catalog record as stored, before any request context is applied.
type Detail struct {
	ID             int64
	Nickname       string
	CompanyName    string
	Verified       bool
	RatingAvg      float64
	RatingCount    int
	RespondedCount int
	AcceptedCount  int
	Skills         []string
	Jobs           []string
	Introduction   string
	LastActiveAt   *time.Time
}

// ResponseRate derives the acceptance percentage; 0 when nothing was responded.
func (d Detail) ResponseRate() float64 {
	if d.RespondedCount <= 0 {
		return 0
	}
	return round(float64(d.AcceptedCount)/float64(d.RespondedCount)*100, 1)
}

// Attributes projects the detail onto a profile snapshot, used when a mentor
// plays the requester role (self-recovery evaluation).
func (d Detail) Attributes() profile.Attributes {
	return profile.NewAttributes(d.Jobs, d.Skills, d.Introduction)
}

// GroundTruthRecord is a per-candidate self-recovery diagnostic. It never
// affects ranking.
type GroundTruthRecord struct {
	IsHit bool
	Rank  int // 1-based; 0 when absent
}

// Candidate is a catalog entry surfaced by a similarity search, built exactly
// once at the aggregation boundary and only annotated (never re-shaped)
// downstream. The filter tag is assigned at most once; the rerank score is
// set only by the scoring pass.
type Candidate struct {
	ID           int64
	Nickname     string
	CompanyName  string
	Verified     bool
	RatingAvg    float64
	RatingCount  int
	ResponseRate float64
	Skills       profile.LabelSet
	Jobs         profile.LabelSet
	Introduction string
	Similarity   float64
	LastActiveAt *time.Time
	GroundTruth  *GroundTruthRecord

	jobMatched   bool
	skillMatched bool
	skillOverlap int
	filterTag    FilterTag
	rerankScore  float64
	scored       bool
}

// NewCandidate builds a candidate from a catalog detail and its similarity
// score, matched against the requester's attributes. Matching is computed
// here once; cascade and rerank only read it.
func NewCandidate(d Detail, similarity float64, requester profile.Attributes) *Candidate {
	jobs := profile.NewLabelSet(d.Jobs...)
	skills := profile.NewLabelSet(d.Skills...)
	overlap := skills.IntersectionSize(requester.Skills())

	return &Candidate{
		ID:           d.ID,
		Nickname:     d.Nickname,
		CompanyName:  d.CompanyName,
		Verified:     d.Verified,
		RatingAvg:    round(d.RatingAvg, 1),
		RatingCount:  d.RatingCount,
		ResponseRate: d.ResponseRate(),
		Skills:       skills,
		Jobs:         jobs,
		Introduction: d.Introduction,
		Similarity:   round(similarity, 4),
		LastActiveAt: d.LastActiveAt,
		jobMatched:   jobs.Intersects(requester.Jobs()),
		skillMatched: overlap > 0,
		skillOverlap: overlap,
	}
}

// JobMatched reports whether the candidate's jobs intersect the requester's.
func (c *Candidate) JobMatched() bool { return c.jobMatched }

// SkillMatched reports whether any skill overlaps the requester's.
func (c *Candidate) SkillMatched() bool { return c.skillMatched }

// SkillOverlap returns the number of overlapping skills.
func (c *Candidate) SkillOverlap() int { return c.skillOverlap }

// Tag returns the filter tag, TagNone until accepted.
func (c *Candidate) Tag() FilterTag { return c.filterTag }

// Accept assigns the filter tag on first acceptance. A tag, once set, is
// never overwritten; Accept reports whether this call performed the assignment.
func (c *Candidate) Accept(tag FilterTag) bool {
	if c.filterTag != TagNone || tag == TagNone {
		return false
	}
	c.filterTag = tag
	return true
}

// RerankScore returns the assigned rerank score (0 until scored).
func (c *Candidate) RerankScore() float64 { return c.rerankScore }

// Scored reports whether the rerank pass has run for this candidate.
func (c *Candidate) Scored() bool { return c.scored }

// SetRerankScore records the rerank score, rounded to 4 decimals.
func (c *Candidate) SetRerankScore(score float64) {
	c.rerankScore = round(score, 4)
	c.scored = true
}

// RankedResult is the bounded, ordered response of a retrieval call.
type RankedResult struct {
	Items      []*Candidate
	TotalCount int
	Dropped    int // detail fetches that failed or timed out and were skipped
	Evaluation *eval.Summary
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
