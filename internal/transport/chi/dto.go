package chi

import (
	"time"

	"github.com/mentorlink/mentordex/internal/domain/eval"
	"github.com/mentorlink/mentordex/internal/domain/mentor"
	"github.com/mentorlink/mentordex/internal/domain/profile"
)

// Error codes returned to clients.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeMentorNotFound         = "mentor_not_found"
	codeInsufficientProfile    = "insufficient_profile"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeRetrievalFailed        = "retrieval_failed"
	codeRateLimited            = "rate_limited"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type conditionsErrorResponse struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type searchRequest struct {
	Query           string            `json:"query"`
	Conditions      *searchConditions `json:"conditions,omitempty"`
	TopK            int               `json:"top_k,omitempty"`
	OnlyVerified    bool              `json:"only_verified,omitempty"`
	WithGroundTruth bool              `json:"with_ground_truth,omitempty"`
}

type searchConditions struct {
	Job             string   `json:"job,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Domain          string   `json:"domain,omitempty"`
	Region          string   `json:"region,omitempty"`
	CompanyType     string   `json:"company_type,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

func (c *searchConditions) toDomain() profile.Conditions {
	return profile.Conditions{
		Job:             c.Job,
		Skills:          c.Skills,
		ExperienceYears: c.ExperienceYears,
		Domain:          c.Domain,
		Region:          c.Region,
		CompanyType:     c.CompanyType,
		Keywords:        c.Keywords,
	}
}

type mentorItem struct {
	ID           int64              `json:"id"`
	Nickname     string             `json:"nickname"`
	CompanyName  string             `json:"company_name,omitempty"`
	Verified     bool               `json:"verified"`
	RatingAvg    float64            `json:"rating_avg"`
	RatingCount  int                `json:"rating_count"`
	ResponseRate float64            `json:"response_rate"`
	Skills       []string           `json:"skills,omitempty"`
	Jobs         []string           `json:"jobs,omitempty"`
	Introduction string             `json:"introduction,omitempty"`
	Similarity   float64            `json:"similarity"`
	RerankScore  float64            `json:"rerank_score"`
	FilterTag    string             `json:"filter_tag"`
	LastActiveAt *time.Time         `json:"last_active_at,omitempty"`
	GroundTruth  *groundTruthRecord `json:"ground_truth,omitempty"`
}

type groundTruthRecord struct {
	IsHit bool `json:"is_hit"`
	Rank  int  `json:"rank,omitempty"`
}

type rankedResponse struct {
	Items      []mentorItem        `json:"items"`
	TotalCount int                 `json:"total_count"`
	Dropped    int                 `json:"dropped,omitempty"`
	Evaluation *evaluationResponse `json:"evaluation,omitempty"`
}

func rankedResultToResponse(result *mentor.RankedResult) rankedResponse {
	items := make([]mentorItem, len(result.Items))
	for i, c := range result.Items {
		items[i] = candidateToItem(c)
	}
	resp := rankedResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Dropped:    result.Dropped,
	}
	if result.Evaluation != nil {
		summary := summaryToResponse(*result.Evaluation)
		resp.Evaluation = &summary
	}
	return resp
}

func candidateToItem(c *mentor.Candidate) mentorItem {
	item := mentorItem{
		ID:           c.ID,
		Nickname:     c.Nickname,
		CompanyName:  c.CompanyName,
		Verified:     c.Verified,
		RatingAvg:    c.RatingAvg,
		RatingCount:  c.RatingCount,
		ResponseRate: c.ResponseRate,
		Skills:       c.Skills.Values(),
		Jobs:         c.Jobs.Values(),
		Introduction: c.Introduction,
		Similarity:   c.Similarity,
		RerankScore:  c.RerankScore(),
		FilterTag:    string(c.Tag()),
		LastActiveAt: c.LastActiveAt,
	}
	if c.GroundTruth != nil {
		item.GroundTruth = &groundTruthRecord{
			IsHit: c.GroundTruth.IsHit,
			Rank:  c.GroundTruth.Rank,
		}
	}
	return item
}

type evaluationDetail struct {
	MentorID       int64   `json:"mentor_id"`
	IsHit          bool    `json:"is_hit"`
	Rank           int     `json:"rank,omitempty"`
	RecommendedIDs []int64 `json:"recommended_ids"`
}

type evaluationResponse struct {
	HitAt1  float64            `json:"hit_at_1"`
	HitAt3  float64            `json:"hit_at_3"`
	HitAt5  float64            `json:"hit_at_5"`
	HitAt10 float64            `json:"hit_at_10"`
	MRR     float64            `json:"mrr"`
	Total   int                `json:"total"`
	Details []evaluationDetail `json:"details"`
}

func summaryToResponse(s eval.Summary) evaluationResponse {
	details := make([]evaluationDetail, len(s.Details))
	for i, d := range s.Details {
		details[i] = evaluationDetail{
			MentorID:       d.MentorID,
			IsHit:          d.IsHit,
			Rank:           d.Rank,
			RecommendedIDs: d.RecommendedIDs,
		}
	}
	return evaluationResponse{
		HitAt1:  s.HitAt1,
		HitAt3:  s.HitAt3,
		HitAt5:  s.HitAt5,
		HitAt10: s.HitAt10,
		MRR:     s.MRR,
		Total:   s.Total,
		Details: details,
	}
}
