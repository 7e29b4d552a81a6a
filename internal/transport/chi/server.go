// Package chi exposes the retrieval pipeline over HTTP: recommendations by
// requester id, free-text and structured search, self-recovery evaluation,
// and the health and metrics endpoints.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mentorlink/mentordex/internal/domain"
	logpkg "github.com/mentorlink/mentordex/internal/logger"
	evaluateuc "github.com/mentorlink/mentordex/internal/usecase/evaluate"
	healthuc "github.com/mentorlink/mentordex/internal/usecase/health"
	recommenduc "github.com/mentorlink/mentordex/internal/usecase/recommend"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the use case services into HTTP handlers.
type Server struct {
	recommend     *recommenduc.Service
	evaluate      *evaluateuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	evaluate *evaluateuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend: recommend,
		evaluate:  evaluate,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMentorNotFound, http.StatusNotFound, codeMentorNotFound),
		sentinelHandler(domain.ErrInsufficientProfile, http.StatusBadRequest, codeInsufficientProfile),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusBadGateway, codeRetrievalFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
	}
	return s
}

// Routes registers the API routes on an already-configured router; middleware
// is the caller's concern.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Get("/mentors/{userID}/recommendations", s.GetRecommendations)
		r.Post("/mentors/search", s.SearchMentors)
		r.Get("/evaluation", s.GetEvaluation)
	})
}

// GetRecommendations handles GET /api/v1/mentors/{userID}/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chirouter.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user id must be a positive integer")
		return
	}

	req, err := requestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	result, err := s.recommend.Recommend(r.Context(), userID, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rankedResultToResponse(result))
}

// SearchMentors handles POST /api/v1/mentors/search. The body carries either
// a free-text query or structured conditions; conditions win when both are set.
func (s *Server) SearchMentors(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req := recommenduc.Request{
		TopK:            body.TopK,
		OnlyVerified:    body.OnlyVerified,
		WithGroundTruth: body.WithGroundTruth,
	}

	if body.Conditions != nil {
		cond := body.Conditions.toDomain()
		result, err := s.recommend.SearchConditions(r.Context(), cond, req)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientProfile) {
				writeJSON(w, http.StatusBadRequest, conditionsErrorResponse{
					Code:          codeInsufficientProfile,
					Message:       domain.ErrInsufficientProfile.Error(),
					MissingFields: cond.MissingFields(),
				})
				return
			}
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rankedResultToResponse(result))
		return
	}

	result, err := s.recommend.Search(r.Context(), body.Query, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankedResultToResponse(result))
}

// GetEvaluation handles GET /api/v1/evaluation.
func (s *Server) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	sampleSize := 0
	if raw := r.URL.Query().Get("sample_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "sample_size must be a positive integer")
			return
		}
		sampleSize = n
	}

	summary, err := s.evaluate.Evaluate(r.Context(), sampleSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryToResponse(summary))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// requestFromQuery parses the shared retrieval knobs from query parameters.
func requestFromQuery(r *http.Request) (recommenduc.Request, error) {
	var req recommenduc.Request

	q := r.URL.Query()
	if raw := q.Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return req, errors.New("top_k must be a positive integer")
		}
		req.TopK = n
	}
	if raw := q.Get("only_verified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errors.New("only_verified must be a boolean")
		}
		req.OnlyVerified = v
	}
	if raw := q.Get("with_ground_truth"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errors.New("with_ground_truth must be a boolean")
		}
		req.WithGroundTruth = v
	}

	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMentorNotFound,
		domain.ErrInsufficientProfile,
		domain.ErrEmbeddingProviderError,
		domain.ErrRetrievalFailed,
		domain.ErrRateLimited,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// requestLogger prefers the request-scoped logger installed by the wide-event
// middleware, falling back to the server logger.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l, ok := logpkg.FromContext(r.Context()); ok {
		return l
	}
	return s.logger
}
