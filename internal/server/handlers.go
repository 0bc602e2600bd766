package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/apply-pilot/internal/pipeline"
	"github.com/jonathan/apply-pilot/internal/platform"
	"github.com/jonathan/apply-pilot/internal/store"
)

// ListJobsResponse represents the response for listing jobs.
type ListJobsResponse struct {
	Jobs  []*store.JobRecord `json:"jobs"`
	Count int                `json:"count"`
}

// AddJobRequest represents the body for adding a job by hand.
type AddJobRequest struct {
	URL       string `json:"url" validate:"required,url"`
	Company   string `json:"company"`
	RoleTitle string `json:"role_title"`
	JDText    string `json:"jd_text"`
}

// RejectRequest carries the optional rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// StatsResponse represents pipeline statistics.
type StatsResponse struct {
	States      map[store.State]int `json:"states"`
	Total       int                 `json:"total"`
	SuccessRate float64             `json:"success_rate"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var filter store.Filter
	if stateStr := r.URL.Query().Get("state"); stateStr != "" {
		state := store.State(stateStr)
		if !state.Valid() {
			s.errorResponse(w, http.StatusBadRequest, "Invalid state filter: "+stateStr)
			return
		}
		filter.State = state
	}

	jobs, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, ListJobsResponse{Jobs: jobs, Count: len(jobs)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.actionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleAddJob(w http.ResponseWriter, r *http.Request) {
	var req AddJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	job, created, err := s.store.Insert(r.Context(), store.InsertInput{
		URL:       req.URL,
		Company:   req.Company,
		RoleTitle: req.RoleTitle,
		JDText:    req.JDText,
		Platform:  platform.Detect(req.URL),
		Source:    "manual",
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if !created {
		s.jsonResponse(w, http.StatusOK, job)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, func(id uuid.UUID) (*store.JobRecord, error) {
		return s.orch.Approve(r.Context(), id)
	})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, func(id uuid.UUID) (*store.JobRecord, error) {
		return s.orch.Skip(r.Context(), id)
	})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	s.action(w, r, func(id uuid.UUID) (*store.JobRecord, error) {
		return s.orch.Reject(r.Context(), id, req.Reason)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Stats(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	attempted := counts[store.StateSubmitted] + counts[store.StateRejected]
	rate := 0.0
	if attempted > 0 {
		rate = float64(counts[store.StateSubmitted]) / float64(attempted)
	}
	s.jsonResponse(w, http.StatusOK, StatsResponse{States: counts, Total: total, SuccessRate: rate})
}

// action runs one orchestrator action against the path ID and renders the
// updated record or the mapped error.
func (s *Server) action(w http.ResponseWriter, r *http.Request, fn func(uuid.UUID) (*store.JobRecord, error)) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	job, err := fn(id)
	if err != nil {
		s.actionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return uuid.Nil, false
	}
	return id, true
}

// actionError maps pipeline and store errors onto HTTP statuses.
func (s *Server) actionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.errorResponse(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, store.ErrInvalidTransition):
		s.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, pipeline.ErrJobBusy):
		s.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, pipeline.ErrUnsupportedPlatform):
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}
