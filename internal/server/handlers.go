package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/dashboard"
	"github.com/spigell/skill-navigator/internal/history"
	"github.com/spigell/skill-navigator/internal/listing"
	"github.com/spigell/skill-navigator/internal/scoring"
)

const maxBodyBytes = 1 << 20

type dashboardResponse struct {
	Jobs       []*scoring.ScoredJob `json:"jobs"`
	Stats      *listing.Stats       `json:"stats,omitempty"`
	Query      string               `json:"query"`
	Loading    bool                 `json:"loading"`
	Error      string               `json:"error,omitempty"`
	UpdatedAt  *time.Time           `json:"updated_at,omitempty"`
	Threshold  int                  `json:"auto_apply_threshold"`
	Candidates []int                `json:"auto_apply_candidates"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboardView())
}

func (s *Server) refreshDashboard(w http.ResponseWriter, r *http.Request) {
	s.loader.Refresh(r.Context())
	writeJSON(w, http.StatusOK, s.dashboardView())
}

func (s *Server) searchDashboard(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.loader.Store().Dispatch(dashboard.SearchSubmit{Query: req.Query})
	writeJSON(w, http.StatusOK, s.dashboardView())
}

func (s *Server) autoApply(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid job id"))
		return
	}

	job := s.loader.Store().Find(id)
	if job == nil {
		writeError(w, http.StatusNotFound, errors.New("job is not on the dashboard"))
		return
	}

	rec, err := s.applier.Apply(r.Context(), job)
	switch {
	case errors.Is(err, history.ErrNotCandidate):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, history.ErrAlreadyApplied):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		s.logger.Error("auto-apply failed", zap.Int("job_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.List(r.Context())
	if err != nil {
		s.logger.Error("listing applications failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid job id"))
		return
	}

	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	status, err := listing.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := history.Transition(r.Context(), s.history, id, status, req.Notes)
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, history.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		s.logger.Error("status update failed", zap.Int("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) dashboardView() dashboardResponse {
	store := s.loader.Store()
	state := store.Snapshot()
	visible := store.Visible()

	resp := dashboardResponse{
		Jobs:       visible,
		Stats:      state.Stats,
		Query:      state.Query,
		Loading:    state.Loading,
		Threshold:  int(s.applier.Threshold()),
		Candidates: []int{},
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	if !state.UpdatedAt.IsZero() {
		updated := state.UpdatedAt.UTC()
		resp.UpdatedAt = &updated
	}
	for _, job := range s.applier.Candidates(visible) {
		resp.Candidates = append(resp.Candidates, job.ID)
	}

	return resp
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
