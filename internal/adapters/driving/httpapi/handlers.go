package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// maxAskBody caps the size of a question request.
const maxAskBody = 64 << 10

// AskRequest is the body of POST /v1/questions.
type AskRequest struct {
	Question string `json:"question"`
	ID       int    `json:"id,omitempty"`
}

// AskResponse reports one workflow run.
type AskResponse struct {
	RunID         string   `json:"run_id"`
	QuestionID    int      `json:"question_id"`
	Answer        string   `json:"answer"`
	Results       []string `json:"results"`
	ResultIDs     string   `json:"result_ids,omitempty"`
	LowConfidence bool     `json:"low_confidence"`
	Route         string   `json:"route,omitempty"`
	Regenerations int      `json:"regenerations"`
	Escalations   int      `json:"escalations"`
	Trace         []string `json:"trace"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.ports.Workflow.RunWorkflow(r.Context(), req.Question, req.ID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.response(result))
}

func (s *Server) handleReloadPrompts(w http.ResponseWriter, _ *http.Request) {
	if s.ports.Prompts == nil {
		writeError(w, http.StatusNotFound, "prompt store not configured")
		return
	}
	s.ports.Prompts.Reload()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) response(result domain.WorkflowResult) AskResponse {
	state := result.State
	resp := AskResponse{
		RunID:         state.RunID,
		QuestionID:    state.QuestionID,
		Answer:        result.Answer,
		Results:       result.Results,
		LowConfidence: result.LowConfidence,
		Route:         string(state.Route),
		Regenerations: state.Regenerations,
		Escalations:   state.Escalations,
		Trace:         make([]string, len(state.Trace)),
	}
	if resp.Results == nil {
		resp.Results = []string{}
	}
	for i, stage := range state.Trace {
		resp.Trace[i] = string(stage)
	}
	if s.ports.Formatter != nil {
		resp.ResultIDs = s.ports.Formatter.Format(result.Results)
	}
	return resp
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
