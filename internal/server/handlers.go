package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/intake"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// maxBodyBytes bounds request bodies; a full three-lift document is a few KB.
const maxBodyBytes = 1 << 20

// errorBody is the JSON error response. Engine errors fill every field.
type errorBody struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Lift    string   `json:"lift,omitempty"`
	Field   string   `json:"field,omitempty"`
	Value   any      `json:"value,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}

	var key []byte
	if s.cache != nil {
		k, err := cacheKey(in)
		if err == nil {
			key = k
			if data, ok := s.cache.Get(key); ok {
				w.Header().Set("X-Cache", "hit")
				writeRawJSON(w, http.StatusOK, data)
				return
			}
		}
	}

	out, err := s.calc.Calculate(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		s.writeError(w, fmt.Errorf("encoding output: %w", err))
		return
	}
	if key != nil {
		if err := s.cache.Set(key, data); err != nil {
			s.log.Warn("calculation not cached", "error", err)
		}
	}
	writeRawJSON(w, http.StatusOK, data)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req intake.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}
	req.CoachID = coachFromContext(r).ID
	req.Source = r.URL.Query().Get("source")
	if req.Source != models.SourceUpload {
		req.Source = models.SourceAPI
	}

	row, err := s.intake.Save(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.countProgram(row.Source)
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleImportProgram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := intake.Request{
		CoachID:    coachFromContext(r).ID,
		ClientName: q.Get("client"),
		Block:      q.Get("block"),
		Source:     models.SourceCSV,
	}
	if q.Get("source") == models.SourceUpload {
		req.Source = models.SourceUpload
	}

	row, err := s.intake.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.countProgram(row.Source)
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.db.ListPrograms(r.Context(), r.URL.Query().Get("client"), parseLimit(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid program ID"})
		return
	}

	program, err := s.db.GetProgram(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, engine.Tables())
}

func (s *Server) handleCalculationLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.db.QueryCalculationLogs(r.Context(), parseLimit(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetProgramStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, coachFromContext(r))
}

func (s *Server) countProgram(source string) {
	if s.metrics != nil {
		s.metrics.CounterPrograms.WithLabelValues(source).Inc()
	}
}

// writeError maps domain errors to status codes: engine errors are 422,
// malformed CSV is 400, missing rows are 404, everything else is 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ee *engine.Error
	if errors.As(err, &ee) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: ee.Error(),
			Kind:  ee.Kind.String(),
			Lift:  ee.Lift,
			Field: ee.Field,
			Value: ee.Value,
		})
		return
	}

	var le *intake.LineError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &le) || errors.Is(err, intake.ErrNoRows) || errors.Is(err, intake.ErrNoHeader):
		body := errorBody{Error: err.Error()}
		for _, e := range multierr.Errors(errors.Unwrap(err)) {
			body.Details = append(body.Details, e.Error())
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "program not found"})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

// decodeJSON strictly decodes a bounded request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimit(r *http.Request) int {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, 500)
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
