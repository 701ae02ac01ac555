package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestCalculateRemote verifies the input document is POSTed and the
// calculated output decoded.
func TestCalculateRemote(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/calculate": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			body, _ := io.ReadAll(r.Body)
			var in engine.Input
			if err := json.Unmarshal(body, &in); err != nil {
				t.Errorf("server got invalid JSON: %v", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out, err := engine.NewCalculator(nil).Calculate(r.Context(), in)
			if err != nil {
				t.Errorf("calculate: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeTestJSON(t, w, out)
		},
	})
	defer ts.Close()

	out, err := NewHTTPClient(ts.URL+"/").Calculate(context.Background(), squatInput())
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Calculated[engine.LiftSquat].Summary.BlockARI; got != 72.5 {
		t.Errorf("block_ari=%v, want 72.5", got)
	}
}

// TestCalculateRemoteEngineError verifies a 422 body is decoded into a RemoteError.
func TestCalculateRemoteEngineError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/calculate": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			writeTestJSON(t, w, map[string]any{
				"error": "squat: configuration: volume_pattern_main=\"9z\": unknown volume pattern",
				"kind":  "configuration",
				"lift":  "squat",
				"field": "volume_pattern_main",
			})
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Calculate(context.Background(), squatInput())
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if re.Status != http.StatusUnprocessableEntity || re.Kind != "configuration" || re.Field != "volume_pattern_main" {
		t.Errorf("remote error = %+v", re)
	}
}

// TestListProgramsRemote verifies the client filter and limit are sent as query params.
func TestListProgramsRemote(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/programs": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("client"); got != "Anna" {
				t.Errorf("client=%q, want Anna", got)
			}
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, []models.ProgramSummary{{ID: id, ClientName: "Anna", TotalNL: 350}})
		},
	})
	defer ts.Close()

	programs, err := NewHTTPClient(ts.URL).ListPrograms(context.Background(), "Anna", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(programs) != 1 || programs[0].ID != id || programs[0].TotalNL != 350 {
		t.Errorf("programs = %+v", programs)
	}
}

// TestGetProgramRemote verifies the program ID is placed in the path.
func TestGetProgramRemote(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/programs/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.ProgramRow{ID: id, ClientName: "Ben", Calculated: json.RawMessage(`{}`)})
		},
	})
	defer ts.Close()

	program, err := NewHTTPClient(ts.URL).GetProgram(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if program.ClientName != "Ben" {
		t.Errorf("client=%q, want Ben", program.ClientName)
	}
}

// TestPatternsAndStatsRemote verifies single-object responses decode.
func TestPatternsAndStatsRemote(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/patterns": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, engine.Tables())
		},
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, storage.ProgramStats{TotalPrograms: 12, TotalClients: 4})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	tables, err := client.Patterns(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tables.VolumePatternsVersion != engine.VolumePatternsVersion {
		t.Errorf("version=%q, want %q", tables.VolumePatternsVersion, engine.VolumePatternsVersion)
	}

	stats, err := client.GetProgramStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalPrograms != 12 || stats.TotalClients != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestHTTPErrorPlainBody verifies non-JSON error bodies are kept verbatim.
func TestHTTPErrorPlainBody(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).GetProgramStats(context.Background())
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if re.Message != "upstream down" || re.Status != http.StatusBadGateway {
		t.Errorf("remote error = %+v", re)
	}
}
