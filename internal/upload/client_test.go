package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/intake"
	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

func newTestClient(url string) *Client {
	c := NewClient(url, "test-key")
	c.retryDelay = time.Millisecond
	return c
}

func writeCreated(t *testing.T, w http.ResponseWriter, row models.ProgramRow) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(row); err != nil {
		t.Error(err)
	}
}

// TestPostProgram verifies the path, API key and upload source are sent.
func TestPostProgram(t *testing.T) {
	id := uuid.New()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/programs" {
			t.Errorf("path=%s, want /api/v1/programs", r.URL.Path)
		}
		if got := r.URL.Query().Get("source"); got != models.SourceUpload {
			t.Errorf("source=%q, want upload", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("api key=%q", got)
		}
		var req intake.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		writeCreated(t, w, models.ProgramRow{ID: id, ClientName: req.ClientName, TotalNL: 350})
	}))
	defer ts.Close()

	row, err := newTestClient(ts.URL+"/").PostProgram(context.Background(), intake.Request{ClientName: "Anna"})
	if err != nil {
		t.Fatal(err)
	}
	if row.ID != id || row.ClientName != "Anna" {
		t.Errorf("row = %+v", row)
	}
}

// TestImportCSV verifies the sheet is sent raw with client and block params.
func TestImportCSV(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/programs/import" {
			t.Errorf("path=%s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("client") != "Ben" || q.Get("block") != "peak" {
			t.Errorf("query=%v", q)
		}
		if ct := r.Header.Get("Content-Type"); ct != "text/csv" {
			t.Errorf("content type=%q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "a;b\n" {
			t.Errorf("body=%q", body)
		}
		writeCreated(t, w, models.ProgramRow{ID: uuid.New(), ClientName: "Ben"})
	}))
	defer ts.Close()

	if _, err := newTestClient(ts.URL).ImportCSV(context.Background(), "Ben", "peak", []byte("a;b\n")); err != nil {
		t.Fatal(err)
	}
}

// TestSendRetries verifies server errors are retried until success.
func TestSendRetries(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeCreated(t, w, models.ProgramRow{ID: uuid.New()})
	}))
	defer ts.Close()

	if _, err := newTestClient(ts.URL).PostProgram(context.Background(), intake.Request{}); err != nil {
		t.Fatal(err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts=%d, want 3", got)
	}
}

// TestSendGivesUp verifies the last error is returned after three attempts.
func TestSendGivesUp(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).PostProgram(context.Background(), intake.Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts=%d, want 3", got)
	}
}

// TestSendRejectedNotRetried verifies 4xx answers return at once as RejectedError.
func TestSendRejectedNotRetried(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"squat: input_shape: volume=0: must be positive"}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).PostProgram(context.Background(), intake.Request{})
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error = %v, want *RejectedError", err)
	}
	if rejected.Status != http.StatusUnprocessableEntity {
		t.Errorf("status=%d", rejected.Status)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts=%d, want 1", got)
	}
}
