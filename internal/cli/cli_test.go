package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	server *httptest.Server
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestEnv(t *testing.T, mux *http.ServeMux) *testEnv {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
}

func (e *testEnv) run(t *testing.T, jsonMode bool, factory func(func() *Client, func() *Output) *cobra.Command, args ...string) error {
	t.Helper()
	clientFn := func() *Client { return NewClient(e.server.URL + "/") }
	outputFn := func() *Output { return NewOutputTo(e.out, e.errOut, jsonMode) }

	cmd := factory(clientFn, outputFn)
	if args == nil {
		// nil заставляет cobra читать os.Args тестового бинаря.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

var sampleStore = StoreResponse{
	ID:        "store-1a2b3c4d",
	Name:      "Acme",
	Type:      "woocommerce",
	Status:    "ready",
	Namespace: "store-1a2b3c4d",
	URL:       "http://store-1a2b3c4d.10.0.0.1.nip.io",
	AdminURL:  "http://store-1a2b3c4d.10.0.0.1.nip.io/wp-admin",
	CreatedAt: "2026-01-01T00:00:00Z",
	UpdatedAt: "2026-01-01T00:05:00Z",
}

// --- Client Tests ---

func TestClient_ListStoresQuery(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stores", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{"data": []StoreResponse{sampleStore}, "total": 1})
	})
	env := newTestEnv(t, mux)

	stores, err := NewClient(env.server.URL).ListStores(ListStoresOpts{Status: "ready", IncludeDeleted: true, Limit: 5})
	if err != nil {
		t.Fatalf("ListStores: %v", err)
	}
	if len(stores) != 1 || stores[0].ID != sampleStore.ID {
		t.Errorf("stores = %+v", stores)
	}
	for _, want := range []string{"status=ready", "include_deleted=true", "limit=5"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestClient_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stores", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]string{"code": "QUOTA_EXCEEDED", "message": "store limit reached"},
		})
	})
	env := newTestEnv(t, mux)

	_, err := NewClient(env.server.URL).CreateStore(CreateStoreRequest{Name: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Code != "QUOTA_EXCEEDED" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if err.Error() != "QUOTA_EXCEEDED: store limit reached" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	env := newTestEnv(t, mux)

	_, err := NewClient(env.server.URL).GetMetrics()
	if err == nil || err.Error() != "API error: HTTP 502" {
		t.Errorf("err = %v", err)
	}
}

// --- Store Command Tests ---

func TestStoreList_Table(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stores", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []StoreResponse{sampleStore}, "total": 1})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, false, NewStoreCmd, "list"); err != nil {
		t.Fatalf("store list: %v", err)
	}
	out := env.out.String()
	for _, want := range []string{"ID", "STATUS", sampleStore.ID, "Acme", "ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStoreList_JSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stores", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []StoreResponse{sampleStore}, "total": 1})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, true, NewStoreCmd, "list"); err != nil {
		t.Fatalf("store list: %v", err)
	}
	var got []StoreResponse
	if err := json.Unmarshal(env.out.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, env.out.String())
	}
	if len(got) != 1 || got[0].URL != sampleStore.URL {
		t.Errorf("got = %+v", got)
	}
}

func TestStoreCreate(t *testing.T) {
	var req CreateStoreRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stores", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusAccepted, map[string]any{"data": SubmissionResponse{
			ID: "store-1a2b3c4d", Name: req.Name, Status: "queued", QueuePosition: 2, Message: "Store queued",
		}})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, false, NewStoreCmd, "create", "Acme"); err != nil {
		t.Fatalf("store create: %v", err)
	}
	if req.Name != "Acme" || req.Type != "woocommerce" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(env.errOut.String(), "position 2") {
		t.Errorf("stderr = %q", env.errOut.String())
	}
	if !strings.Contains(env.out.String(), "store-1a2b3c4d") {
		t.Errorf("stdout = %q", env.out.String())
	}
}

func TestStoreCreate_Wait(t *testing.T) {
	old := pollInterval
	pollInterval = time.Millisecond
	t.Cleanup(func() { pollInterval = old })

	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stores", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]any{"data": SubmissionResponse{ID: sampleStore.ID, Status: "provisioning"}})
	})
	mux.HandleFunc("GET /api/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		s := sampleStore
		if polls.Add(1) < 3 {
			s.Status = "provisioning"
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": StoreDetailResponse{Store: s}})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, false, NewStoreCmd, "create", "Acme", "--wait"); err != nil {
		t.Fatalf("store create --wait: %v", err)
	}
	if polls.Load() != 3 {
		t.Errorf("polls = %d, want 3", polls.Load())
	}
	if !strings.Contains(env.out.String(), sampleStore.AdminURL) {
		t.Errorf("stdout = %q", env.out.String())
	}
}

func TestStoreCreate_WaitFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stores", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]any{"data": SubmissionResponse{ID: sampleStore.ID, Status: "provisioning"}})
	})
	mux.HandleFunc("GET /api/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		s := sampleStore
		s.Status = "failed"
		s.Error = "helm install failed"
		writeJSON(w, http.StatusOK, map[string]any{"data": StoreDetailResponse{Store: s}})
	})
	env := newTestEnv(t, mux)

	err := env.run(t, false, NewStoreCmd, "create", "Acme", "--wait")
	if err == nil || !strings.Contains(err.Error(), "helm install failed") {
		t.Errorf("err = %v", err)
	}
}

func TestStoreShow(t *testing.T) {
	var gotID string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotID = r.PathValue("id")
		writeJSON(w, http.StatusOK, map[string]any{"data": StoreDetailResponse{
			Store: sampleStore,
			Events: []EventResponse{
				{ID: 1, StoreID: sampleStore.ID, Type: "provisioning_started", Message: "Provisioning started", Severity: "info"},
			},
		}})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, false, NewStoreCmd, "show", sampleStore.ID); err != nil {
		t.Fatalf("store show: %v", err)
	}
	if gotID != sampleStore.ID {
		t.Errorf("path id = %q", gotID)
	}
	out := env.out.String()
	for _, want := range []string{"Admin URL:", sampleStore.AdminURL, "provisioning_started"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Error:") {
		t.Errorf("empty fields must be skipped:\n%s", out)
	}
}

func TestStoreDelete_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]string{"code": "NOT_FOUND", "message": "store not found"},
		})
	})
	env := newTestEnv(t, mux)

	err := env.run(t, false, NewStoreCmd, "delete", "store-deadbeef")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "NOT_FOUND" {
		t.Errorf("err = %v", err)
	}
}

func TestStoreDelete_Wait(t *testing.T) {
	old := pollInterval
	pollInterval = time.Millisecond
	t.Cleanup(func() { pollInterval = old })

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]any{"data": SubmissionResponse{ID: r.PathValue("id"), Status: "deleting"}})
	})
	mux.HandleFunc("GET /api/stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		s := sampleStore
		s.Status = "deleted"
		writeJSON(w, http.StatusOK, map[string]any{"data": StoreDetailResponse{Store: s}})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, false, NewStoreCmd, "delete", sampleStore.ID, "--wait"); err != nil {
		t.Fatalf("store delete --wait: %v", err)
	}
	if !strings.Contains(env.errOut.String(), "Store deleted: "+sampleStore.ID) {
		t.Errorf("stderr = %q", env.errOut.String())
	}
}

// --- Events & Metrics Tests ---

func TestEvents(t *testing.T) {
	var gotLimit string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(w, http.StatusOK, map[string]any{"data": []EventResponse{
			{ID: 2, StoreID: sampleStore.ID, StoreName: "Acme", Type: "store_ready", Message: "Store is ready", Severity: "info"},
		}, "total": 1})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, false, NewEventsCmd, "--limit", "10"); err != nil {
		t.Fatalf("events: %v", err)
	}
	if gotLimit != "10" {
		t.Errorf("limit = %q", gotLimit)
	}
	if !strings.Contains(env.out.String(), "Acme") || !strings.Contains(env.out.String(), "store_ready") {
		t.Errorf("stdout = %q", env.out.String())
	}
}

func TestMetrics_JSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": MetricsResponse{Total: 4, Active: 2, Provisioning: 1, Failed: 1, ActiveWorkers: 1}})
	})
	env := newTestEnv(t, mux)

	if err := env.run(t, true, NewMetricsCmd); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	var got MetricsResponse
	if err := json.Unmarshal(env.out.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if got.Total != 4 || got.Active != 2 || got.ActiveWorkers != 1 {
		t.Errorf("got = %+v", got)
	}
}
