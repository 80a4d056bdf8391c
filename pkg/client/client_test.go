package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/client"
	"github.com/goliatone/go-formstate/pkg/submission"
)

func newAPIServer(t *testing.T, forms, submissions map[string]any, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/form/{formID}", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		record, ok := forms[r.PathValue("formID")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(record)
	})
	mux.HandleFunc("GET /api/v1/form/{formID}/data/{submissionID}", func(w http.ResponseWriter, r *http.Request) {
		record, ok := submissions[r.PathValue("submissionID")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(record)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testFormRecord() map[string]any {
	return map[string]any{
		"id":   "f-1",
		"name": "Contact",
		"schema": map[string]any{
			"steps": []any{
				map[string]any{
					"id": "s1",
					"fields": []any{
						map[string]any{"id": "fld1", "name": "email", "label": "Email", "type": "email"},
						map[string]any{"id": "fld2", "name": "fullName", "label": "Full Name", "type": "text"},
					},
				},
			},
		},
	}
}

func TestClient_FetchForm(t *testing.T) {
	server := newAPIServer(t, map[string]any{"f-1": testFormRecord()}, nil, nil)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	form, err := c.FetchForm(context.Background(), "f-1")
	if err != nil {
		t.Fatalf("FetchForm() error: %v", err)
	}
	if form["name"] != "Contact" {
		t.Fatalf("unexpected form record: %v", form)
	}
}

func TestClient_FetchFormNotFound(t *testing.T) {
	server := newAPIServer(t, nil, nil, nil)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = c.FetchForm(context.Background(), "missing")
	if !errors.Is(err, client.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestClient_FetchSubmissionNotFound(t *testing.T) {
	server := newAPIServer(t, nil, nil, nil)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = c.FetchSubmission(context.Background(), "f-1", "missing")
	if !errors.Is(err, client.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c, err := client.New(server.URL, client.WithToken("secret-token"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := c.FetchForm(context.Background(), "f-1"); err != nil {
		t.Fatalf("FetchForm() error: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization header = %q", gotAuth)
	}
}

func TestSession_LoadNormalizesSubmission(t *testing.T) {
	submissionRecord := map[string]any{
		"id": "sub-1",
		"submissionData": `{
			"fields": [
				{"name": "email", "value": "jane@example.com"},
				{"label": "Full Name", "value": "Jane Doe"}
			]
		}`,
	}
	server := newAPIServer(t,
		map[string]any{"f-1": testFormRecord()},
		map[string]any{"sub-1": submissionRecord},
		nil,
	)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	session, err := client.NewSession(c, "f-1", "sub-1")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	snapshot, err := session.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := submission.State{
		"email":    "jane@example.com",
		"fullName": "Jane Doe",
	}
	if diff := cmp.Diff(want, snapshot.State); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if len(snapshot.Schema.Steps) != 1 {
		t.Fatalf("schema not parsed: %+v", snapshot.Schema)
	}
}

func TestSession_LoadCachesResult(t *testing.T) {
	var hits atomic.Int64
	server := newAPIServer(t, map[string]any{"f-1": testFormRecord()}, nil, &hits)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	session, err := client.NewSession(c, "f-1", "")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := session.Load(context.Background()); err != nil {
			t.Fatalf("Load() error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("form fetched %d times, want 1", hits.Load())
	}

	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("form fetched %d times after refresh, want 2", hits.Load())
	}
}

func TestSession_MissingSubmissionStartsEmpty(t *testing.T) {
	server := newAPIServer(t, map[string]any{"f-1": testFormRecord()}, nil, nil)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	session, err := client.NewSession(c, "f-1", "gone")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	snapshot, err := session.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(snapshot.State) != 0 {
		t.Fatalf("expected empty state, got %+v", snapshot.State)
	}
}
