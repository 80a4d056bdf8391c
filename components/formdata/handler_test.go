package formdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/client"
	"github.com/goliatone/go-formstate/pkg/submission"
)

type stubFetcher struct {
	forms       map[string]map[string]any
	submissions map[string]map[string]any
	formCalls   int
}

func (s *stubFetcher) FetchForm(_ context.Context, formID string) (map[string]any, error) {
	s.formCalls++
	form, ok := s.forms[formID]
	if !ok {
		return nil, client.ErrFormNotFound
	}
	return form, nil
}

func (s *stubFetcher) FetchSubmission(_ context.Context, formID, submissionID string) (map[string]any, error) {
	record, ok := s.submissions[submissionID]
	if !ok {
		return nil, client.ErrSubmissionNotFound
	}
	return record, nil
}

type memoryCache struct {
	states map[string]submission.State
}

func (m *memoryCache) GetState(_ context.Context, formID, submissionID string) (submission.State, error) {
	state, ok := m.states[formID+"/"+submissionID]
	if !ok {
		return nil, errors.New("miss")
	}
	return state, nil
}

func (m *memoryCache) SaveState(_ context.Context, formID, submissionID string, state submission.State) error {
	if m.states == nil {
		m.states = make(map[string]submission.State)
	}
	m.states[formID+"/"+submissionID] = state
	return nil
}

func stubForm() map[string]any {
	return map[string]any{
		"id": "f-1",
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

func stubSubmission() map[string]any {
	return map[string]any{
		"id": "sub-1",
		"submissionData": `{
			"fields": [
				{"name": "email", "value": "jane@example.com"},
				{"label": "Full Name", "value": "Jane Doe"}
			]
		}`,
	}
}

func serveState(t *testing.T, fns ...OptionFn) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	if _, err := RegisterRoutes(mux, "/", fns...); err != nil {
		t.Fatalf("RegisterRoutes() error: %v", err)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func getState(t *testing.T, url string) (int, submission.State) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var body stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, body.Data
}

func TestHandler_NormalizesSubmissionState(t *testing.T) {
	fetcher := &stubFetcher{
		forms:       map[string]map[string]any{"f-1": stubForm()},
		submissions: map[string]map[string]any{"sub-1": stubSubmission()},
	}
	server := serveState(t, WithFetcher(fetcher))

	status, state := getState(t, server.URL+"/api/form-data/f-1/state/sub-1")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	want := submission.State{
		"email":    "jane@example.com",
		"fullName": "Jane Doe",
	}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_NotFound(t *testing.T) {
	fetcher := &stubFetcher{forms: map[string]map[string]any{"f-1": stubForm()}}
	server := serveState(t, WithFetcher(fetcher))

	if status, _ := getState(t, server.URL+"/api/form-data/f-1/state/missing"); status != http.StatusNotFound {
		t.Fatalf("missing submission status = %d", status)
	}
	if status, _ := getState(t, server.URL+"/api/form-data/ghost/state/sub-1"); status != http.StatusNotFound {
		t.Fatalf("missing form status = %d", status)
	}
}

func TestHandler_GuardRejects(t *testing.T) {
	fetcher := &stubFetcher{
		forms:       map[string]map[string]any{"f-1": stubForm()},
		submissions: map[string]map[string]any{"sub-1": stubSubmission()},
	}
	server := serveState(t,
		WithFetcher(fetcher),
		WithGuard(func(r *http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)

	status, _ := getState(t, server.URL+"/api/form-data/f-1/state/sub-1")
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if fetcher.formCalls != 0 {
		t.Fatalf("guard should run before fetching, saw %d fetches", fetcher.formCalls)
	}
}

func TestHandler_CacheShortCircuitsFetch(t *testing.T) {
	fetcher := &stubFetcher{
		forms:       map[string]map[string]any{"f-1": stubForm()},
		submissions: map[string]map[string]any{"sub-1": stubSubmission()},
	}
	cache := &memoryCache{}
	server := serveState(t, WithFetcher(fetcher), WithCache(cache))

	url := server.URL + "/api/form-data/f-1/state/sub-1"
	if status, _ := getState(t, url); status != http.StatusOK {
		t.Fatalf("first request status = %d", status)
	}
	if status, _ := getState(t, url); status != http.StatusOK {
		t.Fatalf("second request status = %d", status)
	}

	if fetcher.formCalls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", fetcher.formCalls)
	}
}

func TestMountPath(t *testing.T) {
	if got := MountPath("/v1"); got != "/v1/api/form-data" {
		t.Fatalf("MountPath() = %q", got)
	}
	if got := MountPath(""); got != "/api/form-data" {
		t.Fatalf("MountPath(empty) = %q", got)
	}
}
