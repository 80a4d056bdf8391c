package submission_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

func TestNormalizer_BuildFromRaw_String(t *testing.T) {
	n := submission.NewNormalizer(emailIndex())

	state := n.BuildFromRaw(`{"Email Address": "a@b.com"}`)

	want := submission.State{"email": "a@b.com"}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizer_BuildFromRaw_MalformedString(t *testing.T) {
	n := submission.NewNormalizer(emailIndex())

	if state := n.BuildFromRaw("{not json"); len(state) != 0 {
		t.Fatalf("expected empty state for malformed payload, got %v", state)
	}
}

func TestNormalizer_ParseEnvelope(t *testing.T) {
	n := submission.NewNormalizer(emailIndex())

	for _, key := range []string{"submissionData", "submission_data"} {
		envelope := map[string]any{key: `{"email":"a@b.com"}`}
		payload := n.ParseEnvelope(envelope)
		state := n.Build(payload)
		if state["email"] != "a@b.com" {
			t.Fatalf("envelope key %q: got %v", key, state)
		}
	}

	if payload := n.ParseEnvelope(map[string]any{"id": "sub-1"}); payload != nil {
		t.Fatalf("expected nil payload when envelope has no data key, got %v", payload)
	}
	if payload := n.ParseEnvelope(nil); payload != nil {
		t.Fatalf("expected nil payload for nil envelope, got %v", payload)
	}
}

func TestNormalizer_NilIndexFallsBackToRawKeys(t *testing.T) {
	n := submission.NewNormalizer(nil)

	state := n.BuildFromRaw(`{"email":"a@b.com","unknown":1}`)

	want := submission.State{"email": "a@b.com", "unknown": float64(1)}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizer_MalformedSchemaStillPreservesPayload(t *testing.T) {
	// End-to-end degraded mode: schema string fails to parse, so every key
	// falls back to raw assignment.
	parser := schema.NewParser()
	parsed := parser.ParseDefinition("{not json")
	idx := schema.IndexSchema(parsed)

	n := submission.NewNormalizer(idx)
	state := n.BuildFromRaw(`{"Email Address":"a@b.com"}`)

	want := submission.State{"Email Address": "a@b.com"}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}
