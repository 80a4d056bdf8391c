package formstate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	formstate "github.com/goliatone/go-formstate"
)

func TestBuildFormState(t *testing.T) {
	form := map[string]any{
		"id": "f-1",
		"schema": `{
			"steps": [
				{"id": "s1", "fields": [
					{"id": "fld1", "name": "email", "label": "Email", "type": "email"},
					{"id": "fld2", "name": "fullName", "label": "Full Name", "type": "text"}
				]}
			]
		}`,
	}
	record := map[string]any{
		"id": "sub-1",
		"submissionData": `{
			"fields": [
				{"name": "email", "value": {"value": "jane@example.com"}},
				{"label": "Full Name", "value": "Jane Doe"},
				{"name": "legacy__phone_1", "value": "555-0100"}
			]
		}`,
	}

	got := formstate.BuildFormState(form, record, formstate.Config{})

	want := formstate.State{
		"email":           "jane@example.com",
		"fullName":        "Jane Doe",
		"legacy__phone_1": "555-0100",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFormState_MalformedSchemaDegrades(t *testing.T) {
	form := map[string]any{"schema": "{not json"}
	record := map[string]any{
		"submissionData": map[string]any{"anything": "survives"},
	}

	got := formstate.BuildFormState(form, record, formstate.Config{})

	want := formstate.State{"anything": "survives"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}
