package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

func TestBuilder_Build(t *testing.T) {
	builder := model.NewBuilder()

	parsed := schema.FormSchema{
		Steps: []schema.Step{
			{
				ID:    "step-1",
				Name:  "contact",
				Title: "Contact",
				Fields: []schema.FieldDefinition{
					{
						ID: "f-1", Name: "email", Label: "Email Address", Type: "email", StepID: "step-1",
						Properties: map[string]any{
							"required":    true,
							"placeholder": "you@example.com",
						},
					},
					{
						ID: "f-2", Name: "role", Label: "Role", Type: "select", StepID: "step-1",
						Properties: map[string]any{
							"options": []any{
								map[string]any{"label": "Admin", "value": "admin"},
								"viewer",
							},
						},
					},
				},
			},
		},
	}

	form := builder.Build(parsed)

	want := model.FormModel{
		Method: "POST",
		Sections: []model.Section{
			{
				ID:    "step-1",
				Name:  "contact",
				Title: "Contact",
				Fields: []model.Field{
					{
						ID: "f-1", Name: "email", Label: "Email Address", Type: "email",
						Required: true, Placeholder: "you@example.com",
					},
					{
						ID: "f-2", Name: "role", Label: "Role", Type: "select",
						Options: []model.Option{
							{Label: "Admin", Value: "admin"},
							{Label: "viewer", Value: "viewer"},
						},
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form model mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_SanitizesMarkup(t *testing.T) {
	builder := model.NewBuilder()

	parsed := schema.FormSchema{
		Steps: []schema.Step{
			{
				ID: "s",
				Fields: []schema.FieldDefinition{
					{
						ID: "f", Name: "bio", Label: `Bio <script>alert(1)</script>`,
						Properties: map[string]any{
							"description": `Keep it <b>short</b><script>alert(2)</script>`,
						},
					},
				},
			},
		},
	}

	form := builder.Build(parsed)
	field := form.Sections[0].Fields[0]

	if field.Label != "Bio" {
		t.Fatalf("expected script stripped from label, got %q", field.Label)
	}
	if field.Description != "Keep it <b>short</b>" {
		t.Fatalf("expected inline markup kept in description, got %q", field.Description)
	}
}

func TestBuilder_DefaultsAndColumns(t *testing.T) {
	builder := model.NewBuilder(model.WithDefaultMethod("PUT"))

	parsed := schema.FormSchema{
		Steps: []schema.Step{
			{
				ID: "s",
				Fields: []schema.FieldDefinition{
					{
						ID: "f", Name: "inventory", Type: schema.FieldTypeDatatable,
						Properties: map[string]any{
							"columns": []any{
								map[string]any{"name": "col1", "label": "Item"},
								"col2",
							},
						},
					},
					{ID: "g", Name: "note"},
				},
			},
		},
	}

	form := builder.Build(parsed)
	if form.Method != "PUT" {
		t.Fatalf("expected method override, got %q", form.Method)
	}

	table := form.Sections[0].Fields[0]
	wantColumns := []model.Column{{Name: "col1", Label: "Item"}, {Name: "col2"}}
	if diff := cmp.Diff(wantColumns, table.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	if typ := form.Sections[0].Fields[1].Type; typ != schema.FieldTypeText {
		t.Fatalf("expected untyped field to default to text, got %q", typ)
	}

	if names := form.FieldNames(); len(names) != 2 || names[0] != "inventory" {
		t.Fatalf("unexpected field names: %v", names)
	}
}
