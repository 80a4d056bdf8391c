package validation_test

import (
	"testing"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func validationForm() model.FormModel {
	return model.FormModel{
		Sections: []model.Section{{Fields: []model.Field{
			{Name: "email", Type: schema.FieldTypeEmail, Required: true},
			{Name: "age", Type: schema.FieldTypeNumber},
			{Name: "tier", Type: schema.FieldTypeSelect, Options: []model.Option{
				{Label: "Free", Value: "free"},
				{Label: "Pro", Value: "pro"},
			}},
			{Name: "lineItems", Type: schema.FieldTypeDatatable, Columns: []model.Column{
				{Name: "sku"},
				{Name: "qty"},
			}},
		}}},
	}
}

func TestValidate_ValidState(t *testing.T) {
	validator := validation.New()

	issues, err := validator.Validate(validationForm(), submission.State{
		"email":            "jane@example.com",
		"age":              41.0,
		"tier":             "pro",
		"lineItems__sku_1": "A-100",
		"lineItems__qty_1": "3",
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidate_TypeAndEnumViolations(t *testing.T) {
	validator := validation.New()

	issues, err := validator.Validate(validationForm(), submission.State{
		"email": "jane@example.com",
		"age":   "not a number",
		"tier":  "enterprise",
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	fields := make(map[string]bool, len(issues))
	for _, issue := range issues {
		fields[issue.Field] = true
	}
	if !fields["age"] {
		t.Errorf("expected an issue for age, got %+v", issues)
	}
	if !fields["tier"] {
		t.Errorf("expected an issue for tier, got %+v", issues)
	}
}

func TestValidate_RequiredMissing(t *testing.T) {
	validator := validation.New()

	issues, err := validator.Validate(validationForm(), submission.State{})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("expected a required-property issue")
	}
	if issues[0].Field != "" {
		t.Errorf("required failure should be form-level, got %+v", issues[0])
	}
}

func TestValidate_MultiSelectArray(t *testing.T) {
	validator := validation.New()

	issues, err := validator.Validate(validationForm(), submission.State{
		"email": "jane@example.com",
		"tier":  []any{"free", "pro"},
	})
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("array of enum members should validate, got %+v", issues)
	}
}

func TestSchemaFor_Shape(t *testing.T) {
	document := validation.SchemaFor(validationForm())

	properties, ok := document["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties: %+v", document)
	}
	for _, name := range []string{"email", "age", "tier", "lineItems"} {
		if _, ok := properties[name]; !ok {
			t.Errorf("property %q missing from derived schema", name)
		}
	}

	required, _ := document["required"].([]string)
	if len(required) != 1 || required[0] != "email" {
		t.Errorf("unexpected required list: %+v", document["required"])
	}
}
