package tui

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

type stubDriver struct {
	inputs     []string
	selectIdx  []int
	multiIdx   [][]int
	confirm    []bool
	textAreas  []string
	infos      []string
	inputPos   int
	selectPos  int
	multiPos   int
	confirmPos int
	textPos    int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

func promptForm() model.FormModel {
	return model.FormModel{
		FormID: "intake",
		Sections: []model.Section{
			{
				ID:    "main",
				Title: "Intake",
				Fields: []model.Field{
					{Name: "fullName", Label: "Full Name", Type: schema.FieldTypeText, Required: true},
					{Name: "age", Label: "Age", Type: schema.FieldTypeNumber},
					{Name: "topic", Label: "Topic", Type: schema.FieldTypeSelect, Options: []model.Option{
						{Label: "Sales", Value: "sales"},
						{Label: "Support", Value: "support"},
					}},
					{Name: "subscribe", Label: "Subscribe", Type: schema.FieldTypeCheckbox},
				},
			},
		},
	}
}

func TestRender_CollectsAnswersAsJSON(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jane Doe", "41"},
		selectIdx: []int{1},
		confirm:   []bool{true},
	}

	renderer, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	out, err := renderer.Render(context.Background(), promptForm(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	want := map[string]any{
		"fullName":  "Jane Doe",
		"age":       41.0,
		"topic":     "support",
		"subscribe": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collected values mismatch (-want +got):\n%s", diff)
	}

	if len(driver.infos) == 0 || driver.infos[0] != "== Intake ==" {
		t.Errorf("section banner not announced: %v", driver.infos)
	}
}

func TestRender_MultiSelectSeededFromValues(t *testing.T) {
	form := model.FormModel{
		Sections: []model.Section{{Fields: []model.Field{
			{Name: "channels", Label: "Channels", Type: schema.FieldTypeSelect, Options: []model.Option{
				{Label: "Email", Value: "email"},
				{Label: "SMS", Value: "sms"},
				{Label: "Phone", Value: "phone"},
			}},
		}}},
	}

	driver := &stubDriver{multiIdx: [][]int{{0, 2}}}
	renderer, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	out, err := renderer.Render(context.Background(), form, render.RenderOptions{
		Values: submission.State{"channels": []any{"sms"}},
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := []any{"email", "phone"}
	if diff := cmp.Diff(want, got["channels"]); diff != "" {
		t.Fatalf("multi-select values mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_DatatableFlattensRows(t *testing.T) {
	form := model.FormModel{
		Sections: []model.Section{{Fields: []model.Field{
			{Name: "lineItems", Label: "Line Items", Type: schema.FieldTypeDatatable, Columns: []model.Column{
				{Name: "sku"},
				{Name: "qty"},
			}},
		}}},
	}

	driver := &stubDriver{
		inputs:  []string{"A-100", "2", "B-200", "5"},
		confirm: []bool{true, false},
	}
	renderer, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	out, err := renderer.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	want := map[string]any{
		"lineItems__sku_1": "A-100",
		"lineItems__qty_1": "2",
		"lineItems__sku_2": "B-200",
		"lineItems__qty_2": "5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flattened rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_FormURLEncodedOutput(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jane Doe", ""},
		selectIdx: []int{0},
		confirm:   []bool{false},
	}
	renderer, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatFormURLEncoded))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := renderer.ContentType(); got != "application/x-www-form-urlencoded" {
		t.Fatalf("ContentType() = %q", got)
	}

	out, err := renderer.Render(context.Background(), promptForm(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := "fullName=Jane+Doe&subscribe=false&topic=sales"
	if string(out) != want {
		t.Fatalf("encoded output = %q, want %q", out, want)
	}
}

func TestRender_SubmitTransformer(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jane Doe", ""},
		selectIdx: []int{0},
		confirm:   []bool{false},
	}
	renderer, err := New(WithPromptDriver(driver), WithSubmitTransformer(func(values map[string]any) (map[string]any, error) {
		values["source"] = "cli"
		return values, nil
	}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	out, err := renderer.Render(context.Background(), promptForm(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["source"] != "cli" {
		t.Fatalf("transformer not applied: %v", got)
	}
}
