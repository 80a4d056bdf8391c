package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// Name identifies this renderer in the registry.
const Name = "tui"

// Renderer implements render.Renderer for terminal-driven sessions: it walks
// the form's fields as interactive prompts and serializes the answers.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       newSurveyDriver(),
		outputFormat: OutputFormatJSON,
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = newSurveyDriver()
	}

	return r, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string {
	if r.outputFormat == OutputFormatFormURLEncoded {
		return "application/x-www-form-urlencoded"
	}
	return "application/json"
}

// Render prompts for every field in section order, seeding defaults from
// options.Values, and returns the collected answers serialized per the
// configured output format.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	values := make(map[string]any)

	for _, section := range form.Sections {
		if section.Title != "" {
			if err := r.driver.Info(ctx, "== "+section.Title+" =="); err != nil {
				return nil, err
			}
		}
		for _, field := range section.Fields {
			if err := r.promptField(ctx, field, options.Values, values); err != nil {
				return nil, err
			}
		}
	}

	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}

	return r.serialize(values)
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	switch field.Type {
	case schema.FieldTypeCheckbox:
		return r.promptBoolean(ctx, field, seed, values)
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		if len(field.Options) > 0 {
			return r.promptChoice(ctx, field, seed, values)
		}
		return r.promptString(ctx, field, seed, values)
	case schema.FieldTypeTextarea:
		return r.promptTextArea(ctx, field, seed, values)
	case schema.FieldTypeNumber:
		return r.promptNumber(ctx, field, seed, values)
	case schema.FieldTypeDatatable:
		return r.promptTable(ctx, field, seed, values)
	default:
		return r.promptString(ctx, field, seed, values)
	}
}

func (r *Renderer) promptString(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	cfg := InputConfig{
		Message:   displayLabel(field),
		Default:   seedString(field, seed),
		Help:      field.HelpText,
		Validator: fieldValidator(field),
	}
	answer, err := r.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	if answer != "" || field.Required {
		values[field.Name] = answer
	}
	return nil
}

func (r *Renderer) promptTextArea(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	answer, err := r.driver.TextArea(ctx, TextAreaConfig{
		Message: displayLabel(field),
		Default: seedString(field, seed),
		Help:    field.HelpText,
	})
	if err != nil {
		return err
	}
	if answer != "" || field.Required {
		values[field.Name] = answer
	}
	return nil
}

func (r *Renderer) promptNumber(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	cfg := InputConfig{
		Message: displayLabel(field),
		Default: seedString(field, seed),
		Help:    field.HelpText,
		Validator: func(in string) error {
			if in == "" && !field.Required {
				return nil
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(in), 64); err != nil {
				return fmt.Errorf("%q is not a number", in)
			}
			return nil
		},
	}
	answer, err := r.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	if answer == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil {
		return fmt.Errorf("tui: field %q: %w", field.Name, err)
	}
	values[field.Name] = parsed
	return nil
}

func (r *Renderer) promptBoolean(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	answer, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: displayLabel(field),
		Default: seedBool(field, seed),
		Help:    field.HelpText,
	})
	if err != nil {
		return err
	}
	values[field.Name] = answer
	return nil
}

func (r *Renderer) promptChoice(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	labels := make([]string, 0, len(field.Options))
	for _, opt := range field.Options {
		label := opt.Label
		if label == "" {
			label = scalarString(opt.Value)
		}
		labels = append(labels, label)
	}

	current := seedValue(field, seed)

	if list, ok := current.([]any); ok {
		defaults := make([]int, 0, len(list))
		for _, item := range list {
			if idx := optionIndex(field.Options, scalarString(item)); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		picked, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  displayLabel(field),
			Options:  labels,
			Defaults: defaults,
			Help:     field.HelpText,
		})
		if err != nil {
			return err
		}
		selected := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Options) {
				selected = append(selected, field.Options[idx].Value)
			}
		}
		values[field.Name] = selected
		return nil
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      displayLabel(field),
		Options:      labels,
		DefaultIndex: optionIndex(field.Options, scalarString(current)),
		Help:         field.HelpText,
	})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(field.Options) {
		values[field.Name] = field.Options[idx].Value
	}
	return nil
}

// promptTable collects datatable rows one at a time and stores them as
// flattened cell keys so the result matches normalized submission state.
func (r *Renderer) promptTable(ctx context.Context, field model.Field, seed submission.State, values map[string]any) error {
	if len(field.Columns) == 0 {
		return nil
	}

	existing := submission.CollectTable(seed, field.Name)
	rows := make([]map[string]any, 0, len(existing)+1)

	for row := 0; ; row++ {
		if err := r.driver.Info(ctx, fmt.Sprintf("%s, row %d", displayLabel(field), row+1)); err != nil {
			return err
		}

		cells := make(map[string]any, len(field.Columns))
		for _, col := range field.Columns {
			label := col.Label
			if label == "" {
				label = col.Name
			}
			var seeded string
			if row < len(existing) {
				seeded = scalarString(existing[row][col.Name])
			}
			answer, err := r.driver.Input(ctx, InputConfig{
				Message: label,
				Default: seeded,
			})
			if err != nil {
				return err
			}
			cells[col.Name] = answer
		}
		rows = append(rows, cells)

		more, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: "Add another row?",
			Default: row+1 < len(existing),
		})
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	for key, value := range submission.FlattenTable(field.Name, rows) {
		values[key] = value
	}
	return nil
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	if r.outputFormat == OutputFormatFormURLEncoded {
		encoded := url.Values{}
		for _, key := range sortedKeys(values) {
			switch v := values[key].(type) {
			case []any:
				for _, item := range v {
					encoded.Add(key, scalarString(item))
				}
			default:
				encoded.Set(key, scalarString(v))
			}
		}
		return []byte(encoded.Encode()), nil
	}

	out, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tui: serialize values: %w", err)
	}
	return out, nil
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func fieldValidator(field model.Field) func(string) error {
	var checks []func(string) error
	if field.Required {
		checks = append(checks, func(in string) error {
			if strings.TrimSpace(in) == "" {
				return errors.New("a value is required")
			}
			return nil
		})
	}
	if field.Type == schema.FieldTypeEmail {
		checks = append(checks, func(in string) error {
			if in == "" {
				return nil
			}
			if !strings.Contains(in, "@") {
				return fmt.Errorf("%q is not an email address", in)
			}
			return nil
		})
	}
	if len(checks) == 0 {
		return nil
	}
	return func(in string) error {
		for _, check := range checks {
			if err := check(in); err != nil {
				return err
			}
		}
		return nil
	}
}

func seedValue(field model.Field, seed submission.State) any {
	if seed != nil {
		if value, ok := seed[field.Name]; ok {
			return value
		}
	}
	return field.Default
}

func seedString(field model.Field, seed submission.State) string {
	return scalarString(seedValue(field, seed))
}

func seedBool(field model.Field, seed submission.State) bool {
	switch v := seedValue(field, seed).(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on" || v == "1"
	}
	return false
}

func optionIndex(options []model.Option, value string) int {
	if value == "" {
		return -1
	}
	for i, opt := range options {
		if scalarString(opt.Value) == value {
			return i
		}
	}
	return -1
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
