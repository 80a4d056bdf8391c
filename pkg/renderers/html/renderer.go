package html

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

const (
	// Name identifies this renderer in the registry.
	Name = "html"

	formTemplate = "form"

	methodOverrideField = "_method"
)

var inputTypes = map[string]string{
	schema.FieldTypeText:   "text",
	schema.FieldTypeNumber: "number",
	schema.FieldTypeEmail:  "email",
	schema.FieldTypeDate:   "date",
	schema.FieldTypeFile:   "file",
}

// Renderer produces HTML documents for form models.
type Renderer struct {
	engine *Engine
}

// Option configures the renderer.
type Option func(*Renderer)

// WithEngine replaces the default embedded-template engine.
func WithEngine(engine *Engine) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// New builds an HTML renderer backed by the embedded templates unless an
// engine override is supplied.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	if r.engine == nil {
		templates, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("html: embedded templates: %w", err)
		}
		engine, err := NewEngine(WithEngineFS(templates))
		if err != nil {
			return nil, fmt.Errorf("html: default engine: %w", err)
		}
		r.engine = engine
	}

	return r, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method, hidden := resolveMethod(form, options)

	data := map[string]any{
		"form_id":       form.FormID,
		"title":         form.Title,
		"description":   form.Description,
		"method":        method,
		"endpoint":      form.Endpoint,
		"hidden_fields": hidden,
		"form_errors":   options.Errors[render.FormErrorKey],
		"sections":      sectionViews(form, options),
	}

	if options.Theme != nil {
		data["theme_class"] = themeClass(options.Theme.Theme, options.Theme.Variant)
		data["theme_style"] = cssVarsStyle(options.Theme.CSSVars)
	}

	out, err := r.engine.RenderTemplate(formTemplate, data)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// resolveMethod translates non-form methods into a POST with a hidden
// override field, the way HTML forms have to spell PUT and PATCH.
func resolveMethod(form model.FormModel, options render.RenderOptions) (string, []map[string]string) {
	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = strings.ToUpper(strings.TrimSpace(form.Method))
	}
	if method == "" {
		method = "POST"
	}

	hidden := make([]map[string]string, 0, len(options.Hidden)+1)
	if method != "GET" && method != "POST" {
		hidden = append(hidden, map[string]string{"name": methodOverrideField, "value": method})
		method = "POST"
	}
	for _, field := range render.SortedHiddenFields(options.Hidden) {
		hidden = append(hidden, map[string]string{"name": field.Name, "value": field.Value})
	}

	return method, hidden
}

func sectionViews(form model.FormModel, options render.RenderOptions) []map[string]any {
	sections := make([]map[string]any, 0, len(form.Sections))
	for _, section := range form.Sections {
		fields := make([]map[string]any, 0, len(section.Fields))
		for _, field := range section.Fields {
			fields = append(fields, fieldView(field, options))
		}
		sections = append(sections, map[string]any{
			"id":          section.ID,
			"title":       section.Title,
			"description": section.Description,
			"fields":      fields,
		})
	}
	return sections
}

func fieldView(field model.Field, options render.RenderOptions) map[string]any {
	value := fieldValue(field, options.Values)

	view := map[string]any{
		"id":          field.ID,
		"name":        field.Name,
		"label":       field.Label,
		"type":        field.Type,
		"input_type":  inputType(field.Type),
		"required":    field.Required,
		"placeholder": field.Placeholder,
		"description": field.Description,
		"help":        field.HelpText,
		"value":       scalarString(value),
		"errors":      options.Errors[field.Name],
	}

	switch field.Type {
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		view["options"] = optionViews(field.Options, value)
		view["multiple"] = isMultiple(value)
	case schema.FieldTypeCheckbox:
		view["checked"] = isChecked(value)
	case schema.FieldTypeDatatable:
		view["columns"] = columnViews(field.Columns)
		view["rows"] = tableRows(field, options.Values)
	}

	return view
}

func fieldValue(field model.Field, values submission.State) any {
	if values != nil {
		if value, ok := values[field.Name]; ok {
			return value
		}
	}
	return field.Default
}

func optionViews(options []model.Option, value any) []map[string]any {
	selected := selectedValues(value)
	views := make([]map[string]any, 0, len(options))
	for _, opt := range options {
		optValue := scalarString(opt.Value)
		views = append(views, map[string]any{
			"label":    opt.Label,
			"value":    optValue,
			"selected": selected[optValue],
		})
	}
	return views
}

func selectedValues(value any) map[string]bool {
	selected := make(map[string]bool)
	switch v := value.(type) {
	case nil:
	case []any:
		for _, item := range v {
			selected[scalarString(item)] = true
		}
	default:
		selected[scalarString(v)] = true
	}
	return selected
}

func columnViews(columns []model.Column) []map[string]any {
	views := make([]map[string]any, 0, len(columns))
	for _, col := range columns {
		label := col.Label
		if label == "" {
			label = col.Name
		}
		views = append(views, map[string]any{"name": col.Name, "label": label})
	}
	return views
}

// tableRows rebuilds datatable rows from flattened submission keys so every
// cell renders with its own addressable input name.
func tableRows(field model.Field, values submission.State) []map[string]any {
	rows := submission.CollectTable(values, field.Name)
	if len(rows) == 0 {
		rows = []map[string]any{{}}
	}

	views := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		cells := make([]map[string]any, 0, len(field.Columns))
		for _, col := range field.Columns {
			cells = append(cells, map[string]any{
				"name":  fmt.Sprintf("%s__%s_%d", field.Name, col.Name, i+1),
				"value": scalarString(row[col.Name]),
			})
		}
		views = append(views, map[string]any{"cells": cells})
	}
	return views
}

func inputType(fieldType string) string {
	if mapped, ok := inputTypes[fieldType]; ok {
		return mapped
	}
	return "text"
}

func isMultiple(value any) bool {
	_, ok := value.([]any)
	return ok
}

func isChecked(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on" || v == "1"
	}
	return false
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func themeClass(name, variant string) string {
	parts := make([]string, 0, 2)
	if name != "" {
		parts = append(parts, "fs-theme-"+name)
	}
	if variant != "" {
		parts = append(parts, "fs-variant-"+variant)
	}
	return strings.Join(parts, " ")
}

// cssVarsStyle serializes theme CSS variables into a :root rule with
// deterministic ordering.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root{")
	for _, name := range names {
		key := name
		if !strings.HasPrefix(key, "--") {
			key = "--" + key
		}
		fmt.Fprintf(&b, "%s:%s;", key, vars[name])
	}
	b.WriteString("}")
	return b.String()
}
