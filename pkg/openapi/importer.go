// Package openapi converts OpenAPI 3 operations into form definitions so
// HTTP APIs can be rendered and filled without hand-authoring a schema.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/schema"
)

var mediaTypePriority = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// ErrOperationNotFound reports that the requested operationId is absent from
// the document.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// Importer converts OpenAPI operation request bodies into form schemas.
type Importer struct {
	resolveRefs bool
}

// Option configures the importer.
type Option func(*Importer)

// WithReferenceResolution validates the document and resolves $ref targets
// before conversion.
func WithReferenceResolution() Option {
	return func(i *Importer) {
		i.resolveRefs = true
	}
}

// NewImporter builds an Importer with the given options.
func NewImporter(options ...Option) *Importer {
	importer := &Importer{}
	for _, opt := range options {
		if opt != nil {
			opt(importer)
		}
	}
	return importer
}

// ListOperations returns the operation identifiers available in the document,
// sorted for stable output. Operations without an operationId are keyed as
// method:path.
func (i *Importer) ListOperations(ctx context.Context, raw []byte) ([]string, error) {
	spec, err := i.load(ctx, raw)
	if err != nil {
		return nil, err
	}

	var ids []string
	forEachOperation(spec, func(id, _, _ string, _ *openapi3.Operation) {
		ids = append(ids, id)
	})
	sort.Strings(ids)
	return ids, nil
}

// Import converts the request body of the identified operation into a form
// schema with a single step per operation.
func (i *Importer) Import(ctx context.Context, raw []byte, operationID string) (schema.FormSchema, error) {
	spec, err := i.load(ctx, raw)
	if err != nil {
		return schema.FormSchema{}, err
	}

	var (
		found     bool
		operation *openapi3.Operation
	)
	forEachOperation(spec, func(id, _, _ string, op *openapi3.Operation) {
		if id == operationID {
			found = true
			operation = op
		}
	})
	if !found {
		return schema.FormSchema{}, fmt.Errorf("openapi: operation %q: %w", operationID, ErrOperationNotFound)
	}

	body := requestBodySchema(operation.RequestBody)
	if body == nil {
		return schema.FormSchema{}, fmt.Errorf("openapi: operation %q has no request body schema", operationID)
	}

	step := schema.Step{
		ID:          operationID,
		Name:        operationID,
		Title:       operation.Summary,
		Description: operation.Description,
		Fields:      fieldsFromSchema(body),
	}
	for idx := range step.Fields {
		step.Fields[idx].StepID = step.ID
	}

	return schema.FormSchema{Steps: []schema.Step{step}}, nil
}

func (i *Importer) load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: i.resolveRefs,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}

	if i.resolveRefs {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return spec, nil
}

func forEachOperation(spec *openapi3.T, visit func(id, method, path string, op *openapi3.Operation)) {
	if spec == nil || spec.Paths == nil {
		return
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := operation.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			visit(id, method, path, operation)
		}
	}
}

func requestBodySchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	content := ref.Value.Content
	for _, mediaType := range mediaTypePriority {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldsFromSchema(body *openapi3.Schema) []schema.FieldDefinition {
	if body == nil || len(body.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.FieldDefinition, 0, len(names))
	for _, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		fields = append(fields, fieldFromProperty(name, ref.Value, required[name]))
	}
	return fields
}

func fieldFromProperty(name string, src *openapi3.Schema, required bool) schema.FieldDefinition {
	field := schema.FieldDefinition{
		ID:         name,
		Name:       name,
		Label:      labelFromProperty(name, src),
		Type:       fieldType(src),
		Properties: map[string]any{},
	}

	if required {
		field.Properties["required"] = true
	}
	if src.Description != "" {
		field.Properties["description"] = src.Description
	}
	if src.Default != nil {
		field.Properties["default"] = src.Default
	}
	if len(src.Enum) > 0 {
		field.Properties["options"] = optionsFromEnum(src.Enum)
	}
	if field.Type == schema.FieldTypeDatatable {
		field.Properties["columns"] = columnsFromItems(src.Items)
	}
	if len(field.Properties) == 0 {
		field.Properties = nil
	}
	return field
}

func labelFromProperty(name string, src *openapi3.Schema) string {
	if src.Title != "" {
		return src.Title
	}
	return name
}

func fieldType(src *openapi3.Schema) string {
	switch schemaType(src) {
	case "boolean":
		return schema.FieldTypeCheckbox
	case "integer", "number":
		return schema.FieldTypeNumber
	case "array":
		if tableItems(src.Items) {
			return schema.FieldTypeDatatable
		}
		return schema.FieldTypeSelect
	case "object":
		return schema.FieldTypeAddress
	default:
		if len(src.Enum) > 0 {
			return schema.FieldTypeSelect
		}
		switch src.Format {
		case "email":
			return schema.FieldTypeEmail
		case "date", "date-time":
			return schema.FieldTypeDate
		case "binary":
			return schema.FieldTypeFile
		case "textarea":
			return schema.FieldTypeTextarea
		}
		return schema.FieldTypeText
	}
}

func schemaType(src *openapi3.Schema) string {
	if src == nil || src.Type == nil {
		return ""
	}
	values := src.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func tableItems(items *openapi3.SchemaRef) bool {
	return items != nil && items.Value != nil && len(items.Value.Properties) > 0
}

func optionsFromEnum(enum []any) []any {
	options := make([]any, 0, len(enum))
	for _, value := range enum {
		options = append(options, map[string]any{
			"label": fmt.Sprintf("%v", value),
			"value": value,
		})
	}
	return options
}

func columnsFromItems(items *openapi3.SchemaRef) []any {
	if items == nil || items.Value == nil {
		return nil
	}

	names := make([]string, 0, len(items.Value.Properties))
	for name := range items.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]any, 0, len(names))
	for _, name := range names {
		column := map[string]any{"name": name}
		if ref := items.Value.Properties[name]; ref != nil && ref.Value != nil && ref.Value.Title != "" {
			column["label"] = ref.Value.Title
		}
		columns = append(columns, column)
	}
	return columns
}
