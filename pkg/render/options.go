package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/submission"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the form model pipeline.
type RenderOptions struct {
	// Method overrides the HTTP method declared by the form model. Renderers
	// are responsible for translating unsupported verbs (PATCH/PUT/DELETE)
	// into browser-friendly POST submissions plus a hidden _method input.
	Method string

	// Values pre-populates rendered controls from a normalized submission
	// state. Flattened datatable cell keys are resolved back to their table
	// field by the renderer.
	Values submission.State

	// Errors surfaces server-side validation feedback keyed by field name.
	Errors map[string][]string

	// Hidden carries extra hidden inputs (CSRF tokens, record versions) the
	// renderer emits alongside the visible fields.
	Hidden map[string]string

	// Theme carries the resolved theme configuration (partials, tokens, CSS
	// variables) when a theme selector is wired in.
	Theme *theme.RendererConfig
}
