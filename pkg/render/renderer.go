package render

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Renderer converts a FormModel into a byte representation (HTML, prompt
// output, etc.). Implementations must honour RenderOptions.Values so a
// normalized submission state pre-populates the rendered controls.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
