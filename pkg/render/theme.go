package render

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ResolveTheme runs a go-theme selection and folds the result into the
// renderer config shape, deriving CSS custom properties from manifest tokens.
func ResolveTheme(selector theme.ThemeSelector, name, variant string, opts ...theme.QueryOption) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}

	selection, err := selector.Select(name, variant, opts...)
	if err != nil {
		return nil, fmt.Errorf("render: select theme %q/%q: %w", name, variant, err)
	}
	if selection == nil {
		return nil, nil
	}

	cfg := &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
	}

	if selection.Manifest != nil && len(selection.Manifest.Tokens) > 0 {
		cfg.Tokens = make(map[string]string, len(selection.Manifest.Tokens))
		cfg.CSSVars = make(map[string]string, len(selection.Manifest.Tokens))
		for token, value := range selection.Manifest.Tokens {
			cfg.Tokens[token] = value
			cfg.CSSVars[cssVarName(token)] = value
		}
	}

	return cfg, nil
}

func cssVarName(token string) string {
	if strings.HasPrefix(token, "--") {
		return token
	}
	return "--" + token
}
