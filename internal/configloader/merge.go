package configloader

import "github.com/yaklabco/mdsync/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Optional booleans: override overwrites base if override is non-nil
//   - Slices: override replaces base entirely if override is non-nil
//
// Zero scalars cannot be expressed as overrides, so a CLI flag cannot reset
// a margin or debounce to zero; config files are decoded over the base instead.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := base.Clone()

	if override.Flavor != "" {
		result.Flavor = override.Flavor
	}

	if override.Render.Highlight != nil {
		result.Render.Highlight = config.Bool(*override.Render.Highlight)
	}
	if override.Render.HighlightStyle != "" {
		result.Render.HighlightStyle = override.Render.HighlightStyle
	}
	if override.Render.DetectLanguage != nil {
		result.Render.DetectLanguage = config.Bool(*override.Render.DetectLanguage)
	}
	if override.Render.SubRenderers != nil {
		result.Render.SubRenderers = append([]string(nil), override.Render.SubRenderers...)
	}

	if override.Layout.Width != 0 {
		result.Layout.Width = override.Layout.Width
	}
	if override.Layout.ViewportHeight != 0 {
		result.Layout.ViewportHeight = override.Layout.ViewportHeight
	}
	if override.Layout.FontSize != 0 {
		result.Layout.FontSize = override.Layout.FontSize
	}
	if override.Layout.Margin != 0 {
		result.Layout.Margin = override.Layout.Margin
	}
	if override.Layout.LineHeight != 0 {
		result.Layout.LineHeight = override.Layout.LineHeight
	}

	if override.Sync.ScrollGuard != 0 {
		result.Sync.ScrollGuard = override.Sync.ScrollGuard
	}
	if override.Sync.Debounce != 0 {
		result.Sync.Debounce = override.Sync.Debounce
	}

	if override.Preview.Addr != "" {
		result.Preview.Addr = override.Preview.Addr
	}

	return result
}
