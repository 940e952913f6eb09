// Package config defines the configuration types for mdsync.
// These types are pure data structures; loading and precedence live in internal/configloader.
package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validation errors are keyed by the same names users write in YAML.
func init() {
	validation.ErrorTag = "yaml"
}

// Flavor specifies the Markdown flavor to use for parsing.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// Sub-renderer names accepted in render.subrenderers.
const (
	SubRendererMermaid = "mermaid"
	SubRendererMath    = "math"
)

// Config is the root configuration structure for mdsync.
type Config struct {
	// Flavor specifies the Markdown flavor ("commonmark" or "gfm").
	Flavor Flavor `yaml:"flavor"`

	Render  RenderConfig  `yaml:"render"`
	Layout  LayoutConfig  `yaml:"layout"`
	Sync    SyncConfig    `yaml:"sync"`
	Preview PreviewConfig `yaml:"preview"`
}

// RenderConfig controls HTML generation.
type RenderConfig struct {
	// Highlight enables chroma highlighting of fenced code. Nil means unset.
	Highlight *bool `yaml:"highlight,omitempty"`

	// HighlightStyle is a chroma style name.
	HighlightStyle string `yaml:"highlight_style"`

	// DetectLanguage guesses the language of fences without an info string.
	DetectLanguage *bool `yaml:"detect_language,omitempty"`

	// SubRenderers lists the fence languages handed to sub-renderers.
	SubRenderers []string `yaml:"subrenderers"`
}

// HighlightEnabled reports whether highlighting is on.
func (c *RenderConfig) HighlightEnabled() bool {
	return c.Highlight == nil || *c.Highlight
}

// DetectEnabled reports whether language detection is on.
func (c *RenderConfig) DetectEnabled() bool {
	return c.DetectLanguage == nil || *c.DetectLanguage
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HighlightStyle, validation.Required),
		validation.Field(&c.SubRenderers, validation.Each(validation.In(SubRendererMermaid, SubRendererMath))),
	)
}

// LayoutConfig holds preview page geometry in pixels.
type LayoutConfig struct {
	Width          int     `yaml:"width"`
	ViewportHeight int     `yaml:"viewport_height"`
	FontSize       float64 `yaml:"font_size"`
	Margin         int     `yaml:"margin"`

	// LineHeight is a multiplier of FontSize.
	LineHeight float64 `yaml:"line_height"`
}

// Validate validates the layout configuration.
func (c *LayoutConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(100), validation.Max(10000)),
		validation.Field(&c.ViewportHeight, validation.Required, validation.Min(1)),
		validation.Field(&c.FontSize, validation.Required, validation.Min(4.0), validation.Max(200.0)),
		validation.Field(&c.Margin, validation.Min(0), validation.Max(c.Width/2-1)),
		validation.Field(&c.LineHeight, validation.Required, validation.Min(1.0), validation.Max(4.0)),
	)
}

// SyncConfig tunes the cursor sync controller.
type SyncConfig struct {
	// ScrollGuard is how long a programmatic scroll suppresses its echo.
	ScrollGuard time.Duration `yaml:"scroll_guard"`

	// Debounce delays re-renders after edits. Zero renders immediately.
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ScrollGuard, validation.Required, validation.Min(time.Millisecond), validation.Max(10*time.Second)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0)), validation.Max(10*time.Second)),
	)
}

// PreviewConfig configures the live preview host.
type PreviewConfig struct {
	Addr string `yaml:"addr"`
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
	)
}

// Validate validates the configuration, stopping at the first failing section.
func (c *Config) Validate() error {
	if err := validation.Validate(string(c.Flavor),
		validation.Required, validation.In(string(FlavorCommonMark), string(FlavorGFM)),
	); err != nil {
		return validation.Errors{"flavor": err}
	}
	if err := c.Render.Validate(); err != nil {
		return validation.Errors{"render": err}
	}
	if err := c.Layout.Validate(); err != nil {
		return validation.Errors{"layout": err}
	}
	if err := c.Sync.Validate(); err != nil {
		return validation.Errors{"sync": err}
	}
	if err := c.Preview.Validate(); err != nil {
		return validation.Errors{"preview": err}
	}
	return nil
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Flavor: FlavorGFM,
		Render: RenderConfig{
			HighlightStyle: "github",
			SubRenderers:   []string{SubRendererMermaid, SubRendererMath},
		},
		Layout: LayoutConfig{
			Width:          800,
			ViewportHeight: 600,
			FontSize:       16,
			Margin:         16,
			LineHeight:     1.4,
		},
		Sync: SyncConfig{
			ScrollGuard: 100 * time.Millisecond,
		},
		Preview: PreviewConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}
