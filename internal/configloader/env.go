package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yaklabco/mdsync/pkg/config"
)

// envVarPrefix is the prefix for all mdsync environment variables.
const envVarPrefix = "MDSYNC_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeFloat
	envTypeDuration
	envTypeSlice
)

// envMapping defines an environment variable to config field mapping.
type envMapping struct {
	field string
	typ   envFieldType
	help  string
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"FLAVOR":                 {"flavor", envTypeString, "Markdown flavor: commonmark or gfm"},
	"RENDER_HIGHLIGHT":       {"render.highlight", envTypeBool, "Highlight fenced code: true or false"},
	"RENDER_HIGHLIGHT_STYLE": {"render.highlight_style", envTypeString, "Chroma style name"},
	"RENDER_DETECT_LANGUAGE": {"render.detect_language", envTypeBool, "Guess the language of bare fences"},
	"RENDER_SUBRENDERERS":    {"render.subrenderers", envTypeSlice, "Comma-separated sub-renderers: mermaid, math"},
	"LAYOUT_WIDTH":           {"layout.width", envTypeInt, "Preview page width in pixels"},
	"LAYOUT_VIEWPORT_HEIGHT": {"layout.viewport_height", envTypeInt, "Preview viewport height in pixels"},
	"LAYOUT_FONT_SIZE":       {"layout.font_size", envTypeFloat, "Body font size in pixels"},
	"LAYOUT_MARGIN":          {"layout.margin", envTypeInt, "Page margin in pixels"},
	"LAYOUT_LINE_HEIGHT":     {"layout.line_height", envTypeFloat, "Line height as a multiple of the font size"},
	"SYNC_SCROLL_GUARD":      {"sync.scroll_guard", envTypeDuration, "Echo suppression window, e.g. 100ms"},
	"SYNC_DEBOUNCE":          {"sync.debounce", envTypeDuration, "Delay before re-rendering after an edit"},
	"PREVIEW_ADDR":           {"preview.addr", envTypeString, "Live preview listen address"},
}

// lookupFunc resolves an environment variable.
type lookupFunc func(key string) (string, bool)

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with MDSYNC_ (e.g., MDSYNC_FLAVOR).
func LoadFromEnv(cfg *config.Config) error {
	return loadFromLookup(cfg, os.LookupEnv)
}

// dotEnvLookup resolves variables from the process environment first and
// falls back to the .env file at path.
func dotEnvLookup(path string) (lookupFunc, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func loadFromLookup(cfg *config.Config, lookup lookupFunc) error {
	if cfg == nil {
		return nil
	}

	for envSuffix, mapping := range envMappings {
		envVar := envVarPrefix + envSuffix
		value, ok := lookup(envVar)
		if !ok || value == "" {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q (expected true/false/1/0)", envVar, value)
		}
		return setBoolField(cfg, mapping.field, b)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		return setIntField(cfg, mapping.field, i)
	case envTypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q", envVar, value)
		}
		return setFloatField(cfg, mapping.field, f)
	case envTypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q (e.g. 100ms)", envVar, value)
		}
		return setDurationField(cfg, mapping.field, d)
	case envTypeSlice:
		cfg.Render.SubRenderers = parseSliceValue(value)
		return nil
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "flavor":
		cfg.Flavor = config.Flavor(value)
	case "render.highlight_style":
		cfg.Render.HighlightStyle = value
	case "preview.addr":
		cfg.Preview.Addr = value
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func setBoolField(cfg *config.Config, field string, value bool) error {
	switch field {
	case "render.highlight":
		cfg.Render.Highlight = config.Bool(value)
	case "render.detect_language":
		cfg.Render.DetectLanguage = config.Bool(value)
	default:
		return fmt.Errorf("unknown boolean field: %s", field)
	}
	return nil
}

func setIntField(cfg *config.Config, field string, value int) error {
	switch field {
	case "layout.width":
		cfg.Layout.Width = value
	case "layout.viewport_height":
		cfg.Layout.ViewportHeight = value
	case "layout.margin":
		cfg.Layout.Margin = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

func setFloatField(cfg *config.Config, field string, value float64) error {
	switch field {
	case "layout.font_size":
		cfg.Layout.FontSize = value
	case "layout.line_height":
		cfg.Layout.LineHeight = value
	default:
		return fmt.Errorf("unknown number field: %s", field)
	}
	return nil
}

func setDurationField(cfg *config.Config, field string, value time.Duration) error {
	switch field {
	case "sync.scroll_guard":
		cfg.Sync.ScrollGuard = value
	case "sync.debounce":
		cfg.Sync.Debounce = value
	default:
		return fmt.Errorf("unknown duration field: %s", field)
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// EnvVar describes one supported environment variable.
type EnvVar struct {
	Name        string
	Description string
}

// ListEnvVars returns all supported environment variables sorted by name.
func ListEnvVars() []EnvVar {
	vars := make([]EnvVar, 0, len(envMappings))
	for suffix, mapping := range envMappings {
		vars = append(vars, EnvVar{Name: envVarPrefix + suffix, Description: mapping.help})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}
