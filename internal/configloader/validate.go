package configloader

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yaklabco/mdsync/pkg/config"
)

// ValidationError names one rejected setting. Field is a dotted key path
// such as "layout.width"; FilePath is set when the failure came from
// decoding a specific file.
type ValidationError struct {
	Field    string
	Message  string
	FilePath string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	for _, part := range []string{e.FilePath, e.Field} {
		if part != "" {
			b.WriteString(part)
			b.WriteString(": ")
		}
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationResult holds fatal errors and advisory warnings for a config.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Valid reports whether no errors were found.
func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Err joins the errors in key order, or returns nil for a valid result.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i := range r.Errors {
		errs[i] = &r.Errors[i]
	}
	return errors.Join(errs...)
}

// Validate runs the config's rules and collects warnings for settings
// that are legal but will not take effect as written.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	if err := cfg.Validate(); err != nil {
		flatten("", err, &result.Errors)
	}

	if name := cfg.Render.HighlightStyle; name != "" {
		if _, ok := styles.Registry[name]; !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "render.highlight_style",
				Message: fmt.Sprintf("unknown style %q; highlighting uses the fallback style", name),
			})
		}
	}

	return result
}

func flatten(prefix string, err error, out *[]ValidationError) {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		*out = append(*out, ValidationError{Field: prefix, Message: err.Error()})
		return
	}

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		flatten(path, fields[key], out)
	}
}
