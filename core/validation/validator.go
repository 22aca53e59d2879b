// Package validation checks block data payloads against their field schema.
// Validation is enforced before anything is persisted; the first violation
// short-circuits and is reported with a dotted/bracketed path.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/artpar/pageblocks/adapters/metrics"
	"github.com/artpar/pageblocks/core/schema"
	"github.com/artpar/pageblocks/domain/content"
)

// Code identifies the kind of violation.
type Code string

const (
	CodeRequired     Code = "required"
	CodeUnknownField Code = "unknown_field"
	CodeType         Code = "type"
)

// Result is the outcome of a validation. Only the first violation is kept.
type Result struct {
	Valid   bool   `json:"valid"`
	Code    Code   `json:"code,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"error,omitempty"`
}

// Err returns the violation as an error, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Code: r.Code, Path: r.Path, Message: r.Message}
}

// Error is a validation failure carried as an error value.
type Error struct {
	Code    Code
	Path    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func ok() Result {
	return Result{Valid: true}
}

func fail(code Code, path, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	return Result{Code: code, Path: path, Message: msg}
}

// Validate checks payload against fields, recursing depth-first into
// object children and array items. An empty field list accepts anything.
func Validate(payload map[string]any, fields []schema.Field, path string) Result {
	if len(fields) == 0 {
		return ok()
	}

	allowed := make(map[string]schema.Field, len(fields))
	var missing []string
	for _, f := range fields {
		allowed[f.Name] = f
		if !f.Required {
			continue
		}
		if _, present := payload[f.Name]; !present {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return fail(CodeRequired, path, "missing required field(s): %s", strings.Join(missing, ", "))
	}

	var unknown []string
	for key := range payload {
		if _, known := allowed[key]; !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fail(CodeUnknownField, path, "unknown field(s): %s", strings.Join(unknown, ", "))
	}

	// Walk in declaration order so the reported failure is deterministic.
	for _, f := range fields {
		value, present := payload[f.Name]
		if !present {
			continue
		}

		child := join(path, f.Name)
		switch {
		case f.HasChildren():
			nested, isMap := value.(map[string]any)
			if !isMap {
				return fail(CodeType, child, "must be an object")
			}
			if r := Validate(nested, f.Children, child); !r.Valid {
				return r
			}

		case f.HasItems():
			if r := validateItems(value, f.Items, child); !r.Valid {
				return r
			}
		}
	}

	return ok()
}

func validateItems(value any, items []schema.Field, path string) Result {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fail(CodeType, path, "must be a list")
	}

	for i := 0; i < rv.Len(); i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		elem, isMap := rv.Index(i).Interface().(map[string]any)
		if !isMap {
			return fail(CodeType, elemPath, "must be an object")
		}
		if r := Validate(elem, items, elemPath); !r.Valid {
			return r
		}
	}
	return ok()
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// MergeAndValidate deep-merges patch into existing and validates the whole
// merged payload. The merged payload is returned even when invalid so callers
// can report it; it must only be persisted when the result is valid.
func MergeAndValidate(existing, patch map[string]any, fields []schema.Field, path string) (map[string]any, Result) {
	merged := content.DeepMerge(existing, patch)
	return merged, Validate(merged, fields, path)
}

// Validator wraps the package functions with metrics.
type Validator struct {
	metrics *metrics.Collector
}

// New creates a validator. m may be nil.
func New(m *metrics.Collector) *Validator {
	return &Validator{metrics: m}
}

// Validate is Validate with the outcome counted.
func (v *Validator) Validate(payload map[string]any, fields []schema.Field, path string) Result {
	return v.record(Validate(payload, fields, path))
}

// MergeAndValidate is MergeAndValidate with the outcome counted.
func (v *Validator) MergeAndValidate(existing, patch map[string]any, fields []schema.Field, path string) (map[string]any, Result) {
	merged, r := MergeAndValidate(existing, patch, fields, path)
	return merged, v.record(r)
}

func (v *Validator) record(r Result) Result {
	if r.Valid {
		v.metrics.RecordValidation("valid")
	} else {
		v.metrics.RecordValidation(string(r.Code))
	}
	return r
}
