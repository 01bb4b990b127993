package model

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// FieldError reports a known attribute whose value has the wrong type.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validator checks request bodies against the JSON Schema of each kind. The
// schemas only constrain known attributes; unknown keys pass through.
type Validator struct {
	schemas map[Kind]*gojsonschema.Schema
}

// NewValidator compiles the embedded schemas, one file per kind.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[Kind]*gojsonschema.Schema, len(Kinds))}
	for _, k := range Kinds {
		raw, err := schemaFS.ReadFile("schemas/" + string(k) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", k, err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", k, err)
		}
		v.schemas[k] = s
	}
	return v, nil
}

// MustValidator is NewValidator for program start-up and tests.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns a *FieldError naming the first offending attribute, in
// alphabetical order so the reported field is deterministic.
func (v *Validator) Validate(k Kind, body map[string]any) error {
	s, ok := v.schemas[k]
	if !ok {
		return fmt.Errorf("model: no schema for %q", k)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(body))
	if err != nil {
		return fmt.Errorf("validate %s: %w", k, err)
	}
	if res.Valid() {
		return nil
	}
	errs := res.Errors()
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field() < errs[j].Field() })
	first := errs[0]
	return &FieldError{
		Field:  strings.TrimPrefix(first.Field(), "(root)."),
		Reason: first.Description(),
	}
}
