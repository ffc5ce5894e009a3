// Package schema validates raw exchange payloads before normalization.
//
// Validation is structural only: every declared key must be present, carry
// the declared JSON type (or null when nullable), and enum fields must hold
// one of their allowed values. Any violation rejects the whole page.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

type kind int

const (
	kindString kind = iota
	kindInteger
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	default:
		return "integer"
	}
}

type field struct {
	name     string
	kind     kind
	nullable bool
	enum     []string
}

func str(name string) field                   { return field{name: name, kind: kindString} }
func nullStr(name string) field               { return field{name: name, kind: kindString, nullable: true} }
func integer(name string) field               { return field{name: name, kind: kindInteger} }
func nullInt(name string) field               { return field{name: name, kind: kindInteger, nullable: true} }
func oneOf(name string, vals ...string) field { return field{name: name, kind: kindString, enum: vals} }

// objectSchema is an ordered list of field rules for one JSON object.
type objectSchema []field

// check appends one message per violation, prefixed with path.
func (s objectSchema) check(path string, raw json.RawMessage, problems []string) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return append(problems, path+": expected object")
	}
	for _, f := range s {
		p := path + "." + f.name
		if path == "" {
			p = f.name
		}
		v, ok := obj[f.name]
		if !ok {
			problems = append(problems, p+": required")
			continue
		}
		if msg := f.check(v); msg != "" {
			problems = append(problems, p+": "+msg)
		}
	}
	return problems
}

func (f field) check(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if bytes.Equal(v, []byte("null")) {
		if f.nullable {
			return ""
		}
		return "expected " + f.kind.String() + ", got null"
	}
	switch f.kind {
	case kindString:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "expected string"
		}
		if len(f.enum) > 0 && !slices.Contains(f.enum, s) {
			return fmt.Sprintf("expected one of [%s], got %q", strings.Join(f.enum, " "), s)
		}
	case kindInteger:
		var n int64
		if err := json.Unmarshal(v, &n); err != nil {
			return "expected integer"
		}
	}
	return ""
}

func validationError(exchange domain.Exchange, problems []string) error {
	return &domain.ValidationError{Exchange: exchange, Fields: problems}
}
