// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests keep the Go JSON tags and the embedded CUE schema in step, so
// a renamed field cannot silently stop decoding.

func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)
	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = iter.IsOptional()
	}
	return fields
}

func extractGoJSONTags(t *testing.T, typ reflect.Type) map[string]bool {
	t.Helper()

	if typ.Kind() != reflect.Struct {
		t.Fatalf("expected struct type, got %s", typ.Kind())
	}
	fields := make(map[string]bool)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		parts := strings.Split(field.Tag.Get("json"), ",")
		if parts[0] == "" || parts[0] == "-" {
			continue
		}
		fields[parts[0]] = slices.Contains(parts[1:], "omitempty")
	}
	return fields
}

func lookupDefinition(t *testing.T, ctx *cue.Context, defPath string) cue.Value {
	t.Helper()

	schema := ctx.CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", defPath, def.Err())
	}
	return def
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
		{"#LogConfig", reflect.TypeFor[LogConfig]()},
		{"#MetricsConfig", reflect.TypeFor[MetricsConfig]()},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			cueFields := extractCUEFields(t, lookupDefinition(t, cuecontext.New(), tt.def))
			goFields := extractGoJSONTags(t, tt.typ)

			for field := range cueFields {
				if _, ok := goFields[field]; !ok {
					t.Errorf("CUE field %q has no Go JSON tag", field)
				}
			}
			for field := range goFields {
				if _, ok := cueFields[field]; !ok {
					t.Errorf("Go JSON tag %q has no CUE field", field)
				}
			}
		})
	}
}

func TestSchemaEnumsMatchGo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def   string
		valid []string
	}{
		{"#OutputFormat", []string{string(FormatText), string(FormatJSON)}},
		{"#ColorScheme", []string{
			string(ColorSchemeAuto), string(ColorSchemeDark), string(ColorSchemeLight), string(ColorSchemeNone),
		}},
		{"#LogLevel", []string{
			string(LogLevelDebug), string(LogLevelInfo), string(LogLevelWarn), string(LogLevelError),
		}},
	}

	ctx := cuecontext.New()
	for _, tt := range tests {
		def := lookupDefinition(t, ctx, tt.def)
		for _, v := range tt.valid {
			if err := def.Unify(ctx.Encode(v)).Validate(cue.Concrete(true)); err != nil {
				t.Errorf("%s rejects %q: %v", tt.def, v, err)
			}
		}
		if err := def.Unify(ctx.Encode("bogus")).Validate(cue.Concrete(true)); err == nil {
			t.Errorf("%s accepts \"bogus\"", tt.def)
		}
	}
}
