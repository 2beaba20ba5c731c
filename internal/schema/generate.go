// Package schema builds the JSON Schema published for calcengine config files.
package schema

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/smykla-skalski/calcengine/pkg/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// SchemaURL is where the published schema for config files lives.
const SchemaURL = "https://raw.githubusercontent.com/smykla-skalski/calcengine/main/calcengine.schema.json"

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// durationPattern accepts the strings time.ParseDuration does, minus signs.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// defaults are the values the loader applies to unset keys, keyed by path.
var defaults = []struct {
	path  []string
	value any
}{
	{[]string{"plugins", "directory"}, config.DefaultPluginsDirectory},
	{[]string{"plugins", "interface_version"}, config.DefaultInterfaceVersion},
	{[]string{"log", "level"}, strings.ToLower(logger.LevelError.String())},
	{[]string{"repl", "prompt"}, string(config.PromptAuto)},
	{[]string{"doctor", "timeout"}, config.DefaultDoctorTimeout.String()},
}

// Generate reflects config.Config into a self-contained schema. Sections are
// inlined and every key carries its default.
func Generate() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}

	s := r.Reflect(&config.Config{})
	s.Version = draft2020
	s.ID = jsonschema.ID(SchemaURL)
	s.Title = "calcengine configuration"
	s.Description = "Settings merged from the global and project calcengine.toml files."

	for _, d := range defaults {
		if p := property(s, d.path...); p != nil {
			p.Default = d.value
		}
	}

	if p := property(s, "doctor", "timeout"); p != nil {
		p.Pattern = durationPattern
	}

	if p := property(s, "plugins", "ignore"); p != nil && p.Items != nil {
		p.Items.MinLength = ptr(uint64(1))
	}

	return s
}

// GenerateJSON encodes Generate's schema, newline-terminated. Indented output
// uses two spaces.
func GenerateJSON(indent bool) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if indent {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(Generate()); err != nil {
		return nil, errors.Wrap(err, "encode config schema")
	}

	return buf.Bytes(), nil
}

// SchemaDirective returns the Taplo schema comment placed at the top of
// written config files.
func SchemaDirective() string {
	return "#:schema " + SchemaURL
}

// property walks nested object properties. It returns nil when a key is
// missing.
func property(s *jsonschema.Schema, path ...string) *jsonschema.Schema {
	for _, key := range path {
		if s == nil || s.Properties == nil {
			return nil
		}

		s, _ = s.Properties.Get(key)
	}

	return s
}

func ptr[T any](v T) *T { return &v }
