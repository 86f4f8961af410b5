package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads and validates the configuration file at path.
// The file format is chosen by extension; anything but .cue is read as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates data against the schema and decodes it.
// ext selects the input syntax: ".cue" for CUE, otherwise YAML.
func Parse(data []byte, ext string) (Config, error) {
	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var input cue.Value
	switch ext {
	case ".cue":
		input = cctx.CompileBytes(data, cue.Filename("config.cue"))
	default:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		input = cctx.Encode(raw)
	}
	if err := input.Err(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	unified := def.Unify(input)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
