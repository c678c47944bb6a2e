// Package config loads compiler configuration from a project YAML file,
// with CLI flags from cmd/toycompiler layered on top to override it.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs the compiler pipeline reads before
// lexing the entry file.
type Config struct {
	// EntryFile is the .toy source file the pipeline starts from.
	EntryFile string `yaml:"entry_file"`
	// ImportRoots are directories searched, in order, to resolve a dotted
	// import path to a .toy file on disk.
	ImportRoots []string `yaml:"import_roots"`
	// DumpTIR causes the CLI to print the lowered TIR for every function
	// after a successful build.
	DumpTIR bool `yaml:"dump_tir"`
}

// Default returns the zero-config baseline: current directory as the only
// import root, no entry file set.
func Default() Config {
	return Config{ImportRoots: []string{"."}}
}

// Load reads a YAML project file (typically toyc.yaml) and merges it over
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.ImportRoots) == 0 {
		cfg.ImportRoots = []string{"."}
	}
	return cfg, nil
}

// Merge overlays non-zero-value overrides (typically parsed CLI flags) on
// top of a base config, returning the result.
func (c Config) Merge(override Config) Config {
	result := c
	if override.EntryFile != "" {
		result.EntryFile = override.EntryFile
	}
	if len(override.ImportRoots) > 0 {
		result.ImportRoots = override.ImportRoots
	}
	if override.DumpTIR {
		result.DumpTIR = true
	}
	return result
}
