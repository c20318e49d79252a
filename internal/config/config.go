// Package config loads the service configuration from YAML and
// validates it against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/gravitational/trace"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Storage driver names accepted by the config.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the service configuration.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Storage selects and configures the backend.
	Storage Storage `yaml:"storage" json:"storage"`
}

// Storage configures the record store backend.
type Storage struct {
	// Driver is "sqlite" for durable storage or "memory" for the
	// in-process test/demo backend.
	Driver string `yaml:"driver" json:"driver"`

	// Path is the SQLite database file. Required for the sqlite
	// driver, ignored by memory.
	Path string `yaml:"path" json:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Storage: Storage{
			Driver: DriverSQLite,
			Path:   "records.db",
		},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, trace.Wrap(err, "read config %q", path)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, trace.BadParameter("parse config %q: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, trace.Wrap(err)
	}
	return cfg, nil
}

// Validate unifies the configuration with the embedded CUE schema.
// The schema enforces the driver and log level enums, a non-empty
// listen address, and a database path when the sqlite driver is
// selected.
func (c Config) Validate() error {
	cuectx := cuecontext.New()

	schema := cuectx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return trace.Wrap(err, "compile config schema")
	}

	unified := schema.Unify(cuectx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return trace.BadParameter("invalid config: %v", err)
	}
	return nil
}
