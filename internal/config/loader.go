package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, the file named by FORKEXEC_CONFIG
// when set, and FORKEXEC_* overrides, in that order.
func Load() (*Config, error) {
	var cfg *Config
	if path := os.Getenv(EnvConfigFile); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = Default()
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a configuration document from path. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc Config
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	doc.Source = absPath
	doc.Program = os.ExpandEnv(doc.Program)
	for i, arg := range doc.Args {
		doc.Args[i] = os.ExpandEnv(arg)
	}
	doc.Metrics.File = os.ExpandEnv(doc.Metrics.File)
	if doc.Workdir != "" {
		doc.Workdir = resolveWorkdir(filepath.Dir(absPath), os.ExpandEnv(doc.Workdir))
	}

	doc.ApplyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

func applyEnv(cfg *Config) {
	if value := os.Getenv(EnvProgram); value != "" {
		cfg.Program = value
	}
	if value := os.Getenv(EnvLogLevel); value != "" {
		cfg.Log.Level = value
	}
	if value := os.Getenv(EnvLogFormat); value != "" {
		cfg.Log.Format = value
	}
	if value := os.Getenv(EnvMetricsFile); value != "" {
		cfg.Metrics.File = value
	}
}

func resolveWorkdir(base, workdir string) string {
	if filepath.IsAbs(workdir) {
		return filepath.Clean(workdir)
	}
	return filepath.Clean(filepath.Join(base, workdir))
}
