package config

// Log formats accepted by LogSpec.Format.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Environment variables consulted by Load.
const (
	EnvConfigFile  = "FORKEXEC_CONFIG"
	EnvProgram     = "FORKEXEC_PROGRAM"
	EnvLogLevel    = "FORKEXEC_LOG_LEVEL"
	EnvLogFormat   = "FORKEXEC_LOG_FORMAT"
	EnvMetricsFile = "FORKEXEC_METRICS_FILE"
)

// Config mirrors the optional forkexec.yaml document.
type Config struct {
	// Program replaces the duplicate's image. It is resolved through PATH.
	Program string   `yaml:"program"`
	Args    []string `yaml:"args"`
	// Workdir is the duplicate's working directory. Relative paths resolve
	// against the config file's directory.
	Workdir string      `yaml:"workdir"`
	Log     LogSpec     `yaml:"log"`
	Metrics MetricsSpec `yaml:"metrics"`

	// Source is the absolute path of the file this configuration came from.
	Source string `yaml:"-"`
}

// LogSpec controls diagnostic logging on stderr.
type LogSpec struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsSpec controls the metrics textfile export.
type MetricsSpec struct {
	File string `yaml:"file"`
}

// Default returns the configuration used when nothing is provided.
func Default() *Config {
	return &Config{
		Program: "ls",
		Log: LogSpec{
			Level:  "warn",
			Format: LogFormatAuto,
		},
	}
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Program == "" {
		c.Program = def.Program
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
