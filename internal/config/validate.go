package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Program) == "" {
		return fmt.Errorf("program: must not be empty")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log.format: unsupported format %q (want %s, %s or %s)",
			c.Log.Format, LogFormatAuto, LogFormatText, LogFormatJSON)
	}
	return nil
}
