package cliutil

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/Paintersrp/forkexec/internal/config"
)

// NewLogger builds the diagnostic logger. Format "auto" renders text when out is
// a terminal and JSON otherwise.
func NewLogger(spec config.LogSpec, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(spec.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	format := spec.Format
	if format == "" || format == config.LogFormatAuto {
		format = config.LogFormatJSON
		if isTerminal(out) {
			format = config.LogFormatText
		}
	}

	switch format {
	case config.LogFormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case config.LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
				logrus.FieldKeyMsg:  "msg",
			},
		})
	default:
		return nil, fmt.Errorf("log format: unsupported format %q", spec.Format)
	}
	return logger, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
