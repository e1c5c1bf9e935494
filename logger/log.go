package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	levelNone  slog.Level = slog.LevelError + 100
)

/*
LogConfiguration describes how to build the logger. It is loaded from the
logger configuration file (YAML) and can be partially overridden by CLI
flags.
*/
type LogConfiguration struct {
	Level      string `yaml:"defaultLevel"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"outputPath"`
	// Go time format string or "none" to not log time.
	TimeFormat string `yaml:"timeFormat"`
	// Format of node IDs and addresses: "none", "short" or "long" (default).
	IDFormat string `yaml:"idFormat"`
	// Whether to log the source code position of the logging call.
	ShowSource bool `yaml:"showSource"`
	// Disables colors in the "console" format.
	NoColor bool `yaml:"noColor"`
}

/*
New builds a slog.Logger according to the configuration. Supported
formats are "text", "json", "ecs", "brief" and "console".
*/
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &LogConfiguration{}
	}
	out, err := cfg.writer()
	if err != nil {
		return nil, fmt.Errorf("creating log writer: %w", err)
	}
	h, err := cfg.Handler(out)
	if err != nil {
		return nil, fmt.Errorf("creating log handler: %w", err)
	}
	return slog.New(h), nil
}

/*
Handler returns log handler which writes into "out" in the configured format.
*/
func (cfg *LogConfiguration) Handler(out io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.ShowSource,
		Level:     cfg.logLevel(),
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		opts.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatIDAttr(cfg.IDFormat))
		return slog.NewJSONHandler(out, opts), nil
	case "ecs":
		opts.ReplaceAttr = composeAttrFmt(formatIDAttr(cfg.IDFormat), formatAttrECS)
		return slog.NewJSONHandler(out, opts), nil
	case "text", "":
		opts.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatIDAttr(cfg.IDFormat), formatDataAttrAsJSON)
		return slog.NewTextHandler(out, opts), nil
	case "brief":
		opts.ReplaceAttr = formatAttrBrief
		return slog.NewTextHandler(out, opts), nil
	case "console":
		cw := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: cfg.consoleTimeFormat(),
			PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		}
		opts.ReplaceAttr = composeAttrFmt(formatIDAttr(cfg.IDFormat), formatDataAttrAsJSON, formatAttrConsole)
		return slog.NewJSONHandler(cw, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func (cfg *LogConfiguration) consoleTimeFormat() string {
	switch cfg.TimeFormat {
	case "", "none":
		return "15:04:05.0000"
	default:
		return cfg.TimeFormat
	}
}

func (cfg *LogConfiguration) logLevel() slog.Level {
	switch cfg.OutputPath {
	case "discard", os.DevNull:
		return levelNone
	}

	name := strings.ToUpper(cfg.Level)
	switch name {
	case "":
		return slog.LevelInfo
	case "NONE":
		return levelNone
	case "TRACE":
		return LevelTrace
	case "WARNING":
		return slog.LevelWarn
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		// try "level+offset" with unknown base names too
		if i := strings.IndexAny(name, "+-"); i > 0 {
			if n, err := strconv.Atoi(name[i:]); err == nil {
				return (&LogConfiguration{Level: name[:i]}).logLevel() + slog.Level(n)
			}
		}
		return slog.LevelInfo
	}
	return lvl
}

func (cfg *LogConfiguration) writer() (io.Writer, error) {
	switch strings.ToLower(cfg.OutputPath) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard", os.DevNull:
		return io.Discard, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0700); err != nil {
		return nil, fmt.Errorf("creating directory for log file: %w", err)
	}
	f, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

/*
formatAttrConsole renames the standard slog attributes to the field names
zerolog.ConsoleWriter expects.
*/
func formatAttrConsole(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.MessageKey:
		return slog.String(zerolog.MessageFieldName, a.Value.String())
	case slog.LevelKey:
		lvl, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		return slog.String(zerolog.LevelFieldName, consoleLevel(lvl))
	case slog.TimeKey:
		return slog.Attr{Key: zerolog.TimestampFieldName, Value: a.Value}
	}
	return a
}

func consoleLevel(lvl slog.Level) string {
	switch {
	case lvl < slog.LevelDebug:
		return zerolog.LevelTraceValue
	case lvl < slog.LevelInfo:
		return zerolog.LevelDebugValue
	case lvl < slog.LevelWarn:
		return zerolog.LevelInfoValue
	case lvl < slog.LevelError:
		return zerolog.LevelWarnValue
	default:
		return zerolog.LevelErrorValue
	}
}
