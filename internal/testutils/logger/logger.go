package logger

import (
	"log/slog"
	"os"
	"strconv"
	"testing"

	"github.com/alphabill-org/pregenesis/logger"
)

/*
New returns logger for test "t" on debug level.
*/
func New(t testing.TB) *slog.Logger {
	return NewLvl(t, slog.LevelDebug)
}

/*
NewLvl returns logger for test "t" on given log level. Output goes through
t.Log so it is shown only when the test fails (or -v flag is used).
Colors can be disabled with PG_TEST_LOG_NO_COLORS environment variable.
*/
func NewLvl(t testing.TB, level slog.Level) *slog.Logger {
	cfg := &logger.LogConfiguration{
		Level:      level.String(),
		Format:     "console",
		TimeFormat: "15:04:05.0000",
		IDFormat:   "short",
		NoColor:    noColors(),
	}
	h, err := cfg.Handler(testLogWriter{t})
	if err != nil {
		t.Fatalf("creating handler for test logger: %v", err)
	}
	return slog.New(h)
}

func noColors() bool {
	s, ok := os.LookupEnv("PG_TEST_LOG_NO_COLORS")
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

type testLogWriter struct {
	t testing.TB
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	// ConsoleWriter output ends with newline, t.Log adds one too
	if n := len(p); n > 0 && p[n-1] == '\n' {
		w.t.Log(string(p[:n-1]))
	} else {
		w.t.Log(string(p))
	}
	return len(p), nil
}
