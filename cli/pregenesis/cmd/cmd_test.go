package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/pregenesis/crypto"
	testlogger "github.com/alphabill-org/pregenesis/internal/testutils/logger"
	testsig "github.com/alphabill-org/pregenesis/internal/testutils/sig"
	"github.com/alphabill-org/pregenesis/logger"
	"github.com/alphabill-org/pregenesis/types"
)

type testConsoleWriter struct {
	lines []string
}

func (w *testConsoleWriter) Println(a ...any) {
	s := fmt.Sprintln(a...)
	w.lines = append(w.lines, s[:len(s)-1]) // remove newline
}

func (w *testConsoleWriter) Print(a ...any) {
	w.Println(a...)
}

func (w *testConsoleWriter) String() string {
	return strings.Join(w.lines, "\n")
}

func testLoggerFactory(t *testing.T) LoggerFactory {
	return func(*logger.LogConfiguration) (*slog.Logger, error) {
		return testlogger.New(t), nil
	}
}

/*
execCmd runs the CLI with given arguments using homeDir as the home directory
and returns the captured console output.
*/
func execCmd(t *testing.T, homeDir string, args ...string) (*testConsoleWriter, error) {
	t.Helper()
	out := &testConsoleWriter{}
	consoleWriter = out
	t.Cleanup(func() { consoleWriter = &stdoutWrapper{} })

	app := New(testLoggerFactory(t))
	app.baseCmd.SetArgs(append(args, "--home", homeDir))
	return out, app.addAndExecuteCommand(context.Background())
}

func verifyStdout(t *testing.T, out *testConsoleWriter, expectedLines ...string) {
	t.Helper()
	joined := out.String()
	for _, expected := range expectedLines {
		require.Contains(t, joined, expected)
	}
}

func newTestPublicKey(t *testing.T) (crypto.Signer, types.PublicKey) {
	t.Helper()
	return testsig.NewSigner(t)
}
