package runner

import (
	"bytes"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/acarl005/stripansi"
	"go.uber.org/zap"
)

// Execute runs one TestCommand to completion and returns its Result. It
// never returns an error for a test that fails to run: a command that
// can't be launched, or that exits without a numeric status, is reported
// as a Result with SpawnExitCode (the test's failure is data, not a
// scheduler error).
func Execute(instance TestInstance, logger *zap.SugaredLogger) Result {
	if len(instance.Command.Argv) == 0 {
		return Result{ExitCode: SpawnExitCode, CombinedOutput: "no command to run"}
	}

	cmd := exec.Command(instance.Command.Argv[0], instance.Command.Argv[1:]...)
	cmd.Dir = instance.Command.Cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugw("executing test command",
		"app", instance.AppName,
		"test_id", instance.TestID.ID,
		"cwd", instance.Command.Cwd,
		"argv", shellescape.QuoteCommand(instance.Command.Argv),
	)

	err := cmd.Run()
	combined := decodeOutput(stderr.Bytes()) + decodeOutput(stdout.Bytes())

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// SpawnError: the binary could not even be launched.
			logger.Warnw("failed to launch test command",
				"app", instance.AppName,
				"test_id", instance.TestID.ID,
				"error", err,
			)
			return Result{
				ExitCode:       SpawnExitCode,
				CombinedOutput: "ERROR: failed to run test command: " + err.Error() + "\nDid you forget to build?\n" + combined,
			}
		}
		code := exitErr.ExitCode()
		if code == -1 {
			// killed by signal or otherwise has no numeric status
			code = SpawnExitCode
		}
		return Result{ExitCode: code, CombinedOutput: combined}
	}

	return Result{ExitCode: 0, CombinedOutput: combined}
}

// decodeOutput decodes b as UTF-8 with lossy replacement on invalid
// sequences and strips ANSI escape codes so non-interactive report sinks
// (the XML report, CI logs) don't end up with raw control sequences
// embedded in them.
func decodeOutput(b []byte) string {
	s := strings.ToValidUTF8(string(b), "�")
	return stripansi.Strip(s)
}
