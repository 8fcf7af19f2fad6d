package runner

import "fmt"

// ConfigurationError is returned when a test cannot be turned into a
// runnable command because required configuration is missing, e.g. a
// subtest-enumerated test without a configured working directory.
type ConfigurationError struct {
	AppName string
	TestID  string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s --id %s: %s", e.AppName, e.TestID, e.Reason)
}

// BridgeFatal marks a control-flow failure of the remote execution bridge
// itself (as opposed to a test that failed inside the bridge). The
// scheduler never converts this into a test result: a failure to launch
// the bridge fails the run at once, and a failure after launch leaves the
// missing results to the watchdog.
type BridgeFatal struct {
	Cause error
}

func (e *BridgeFatal) Error() string {
	return fmt.Sprintf("remote execution bridge failed: %s", e.Cause)
}

func (e *BridgeFatal) Unwrap() error {
	return e.Cause
}

// SpawnExitCode is the sentinel exit code reported when a process could
// not be launched, was killed by a signal, or otherwise produced no
// numeric exit status.
const SpawnExitCode = -7787
