package runner

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TestID identifies a single test within an application. RelPath is absent
// for subtests enumerated from a test binary and present for
// filesystem-discovered tests.
type TestID struct {
	ID      string
	RelPath string // empty means "absent"
}

// TmpMode selects how a command generator completes the scratch-directory
// placeholder left in its partially-specialized template, if any.
type TmpMode int

const (
	// TmpNone means the template has no scratch placeholder at all.
	TmpNone TmpMode = iota
	// TmpDir means {{tmp_path}} was present: the directory is created on
	// disk before the command runs.
	TmpDir
	// TmpFile means {{tmp_file}} was present: only the path string is
	// produced, the test decides whether to use it.
	TmpFile
)

// TestCommand is a single, ephemeral materialization of a command: one per
// attempted run. ScratchDir is empty when the template had no scratch
// placeholder.
type TestCommand struct {
	Argv       []string
	Cwd        string
	ScratchDir string
	TmpMode    TmpMode
}

// Uid returns the caller-stable identity the scheduler uses for retry
// bookkeeping: app name paired with test id (not rel path).
type Uid struct {
	AppName string
	TestID  string
}

// CommandGenerator produces a fresh TestCommand on each call. Scratch paths
// (when the template demands one) are freshly generated per invocation so
// repeated runs never collide.
type CommandGenerator func() (TestCommand, error)

// TestInstanceCreator is immutable for the lifetime of a run batch: one per
// (app, test) pair, capable of producing many TestInstance attempts.
type TestInstanceCreator struct {
	AppName   string
	TestID    TestID
	AllowXGE  bool
	generator CommandGenerator
}

// NewTestInstanceCreator builds a TestInstanceCreator from a already-built
// CommandGenerator (see NewCommandGenerator), for use by the factory
// package once it has resolved a test's input and cwd.
func NewTestInstanceCreator(appName string, testID TestID, allowXGE bool, generator CommandGenerator) *TestInstanceCreator {
	return &TestInstanceCreator{
		AppName:   appName,
		TestID:    testID,
		AllowXGE:  allowXGE,
		generator: generator,
	}
}

// Uid returns the retry-bookkeeping identity of the tests this creator
// instantiates.
func (c *TestInstanceCreator) Uid() Uid {
	return Uid{AppName: c.AppName, TestID: c.TestID.ID}
}

// Instantiate produces a fresh TestInstance snapshot, completing any
// remaining scratch-directory placeholder.
func (c *TestInstanceCreator) Instantiate() (TestInstance, error) {
	cmd, err := c.generator()
	if err != nil {
		return TestInstance{}, err
	}
	return TestInstance{
		AppName:  c.AppName,
		TestID:   c.TestID,
		AllowXGE: c.AllowXGE,
		Command:  cmd,
	}, nil
}

// TestInstance is a snapshot of one dispatched attempt.
type TestInstance struct {
	AppName  string
	TestID   TestID
	AllowXGE bool
	Command  TestCommand
}

// Uid returns the retry-bookkeeping identity of this attempt.
func (t TestInstance) Uid() Uid {
	return Uid{AppName: t.AppName, TestID: t.TestID.ID}
}

// NewCommandGenerator builds the CommandGenerator a TestInstanceCreator
// uses: a closure over a partially-specialized template (with {{exe}},
// {{dll}}, {{input}} already substituted by config loading and
// test-id-to-input resolution) that completes {{tmp_path}}/{{tmp_file}} on
// each call with a freshly minted scratch directory under tmpRoot.
func NewCommandGenerator(template CommandTemplate, cwd string, tmpRoot string) CommandGenerator {
	switch {
	case template.HasPattern("{{tmp_path}}"):
		return func() (TestCommand, error) {
			scratchDir := filepath.Join(tmpRoot, uuid.NewString())
			argv := template.Apply("{{tmp_path}}", scratchDir)
			if err := os.MkdirAll(scratchDir, 0o755); err != nil {
				return TestCommand{}, err
			}
			return TestCommand{Argv: []string(argv), Cwd: cwd, ScratchDir: scratchDir, TmpMode: TmpDir}, nil
		}
	case template.HasPattern("{{tmp_file}}"):
		return func() (TestCommand, error) {
			scratchDir := filepath.Join(tmpRoot, uuid.NewString())
			argv := template.Apply("{{tmp_file}}", scratchDir)
			return TestCommand{Argv: []string(argv), Cwd: cwd, ScratchDir: scratchDir, TmpMode: TmpFile}, nil
		}
	default:
		return func() (TestCommand, error) {
			return TestCommand{Argv: []string(template.Clone()), Cwd: cwd, TmpMode: TmpNone}, nil
		}
	}
}

// Cleanup removes the instance's scratch directory iff it still exists and
// is empty, preserving any test-produced artifacts. A non-existent
// directory, or one that failed to create (TmpFile mode where the test
// never wrote to it), is not an error.
func (t TestInstance) Cleanup() error {
	if t.Command.ScratchDir == "" {
		return nil
	}
	entries, err := os.ReadDir(t.Command.ScratchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(t.Command.ScratchDir)
}
