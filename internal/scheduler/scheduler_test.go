package scheduler_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phaseq/mwtest/internal/runner"
	"github.com/phaseq/mwtest/internal/scheduler"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger.Sugar()
}

// recordingSink captures every Add call so tests can assert on delivery
// order, the running (i, n) counters, and final results.
type recordingSink struct {
	mu      sync.Mutex
	entries []sinkEntry
	closed  bool
}

type sinkEntry struct {
	I, N     int
	Instance runner.TestInstance
	Result   runner.Result
}

func (s *recordingSink) Add(i, n int, instance runner.TestInstance, result runner.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, sinkEntry{I: i, N: n, Instance: instance, Result: result})
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func newCreator(t *testing.T, appName, testID string, argv []string) *runner.TestInstanceCreator {
	t.Helper()
	generator := runner.NewCommandGenerator(runner.CommandTemplate(argv), t.TempDir(), t.TempDir())
	return runner.NewTestInstanceCreator(appName, runner.TestID{ID: testID}, false, generator)
}

func TestRunSinglePassingTest(t *testing.T) {
	creator := newCreator(t, "echo", "hello", []string{"echo", "hi"})
	sink := &recordingSink{}

	ok := scheduler.Run(context.Background(), []*runner.TestInstanceCreator{creator}, sink, scheduler.Config{Repeat: 1}, testLogger(t))

	require.True(t, ok)
	require.True(t, sink.closed)
	require.Len(t, sink.entries, 1)
	require.Equal(t, 1, sink.entries[0].I)
	require.Equal(t, 1, sink.entries[0].N)
	require.True(t, sink.entries[0].Result.Success())
}

func TestRunFailingTestWithTwoRetries(t *testing.T) {
	creator := newCreator(t, "false", "fails", []string{"false"})
	sink := &recordingSink{}

	ok := scheduler.Run(context.Background(), []*runner.TestInstanceCreator{creator}, sink, scheduler.Config{Repeat: 1, RerunIfFailed: 2}, testLogger(t))

	require.False(t, ok)
	require.Len(t, sink.entries, 3)
	require.Equal(t, []int{2, 3, 3}, []int{sink.entries[0].N, sink.entries[1].N, sink.entries[2].N})
	for _, e := range sink.entries {
		require.False(t, e.Result.Success())
	}
}

func TestRunFlakyTestSucceedsOnSecondAttempt(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran-once")

	script := filepath.Join(dir, "flaky.sh")
	require.NoError(t, os.WriteFile(script, []byte(
		"#!/bin/sh\nif [ -f \""+marker+"\" ]; then exit 0; fi\ntouch \""+marker+"\"\nexit 1\n"), 0o755))

	creator := newCreator(t, "flaky", "case", []string{"/bin/sh", script})
	sink := &recordingSink{}

	ok := scheduler.Run(context.Background(), []*runner.TestInstanceCreator{creator}, sink, scheduler.Config{Repeat: 1, RerunIfFailed: 1}, testLogger(t))

	require.True(t, ok)
	require.Len(t, sink.entries, 2)
	require.False(t, sink.entries[0].Result.Success())
	require.True(t, sink.entries[1].Result.Success())
}

func TestRunScratchDirectoryLifecycle(t *testing.T) {
	tmpRoot := t.TempDir()
	generator := runner.NewCommandGenerator(runner.CommandTemplate{"ls", "{{tmp_path}}"}, t.TempDir(), tmpRoot)
	creator := runner.NewTestInstanceCreator("noop", runner.TestID{ID: "case"}, false, generator)
	sink := &recordingSink{}

	ok := scheduler.Run(context.Background(), []*runner.TestInstanceCreator{creator}, sink, scheduler.Config{Repeat: 1}, testLogger(t))

	require.True(t, ok)
	require.Len(t, sink.entries, 1)
	require.NotEmpty(t, sink.entries[0].Instance.Command.ScratchDir, "{{tmp_path}} substitution should have minted a scratch directory")

	entries, err := os.ReadDir(tmpRoot)
	require.NoError(t, err)
	require.Empty(t, entries, "an untouched, empty scratch directory should be cleaned up after a successful run")
}

func TestRunScratchDirectoryPreservedWhenTestWritesToIt(t *testing.T) {
	tmpRoot := t.TempDir()
	generator := runner.NewCommandGenerator(runner.CommandTemplate{"/bin/sh", "-c", "touch {{tmp_path}}/artifact.txt"}, t.TempDir(), tmpRoot)
	creator := runner.NewTestInstanceCreator("noop", runner.TestID{ID: "case"}, false, generator)
	sink := &recordingSink{}

	ok := scheduler.Run(context.Background(), []*runner.TestInstanceCreator{creator}, sink, scheduler.Config{Repeat: 1}, testLogger(t))

	require.True(t, ok)
	require.Len(t, sink.entries, 1)
	scratchDir := sink.entries[0].Instance.Command.ScratchDir
	require.NotEmpty(t, scratchDir)
	require.FileExists(t, filepath.Join(scratchDir, "artifact.txt"))
}

func TestRunParallelYieldsSameResultsAsSequential(t *testing.T) {
	var creators []*runner.TestInstanceCreator
	for i := 0; i < 5; i++ {
		creators = append(creators, newCreator(t, "echo", string(rune('a'+i)), []string{"true"}))
	}

	seqSink := &recordingSink{}
	require.True(t, scheduler.Run(context.Background(), creators, seqSink, scheduler.Config{Repeat: 1}, testLogger(t)))

	parSink := &recordingSink{}
	require.True(t, scheduler.Run(context.Background(), creators, parSink, scheduler.Config{Repeat: 1, Parallel: true}, testLogger(t)))

	require.Len(t, seqSink.entries, 5)
	require.Len(t, parSink.entries, 5)

	pairs := func(s *recordingSink) []string {
		var out []string
		for _, e := range s.entries {
			out = append(out, fmt.Sprintf("%s/%s=%d", e.Instance.AppName, e.Instance.TestID.ID, e.Result.ExitCode))
		}
		return out
	}
	require.ElementsMatch(t, pairs(seqSink), pairs(parSink))
}
