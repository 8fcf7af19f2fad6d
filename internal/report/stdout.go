package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	terminal "github.com/kopoli/go-terminal-size"
	"golang.org/x/term"

	"github.com/phaseq/mwtest/internal/runner"
	"github.com/phaseq/mwtest/internal/text"
)

// StdoutSink prints a single overwritten progress line per result, plus
// the full output of failing (or, in verbose mode, every) test. On a real
// terminal it drives a spinner alongside the progress line; piped into a
// file or CI log it falls back to plain, non-overwriting lines.
type StdoutSink struct {
	out     io.Writer
	verbose bool
	isTTY   bool
	spin    *spinner.Spinner

	mu     sync.Mutex
	failed []string
}

// NewStdoutSink builds a StdoutSink writing to out. TTY-ness is probed via
// golang.org/x/term so tests (and CI logs) don't see spinner control codes.
func NewStdoutSink(out *os.File, verbose bool) *StdoutSink {
	isTTY := term.IsTerminal(int(out.Fd()))
	s := &StdoutSink{out: out, verbose: verbose, isTTY: isTTY}
	if isTTY {
		s.spin = spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(out))
		s.spin.Start()
	}
	return s
}

func (s *StdoutSink) Add(i, n int, instance runner.TestInstance, result runner.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := instance.AppName + " " + instance.TestID.ID
	if !result.Success() {
		s.failed = append(s.failed, uid)
	}

	status := "Ok"
	if !result.Success() {
		status = "Failed"
	}

	line := fmt.Sprintf("[%d/%d] %s: %s --id %q", i, n, status, instance.AppName, instance.TestID.ID)

	width := s.terminalWidth()
	line = text.Truncate(line, width)
	line = text.PadTo(line, width)

	if s.isTTY {
		fmt.Fprintf(s.out, "\r%s", line)
	} else {
		fmt.Fprintln(s.out, line)
	}

	if !result.Success() || s.verbose {
		fmt.Fprintf(s.out, "\n%s\n\n", result.CombinedOutput)
	}
}

func (s *StdoutSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spin != nil {
		s.spin.Stop()
	}
	if !s.verbose {
		fmt.Fprintln(s.out)
	}
	if len(s.failed) > 0 {
		fmt.Fprintln(s.out, "failed tests:")
		for _, line := range text.WrapLines(strings.Join(s.failed, ", "), s.terminalWidth()) {
			fmt.Fprintln(s.out, line)
		}
	}
	return nil
}

func (s *StdoutSink) terminalWidth() int {
	size, err := terminal.GetSize()
	if err != nil || size.Width <= 0 {
		return 80
	}
	return size.Width
}
