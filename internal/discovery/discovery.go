// Package discovery turns a test group's find_glob/find_gtest declaration
// into a list of runner.TestID values, either by walking the testcase root
// for files matching a glob or by asking a gtest binary to list its own
// subtests.
package discovery

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/phaseq/mwtest/internal/appconfig"
)

// FindPaths discovers file- or directory-backed tests under testcasesRoot
// matching group.FindGlob, extracting each test's id via idPattern's first
// capture group.
func FindPaths(testcasesRoot string, group appconfig.TestGroup, props appconfig.Properties, idPattern string) ([]TestID, error) {
	re, err := regexp.Compile(idPattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid id_pattern %q", idPattern)
	}

	abs := filepath.Join(testcasesRoot, group.FindGlob)
	matches, err := doublestar.FilepathGlob(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid find_glob %q", group.FindGlob)
	}

	var ids []TestID
	for _, match := range matches {
		path := match
		if props.InputIsDir {
			path = filepath.Dir(path)
		}

		relPath, err := filepath.Rel(testcasesRoot, path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not relativize %q", path)
		}
		relPath = filepath.ToSlash(relPath)

		capture := re.FindStringSubmatch(relPath)
		if capture == nil || len(capture) < 2 {
			return nil, errors.Errorf("pattern did not match one of the tests\n pattern: %s\n test: %s", idPattern, relPath)
		}

		ids = append(ids, TestID{ID: capture[1], RelPath: relPath})
	}
	return dedupe(ids), nil
}

// dedupe collapses the input_is_dir case, where many glob matches (files
// inside the same directory) resolve to the same relative path.
func dedupe(ids []TestID) []TestID {
	seen := make(map[string]bool, len(ids))
	var out []TestID
	for _, id := range ids {
		if seen[id.RelPath] {
			continue
		}
		seen[id.RelPath] = true
		out = append(out, id)
	}
	return out
}

// TestID is the discovery-layer counterpart of runner.TestID; it stays
// independent of the runner package so discovery has no reason to import
// it, mirroring appconfig's one-way dependency on runner.
type TestID struct {
	ID      string
	RelPath string
}

// FindGtestSubtests spawns exe with --gtest_filter=filter and parses its
// "list tests" output: a suite header line followed by indented case
// lines, skipping anything mentioning DISABLED and any trailing comment
// after a '#'.
func FindGtestSubtests(exe, filter string) ([]TestID, error) {
	if _, err := os.Stat(exe); err != nil {
		return nil, errors.Wrapf(err, "could not find gtest executable at %s (did you forget to build?)", exe)
	}

	cmd := exec.Command(exe, fmt.Sprintf("--gtest_filter=%s", filter), "--gtest_list_tests")
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "failed to gather gtest subtests")
	}

	return parseGtestList(string(output)), nil
}

func parseGtestList(output string) []TestID {
	var results []TestID
	var group string

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "DISABLED") {
			continue
		}
		line = strings.SplitN(line, "#", 2)[0]

		if !strings.HasPrefix(line, " ") {
			group = strings.TrimSpace(line)
			continue
		}

		results = append(results, TestID{ID: group + strings.TrimSpace(line)})
	}
	return results
}
