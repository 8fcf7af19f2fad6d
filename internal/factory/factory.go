// Package factory turns a (TestID, registered app) pair into a
// runner.TestInstanceCreator, resolving the test's input four ways:
// rel_path present and a directory; rel_path present and a file with a
// configured cwd; rel_path present and a file with no configured cwd;
// rel_path absent.
package factory

import (
	"os"
	"path/filepath"

	"github.com/phaseq/mwtest/internal/appconfig"
	"github.com/phaseq/mwtest/internal/runner"
)

// Build produces a TestInstanceCreator for one (app, test) pair. tmpRoot is
// the scratch-directory root passed down to the command generator.
// allowXGE is the effective xge bit of the TestGroup this test id was
// discovered under.
func Build(
	app appconfig.App,
	appName string,
	testID runner.TestID,
	testcasesRoot string,
	tmpRoot string,
	allowXGE bool,
) (*runner.TestInstanceCreator, error) {
	input, cwd, err := resolveInput(appName, testID, testcasesRoot, app)
	if err != nil {
		return nil, err
	}

	template := app.Properties.CommandTemplate.Apply("{{input}}", input)
	generator := runner.NewCommandGenerator(template, cwd, tmpRoot)

	return runner.NewTestInstanceCreator(appName, testID, allowXGE, generator), nil
}

// resolveInput decides what a test's "input" path is and which cwd its
// command should run from, given whether a relative path was discovered
// for it and whether the owning app has a configured cwd.
func resolveInput(appName string, testID runner.TestID, testcasesRoot string, app appconfig.App) (input, cwd string, err error) {
	if testID.RelPath == "" {
		// "gtest case": the test id is its own input, a configured cwd is required.
		if app.Layout.Cwd == "" {
			return "", "", &runner.ConfigurationError{
				AppName: appName,
				TestID:  testID.ID,
				Reason:  "you need to specify a cwd for subtest-enumerated tests (see build layout)",
			}
		}
		return testID.ID, app.Layout.Cwd, nil
	}

	fullPath := filepath.Join(testcasesRoot, testID.RelPath)

	if app.Properties.InputIsDir {
		// "machsim case": input_is_dir already steered discovery to report
		// the parent directory as RelPath, so fullPath is itself a dir.
		return fullPath, fullPath, nil
	}

	isDir, statErr := isDirectory(fullPath)
	if statErr == nil && isDir {
		return fullPath, fullPath, nil
	}

	if app.Layout.Cwd != "" {
		// "cncsim case"
		return fullPath, app.Layout.Cwd, nil
	}

	// "verifier case": no configured cwd, run from the test file's own directory.
	return filepath.Base(fullPath), filepath.Dir(fullPath), nil
}

func isDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
