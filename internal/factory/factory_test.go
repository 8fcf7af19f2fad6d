package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phaseq/mwtest/internal/appconfig"
	"github.com/phaseq/mwtest/internal/factory"
	"github.com/phaseq/mwtest/internal/runner"
)

func TestBuildGtestCase(t *testing.T) {
	app := appconfig.App{
		Properties: appconfig.Properties{CommandTemplate: runner.CommandTemplate{"{{exe}}", "--gtest_filter={{input}}"}},
		Layout:     appconfig.Layout{Exe: "/build/gtest_runner", Cwd: "/build/cwd"},
	}

	creator, err := factory.Build(app, "gtest", runner.TestID{ID: "Suite.Case"}, "/testcases", t.TempDir(), true)
	require.NoError(t, err)

	instance, err := creator.Instantiate()
	require.NoError(t, err)
	require.Equal(t, []string{"/build/gtest_runner", "--gtest_filter=Suite.Case"}, instance.Command.Argv)
	require.Equal(t, "/build/cwd", instance.Command.Cwd)
}

func TestBuildGtestCaseWithoutCwdFails(t *testing.T) {
	app := appconfig.App{
		Properties: appconfig.Properties{CommandTemplate: runner.CommandTemplate{"{{exe}}", "{{input}}"}},
		Layout:     appconfig.Layout{Exe: "/build/gtest_runner"},
	}

	_, err := factory.Build(app, "gtest", runner.TestID{ID: "Suite.Case"}, "/testcases", t.TempDir(), true)
	require.Error(t, err)
	var configErr *runner.ConfigurationError
	require.ErrorAs(t, err, &configErr)
}

func TestBuildDirectoryCase(t *testing.T) {
	testcasesRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(testcasesRoot, "machsim", "case1"), 0o755))

	app := appconfig.App{
		Properties: appconfig.Properties{CommandTemplate: runner.CommandTemplate{"{{exe}}", "{{input}}"}},
		Layout:     appconfig.Layout{Exe: "/build/machsim"},
	}

	creator, err := factory.Build(app, "machsim", runner.TestID{ID: "case1", RelPath: "machsim/case1"}, testcasesRoot, t.TempDir(), true)
	require.NoError(t, err)

	instance, err := creator.Instantiate()
	require.NoError(t, err)
	expectedDir := filepath.Join(testcasesRoot, "machsim", "case1")
	require.Equal(t, []string{"/build/machsim", expectedDir}, instance.Command.Argv)
	require.Equal(t, expectedDir, instance.Command.Cwd)
}

func TestBuildFileWithConfiguredCwd(t *testing.T) {
	testcasesRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(testcasesRoot, "cncsim"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(testcasesRoot, "cncsim", "job.nc"), []byte("x"), 0o644))

	app := appconfig.App{
		Properties: appconfig.Properties{CommandTemplate: runner.CommandTemplate{"{{exe}}", "{{input}}"}},
		Layout:     appconfig.Layout{Exe: "/build/cncsim", Cwd: "/build/cwd"},
	}

	creator, err := factory.Build(app, "cncsim", runner.TestID{ID: "job", RelPath: "cncsim/job.nc"}, testcasesRoot, t.TempDir(), true)
	require.NoError(t, err)

	instance, err := creator.Instantiate()
	require.NoError(t, err)
	expectedInput := filepath.Join(testcasesRoot, "cncsim", "job.nc")
	require.Equal(t, []string{"/build/cncsim", expectedInput}, instance.Command.Argv)
	require.Equal(t, "/build/cwd", instance.Command.Cwd)
}

func TestBuildFileWithoutConfiguredCwd(t *testing.T) {
	testcasesRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(testcasesRoot, "verifier"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(testcasesRoot, "verifier", "job.verytest.ini"), []byte("x"), 0o644))

	app := appconfig.App{
		Properties: appconfig.Properties{CommandTemplate: runner.CommandTemplate{"{{exe}}", "{{input}}"}},
		Layout:     appconfig.Layout{Exe: "/build/verifier"},
	}

	creator, err := factory.Build(app, "verifier", runner.TestID{ID: "job", RelPath: "verifier/job.verytest.ini"}, testcasesRoot, t.TempDir(), true)
	require.NoError(t, err)

	instance, err := creator.Instantiate()
	require.NoError(t, err)
	require.Equal(t, []string{"/build/verifier", "job.verytest.ini"}, instance.Command.Argv)
	require.Equal(t, filepath.Join(testcasesRoot, "verifier"), instance.Command.Cwd)
}

func TestBuildScratchDirUniquePerInstantiation(t *testing.T) {
	app := appconfig.App{
		Properties: appconfig.Properties{CommandTemplate: runner.CommandTemplate{"{{exe}}", "{{tmp_path}}"}},
		Layout:     appconfig.Layout{Exe: "/build/tool", Cwd: "/build/cwd"},
	}

	creator, err := factory.Build(app, "tool", runner.TestID{ID: "case"}, "/testcases", t.TempDir(), true)
	require.NoError(t, err)

	first, err := creator.Instantiate()
	require.NoError(t, err)
	second, err := creator.Instantiate()
	require.NoError(t, err)

	require.Equal(t, first.Command.Cwd, second.Command.Cwd)
	require.Equal(t, first.Command.Argv[0], second.Command.Argv[0])
	require.NotEqual(t, first.Command.ScratchDir, second.Command.ScratchDir)
	require.DirExists(t, first.Command.ScratchDir)
	require.DirExists(t, second.Command.ScratchDir)
}
