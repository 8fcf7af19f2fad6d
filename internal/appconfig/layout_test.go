package appconfig_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phaseq/mwtest/internal/appconfig"
)

func TestLoadAppsResolvesAgainstBuildRoot(t *testing.T) {
	dir := t.TempDir()
	buildRoot := filepath.Join(dir, "build")

	propsPath := writeFile(t, dir, "apps.json", `{
		"gtest": { "command_template": ["{{exe}}", "--gtest_filter={{input}}"] }
	}`)
	layoutPath := writeFile(t, dir, "dev.json", `{
		"apps": { "gtest": { "exe": "bin/gtest_runner.exe", "cwd": "` +
		filepath.ToSlash(dir) + `" } }
	}`)

	apps, err := appconfig.LoadApps(propsPath, layoutPath, buildRoot)
	require.NoError(t, err)

	app, ok := apps.Get("gtest")
	require.True(t, ok)
	require.True(t, filepath.IsAbs(app.Layout.Exe))
	require.Equal(t, filepath.Join(buildRoot, "bin/gtest_runner.exe"), app.Layout.Exe)
	require.Contains(t, app.Properties.CommandTemplate, app.Layout.Exe)
}

func TestLoadAppsMissingProperties(t *testing.T) {
	dir := t.TempDir()
	buildRoot := filepath.Join(dir, "build")

	propsPath := writeFile(t, dir, "apps.json", `{}`)
	layoutPath := writeFile(t, dir, "dev.json", `{
		"apps": { "gtest": { "exe": "bin/gtest_runner.exe" } }
	}`)

	_, err := appconfig.LoadApps(propsPath, layoutPath, buildRoot)
	require.Error(t, err)
}
