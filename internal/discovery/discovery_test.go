package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phaseq/mwtest/internal/appconfig"
	"github.com/phaseq/mwtest/internal/discovery"
)

func writeEmpty(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindPathsMatchesAndExtractsID(t *testing.T) {
	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "cutsim", "_servertest", "verifier", "smoke", "a", "case.verytest.ini"))
	writeEmpty(t, filepath.Join(root, "cutsim", "_servertest", "verifier", "smoke", "b", "case.verytest.ini"))

	group := appconfig.TestGroup{FindGlob: "cutsim/_servertest/verifier/smoke/**/*.verytest.ini"}
	ids, err := discovery.FindPaths(root, group, appconfig.Properties{}, `cutsim/_servertest/verifier/(.*)\.verytest\.ini`)

	require.NoError(t, err)
	require.Len(t, ids, 2)
	gotIDs := []string{ids[0].ID, ids[1].ID}
	require.ElementsMatch(t, []string{"smoke/a/case", "smoke/b/case"}, gotIDs)
}

func TestFindPathsInputIsDirDedupes(t *testing.T) {
	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "cases", "one", "input.ini"))
	writeEmpty(t, filepath.Join(root, "cases", "one", "extra.ini"))

	group := appconfig.TestGroup{FindGlob: "cases/**/*.ini"}
	props := appconfig.Properties{InputIsDir: true}
	ids, err := discovery.FindPaths(root, group, props, `cases/(.*)`)

	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, "one", ids[0].ID)
}

func TestFindPathsMismatchedPatternErrors(t *testing.T) {
	root := t.TempDir()
	writeEmpty(t, filepath.Join(root, "cases", "one.ini"))

	group := appconfig.TestGroup{FindGlob: "cases/*.ini"}
	_, err := discovery.FindPaths(root, group, appconfig.Properties{}, `nomatch-(\d+)`)

	require.Error(t, err)
}

func TestFindGtestSubtestsParsesGroupedOutput(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "fake_gtest.sh")
	script := "#!/bin/sh\n" +
		"cat <<'EOF'\n" +
		"Suite.\n" +
		"  CaseOne\n" +
		"  CaseTwo  # a comment\n" +
		"  DISABLED_Skipped\n" +
		"OtherSuite.\n" +
		"  CaseThree\n" +
		"EOF\n"
	require.NoError(t, os.WriteFile(fake, []byte(script), 0o755))

	ids, err := discovery.FindGtestSubtests(fake, "*")
	require.NoError(t, err)

	var names []string
	for _, id := range ids {
		names = append(names, id.ID)
	}
	require.Equal(t, []string{"Suite.CaseOne", "Suite.CaseTwo", "OtherSuite.CaseThree"}, names)
}

func TestFindGtestSubtestsMissingExecutable(t *testing.T) {
	_, err := discovery.FindGtestSubtests(filepath.Join(t.TempDir(), "nope"), "*")
	require.Error(t, err)
}
