package main

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/phaseq/mwtest/internal/appconfig"
	"github.com/phaseq/mwtest/internal/discovery"
	"github.com/phaseq/mwtest/internal/factory"
	"github.com/phaseq/mwtest/internal/runner"
)

// selectedTest is one discovered test id together with the TestGroup it
// was discovered under, carried through to creator construction so its
// allow_xge bit (including any local xge override) survives past
// discovery.
type selectedTest struct {
	appName string
	id      runner.TestID
	group   appconfig.TestGroup
}

// idFilter builds a substring filter (possibly several, OR'd) or an
// exact-match id filter, normalizing both the filter and the candidate id
// the same way (lowercased, backslashes turned into forward slashes) so
// filters behave the same on every platform.
func idFilter(filters []string, exactID string) func(string) bool {
	normalize := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "\\", "/"))
	}
	switch {
	case len(filters) > 0:
		normalized := make([]string, len(filters))
		for i, f := range filters {
			normalized[i] = normalize(f)
		}
		return func(id string) bool {
			id = normalize(id)
			for _, f := range normalized {
				if strings.Contains(id, f) {
					return true
				}
			}
			return false
		}
	case exactID != "":
		want := normalize(exactID)
		return func(id string) bool { return normalize(id) == want }
	default:
		return func(string) bool { return true }
	}
}

// selectTests discovers every test id belonging to appNames, restricted to
// the test groups named in the preset and passing filter.
func selectTests(apps appconfig.Apps, preset appconfig.PresetFile, appNames []string, filter func(string) bool) ([]selectedTest, error) {
	var selected []selectedTest
	for _, appName := range appNames {
		app, ok := apps.Get(appName)
		if !ok {
			return nil, errors.Errorf("%q is not a registered app: must be one of %v", appName, apps.AppNames())
		}

		groups, ok := preset.Get(appName)
		if !ok {
			continue
		}

		for _, group := range groups.Groups {
			ids, err := discoverGroup(app, group, groups.IDPattern)
			if err != nil {
				return nil, errors.Wrapf(err, "app %q", appName)
			}
			for _, id := range ids {
				if !filter(id.ID) {
					continue
				}
				selected = append(selected, selectedTest{appName: appName, id: id, group: group})
			}
		}
	}
	return selected, nil
}

func discoverGroup(app appconfig.App, group appconfig.TestGroup, idPattern string) ([]runner.TestID, error) {
	switch {
	case group.FindGlob != "":
		found, err := discovery.FindPaths(testcasesRoot, group, app.Properties, idPattern)
		if err != nil {
			return nil, err
		}
		ids := make([]runner.TestID, len(found))
		for i, f := range found {
			ids[i] = runner.TestID{ID: f.ID, RelPath: f.RelPath}
		}
		return ids, nil

	case group.FindGtest != "":
		found, err := discovery.FindGtestSubtests(app.Layout.Exe, group.FindGtest)
		if err != nil {
			return nil, err
		}
		ids := make([]runner.TestID, len(found))
		for i, f := range found {
			ids[i] = runner.TestID{ID: f.ID}
		}
		return ids, nil

	default:
		return nil, errors.New("test group has neither find_glob nor find_gtest")
	}
}

// buildCreators turns each selectedTest into a runner.TestInstanceCreator
// via the factory package, resolving inputs against testcasesRoot and
// wiring scratch directories under tmpRoot.
func buildCreators(apps appconfig.Apps, tests []selectedTest, tmpRoot string) ([]*runner.TestInstanceCreator, error) {
	creators := make([]*runner.TestInstanceCreator, 0, len(tests))
	for _, t := range tests {
		app, _ := apps.Get(t.appName)
		creator, err := factory.Build(app, t.appName, t.id, testcasesRoot, tmpRoot, t.group.AllowXGE())
		if err != nil {
			return nil, err
		}
		creators = append(creators, creator)
	}
	return creators, nil
}

func sortedAppNames(apps appconfig.Apps) []string {
	names := apps.AppNames()
	sort.Strings(names)
	return names
}
