package appconfig

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/phaseq/mwtest/internal/runner"
)

// Layout is the per-application entry of the build-layout JSON file.
// Solution and Project are carried through for informational purposes only
// (for locating IDE project files); they are not otherwise interpreted
// here.
type Layout struct {
	Solution string `json:"solution,omitempty"`
	Project  string `json:"project,omitempty"`
	Exe      string `json:"exe"`
	Cwd      string `json:"cwd,omitempty"`
	Dll      string `json:"dll,omitempty"`
}

// LayoutFile is the top-level shape of the build layout JSON file.
type LayoutFile struct {
	Apps map[string]Layout `json:"apps"`
}

// LoadLayoutFile reads and parses a build-layout JSON file from path.
func LoadLayoutFile(path string) (LayoutFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return LayoutFile{}, errors.Wrapf(err, "failed to open build layout file %q", path)
	}
	defer f.Close()

	var file LayoutFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return LayoutFile{}, errors.Wrapf(err, "failed to parse build layout file %q", path)
	}
	return file, nil
}

// App bundles one application's properties and resolved layout.
type App struct {
	Properties Properties
	Layout     Layout
}

// Apps is the loaded, build-root-resolved set of registered applications.
type Apps map[string]App

// LoadApps loads apps.json and the build layout file, resolves every
// Layout path against buildRoot, and specializes each app's command
// template with {{exe}} and (if present) {{dll}}.
func LoadApps(propertiesPath, layoutPath, buildRoot string) (Apps, error) {
	properties, err := LoadPropertiesFile(propertiesPath)
	if err != nil {
		return nil, err
	}
	layoutFile, err := LoadLayoutFile(layoutPath)
	if err != nil {
		return nil, err
	}

	apps := make(Apps, len(layoutFile.Apps))
	for name, layout := range layoutFile.Apps {
		resolved, err := resolveLayout(layout, buildRoot)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve layout for app %q", name)
		}

		props, ok := properties[name]
		if !ok {
			return nil, &runner.ConfigurationError{
				AppName: name,
				Reason:  "app is present in the build layout but has no entry in the app properties file",
			}
		}
		props.CommandTemplate = props.CommandTemplate.Apply("{{exe}}", resolved.Exe)
		if resolved.Dll != "" {
			props.CommandTemplate = props.CommandTemplate.Apply("{{dll}}", resolved.Dll)
		}

		apps[name] = App{Properties: props, Layout: resolved}
	}
	return apps, nil
}

func resolveLayout(layout Layout, buildRoot string) (Layout, error) {
	exe, err := resolveAgainstBuildRoot(buildRoot, layout.Exe)
	if err != nil {
		return Layout{}, errors.Wrap(err, "failed to resolve exe path")
	}
	layout.Exe = exe

	if layout.Solution != "" {
		solution, err := resolveAgainstBuildRoot(buildRoot, layout.Solution)
		if err != nil {
			return Layout{}, errors.Wrap(err, "failed to resolve solution path")
		}
		layout.Solution = solution
	}
	if layout.Dll != "" {
		dll, err := resolveAgainstBuildRoot(buildRoot, layout.Dll)
		if err != nil {
			return Layout{}, errors.Wrap(err, "failed to resolve dll path")
		}
		layout.Dll = dll
	}
	return layout, nil
}

// Get returns the named app, or ok=false if it isn't registered.
func (a Apps) Get(name string) (App, bool) {
	app, ok := a[name]
	return app, ok
}

// AppNames returns every registered application name.
func (a Apps) AppNames() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	return names
}
