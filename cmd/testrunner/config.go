package main

import (
	"os"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/phaseq/mwtest/internal/appconfig"
)

// loadConfig resolves and parses the three JSON configuration files every
// subcommand needs: app properties, build layout, and the test-selection
// preset.
func loadConfig() (appconfig.Apps, appconfig.PresetFile, error) {
	root := configRoot()

	propertiesPath, err := root.Resolve(propertiesName)
	if err != nil {
		return nil, appconfig.PresetFile{}, err
	}
	layoutPath, err := root.Resolve(layoutName)
	if err != nil {
		return nil, appconfig.PresetFile{}, err
	}
	presetPath, err := root.Resolve(presetName)
	if err != nil {
		return nil, appconfig.PresetFile{}, err
	}

	apps, err := appconfig.LoadApps(propertiesPath, layoutPath, buildRoot)
	if err != nil {
		return nil, appconfig.PresetFile{}, err
	}
	preset, err := appconfig.LoadPresetFile(presetPath)
	if err != nil {
		return nil, appconfig.PresetFile{}, err
	}
	return apps, preset, nil
}

// resolveAppNames validates explicitly named apps against the registry, or
// -- when none are given on the command line and stdin is a terminal --
// prompts the user to pick exactly one, the way an ambiguous `--app`
// selection is disambiguated interactively.
func resolveAppNames(apps appconfig.Apps, args []string) ([]string, error) {
	if len(args) > 0 {
		for _, name := range args {
			if _, ok := apps.Get(name); !ok {
				return nil, errors.Errorf("%q is not a registered app: must be one of %v", name, sortedAppNames(apps))
			}
		}
		return args, nil
	}

	names := sortedAppNames(apps)
	if len(names) == 0 {
		return nil, errors.New("no applications are registered")
	}
	if len(names) == 1 || !term.IsTerminal(int(os.Stdin.Fd())) {
		return names, nil
	}

	prompt := promptui.Select{Label: "Select an application to run", Items: names}
	idx, _, err := prompt.Run()
	if err != nil {
		return nil, errors.Wrap(err, "application selection cancelled")
	}
	return []string{names[idx]}, nil
}
