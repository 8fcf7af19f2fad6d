package appconfig

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// LocalOverride is an optional, developer-local file (by default local.yaml
// in the config directory) that tweaks a handful of per-app preset knobs
// without editing the checked-in JSON preset. It is parsed with
// github.com/goccy/go-yaml.
type LocalOverride struct {
	Apps map[string]LocalOverrideApp `yaml:"apps"`
}

// LocalOverrideApp carries the subset of TestGroup knobs worth overriding
// locally: turning off the remote bridge for a flaky app, or bumping
// rerun_if_failed while chasing down a specific failure.
type LocalOverrideApp struct {
	XGE           *bool `yaml:"xge,omitempty"`
	RerunIfFailed *int  `yaml:"rerun_if_failed,omitempty"`
}

// LoadLocalOverride reads and parses a local override file. A missing file
// is not an error: it returns a zero-value LocalOverride, since the file is
// optional by design.
func LoadLocalOverride(path string) (LocalOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LocalOverride{}, nil
		}
		return LocalOverride{}, errors.Wrapf(err, "failed to read local override file %q", path)
	}

	var override LocalOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return LocalOverride{}, errors.Wrapf(err, "failed to parse local override file %q", path)
	}
	return override, nil
}

// Apply merges override on top of preset in place: for every app present in
// both, an XGE override replaces the XGE field on every group belonging
// to that app. RerunIfFailed has no
// dedicated TestGroup field, so it is threaded through via the returned
// map for the scheduler to consult per-app.
func (o LocalOverride) Apply(preset PresetFile) (rerunOverrides map[string]int) {
	rerunOverrides = make(map[string]int)
	for appName, appOverride := range o.Apps {
		groups, ok := preset.Apps[appName]
		if !ok {
			continue
		}
		if appOverride.XGE != nil {
			for i := range groups.Groups {
				xge := *appOverride.XGE
				groups.Groups[i].XGE = &xge
			}
			preset.Apps[appName] = groups
		}
		if appOverride.RerunIfFailed != nil {
			rerunOverrides[appName] = *appOverride.RerunIfFailed
		}
	}
	return rerunOverrides
}
