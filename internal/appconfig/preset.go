package appconfig

import (
	"encoding/json"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// SupportedSchema is the range of preset schema_version values this binary
// understands. A preset authored for an incompatible future schema fails
// to load with a clear error instead of being silently misinterpreted.
var SupportedSchema = semver.MustParse("1.0.0")

// TestGroup is one discovery strategy within a TestGroups entry: either a
// glob pattern or a gtest-style filter, but not both.
type TestGroup struct {
	FindGlob  string   `json:"find_glob,omitempty"`
	FindGtest string   `json:"find_gtest,omitempty"`
	XGE       *bool    `json:"xge,omitempty"`
	Timeout   *float64 `json:"timeout,omitempty"`
}

// AllowXGE reports the effective xge flag, defaulting to true when unset.
func (g TestGroup) AllowXGE() bool {
	if g.XGE == nil {
		return true
	}
	return *g.XGE
}

// TestGroups is one application's entry in the preset file.
type TestGroups struct {
	IDPattern string      `json:"id_pattern"`
	Groups    []TestGroup `json:"groups"`
}

// PresetFile is the top-level shape of the preset JSON file: app name ->
// TestGroups, plus an optional schema_version checked against
// SupportedSchema.
type PresetFile struct {
	SchemaVersion string                `json:"schema_version,omitempty"`
	Apps          map[string]TestGroups `json:"-"`
}

// rawPresetFile lets us decode the flat {app: TestGroups, ...} shape used
// on disk while still allowing an optional "schema_version" sibling key
// reserved by this implementation.
type rawPresetFile map[string]json.RawMessage

// LoadPresetFile reads and parses the preset JSON file from path and
// validates its schema_version, if present. Callers that also want a
// local override file merged in should load one separately with
// LoadLocalOverride and call LocalOverride.Apply.
func LoadPresetFile(path string) (PresetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PresetFile{}, errors.Wrapf(err, "failed to open preset file %q", path)
	}

	var raw rawPresetFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return PresetFile{}, errors.Wrapf(err, "failed to parse preset file %q", path)
	}

	file := PresetFile{Apps: make(map[string]TestGroups, len(raw))}
	for key, value := range raw {
		if key == "schema_version" {
			if err := json.Unmarshal(value, &file.SchemaVersion); err != nil {
				return PresetFile{}, errors.Wrapf(err, "invalid schema_version in preset file %q", path)
			}
			continue
		}
		var groups TestGroups
		if err := json.Unmarshal(value, &groups); err != nil {
			return PresetFile{}, errors.Wrapf(err, "failed to parse test groups for app %q in preset file %q", key, path)
		}
		file.Apps[key] = groups
	}

	if file.SchemaVersion != "" {
		if err := validateSchemaVersion(file.SchemaVersion); err != nil {
			return PresetFile{}, errors.Wrapf(err, "preset file %q", path)
		}
	}

	return file, nil
}

func validateSchemaVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid schema_version %q", raw)
	}
	if v.Major() != SupportedSchema.Major() {
		return errors.Errorf("preset schema_version %s is incompatible with this binary's supported schema %s", v, SupportedSchema)
	}
	return nil
}

// Get returns the named app's test groups, or ok=false if absent.
func (f PresetFile) Get(appName string) (TestGroups, bool) {
	groups, ok := f.Apps[appName]
	return groups, ok
}
