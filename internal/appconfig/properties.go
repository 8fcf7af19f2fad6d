// Package appconfig loads the two JSON configuration files (app properties,
// build layout) plus a JSON preset file that together describe which
// applications exist, how to invoke them, and which tests belong to which
// group.
package appconfig

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/phaseq/mwtest/internal/runner"
)

// Properties is the per-application entry of apps.json.
type Properties struct {
	CommandTemplate runner.CommandTemplate `json:"command_template"`
	InputIsDir      bool                   `json:"input_is_dir"`
}

// rawProperties allows command_template to be authored either as a JSON
// array of fragments or as a single shell-like string, split into argv
// fragments at load time with github.com/mattn/go-shellwords. The array
// form is the canonical one; the string form is a convenience for
// hand-written presets.
type rawProperties struct {
	CommandTemplate json.RawMessage `json:"command_template"`
	InputIsDir      bool            `json:"input_is_dir"`
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw rawProperties
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.InputIsDir = raw.InputIsDir

	var fragments []string
	if err := json.Unmarshal(raw.CommandTemplate, &fragments); err == nil {
		p.CommandTemplate = runner.CommandTemplate(fragments)
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw.CommandTemplate, &asString); err != nil {
		return errors.Wrap(err, "command_template must be a JSON array of strings or a single shell-like string")
	}
	parser := shellwords.NewParser()
	parsed, err := parser.Parse(asString)
	if err != nil {
		return errors.Wrapf(err, "failed to split command_template %q into argv fragments", asString)
	}
	p.CommandTemplate = runner.CommandTemplate(parsed)
	return nil
}

// PropertiesFile is the top-level shape of apps.json: app name -> Properties.
type PropertiesFile map[string]Properties

// LoadPropertiesFile reads and parses apps.json from path.
func LoadPropertiesFile(path string) (PropertiesFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open app properties file %q", path)
	}
	defer f.Close()

	return parsePropertiesFile(f, path)
}

func parsePropertiesFile(r io.Reader, path string) (PropertiesFile, error) {
	var file PropertiesFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse app properties file %q", path)
	}
	return file, nil
}

// AppNames returns the application names listed in apps.json.
func (f PropertiesFile) AppNames() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	return names
}

// resolveAgainstBuildRoot joins a possibly-relative path against buildRoot
// and returns it absolute, matching apply_build_dir's behavior.
func resolveAgainstBuildRoot(buildRoot, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	joined := filepath.Join(buildRoot, path)
	return filepath.Abs(joined)
}
