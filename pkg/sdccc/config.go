package sdccc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Names of the TOML files SDCcc ships in the `configuration` directory next
// to its executable.
const (
	configDirName      = "configuration"
	configFileName     = "config.toml"
	testConfigFileName = "test_configuration.toml"
	testParamFileName  = "test_parameter.toml"
)

// Config is the tool's main configuration (`config.toml`).
type Config map[string]any

// TestParameters are the tool's test parameters (`test_parameter.toml`).
type TestParameters map[string]any

// Requirements maps a standard name to the requirement ids of that standard
// and whether each is enabled (`test_configuration.toml`).
type Requirements map[string]map[string]bool

// Enabled returns the sorted ids of all enabled requirements of a standard.
func (r Requirements) Enabled(standard string) []string {
	var ids []string
	for id, enabled := range r[standard] {
		if enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func loadTOML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (r *Runner) configPath(name string) string {
	return filepath.Join(filepath.Dir(r.exe), configDirName, name)
}

// Config loads the default configuration shipped with the installed tool.
func (r *Runner) Config() (Config, error) {
	var cfg Config
	if err := loadTOML(r.configPath(configFileName), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Requirements loads the requirement catalog shipped with the installed
// tool, listing every requirement the tool can test and whether it is
// enabled by default.
func (r *Runner) Requirements() (Requirements, error) {
	var reqs Requirements
	if err := loadTOML(r.configPath(testConfigFileName), &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// TestParameters loads the default test parameters shipped with the
// installed tool.
func (r *Runner) TestParameters() (TestParameters, error) {
	var params TestParameters
	if err := loadTOML(r.configPath(testParamFileName), &params); err != nil {
		return nil, err
	}
	return params, nil
}

// CheckRequirements verifies that every requirement enabled in the given
// user requirements file is known to and enabled in the installed tool.
func (r *Runner) CheckRequirements(path string) error {
	available, err := r.Requirements()
	if err != nil {
		return err
	}
	var provided Requirements
	if err := loadTOML(path, &provided); err != nil {
		return err
	}
	return CheckRequirements(provided, available)
}

// RequirementError reports a requirement selection the installed tool does
// not support. ID is empty when the standard itself is unknown.
type RequirementError struct {
	Standard  string
	ID        string
	Supported []string
}

func (e *RequirementError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("unsupported standard %q, supported standards are %s",
			e.Standard, strings.Join(e.Supported, ", "))
	}
	return fmt.Sprintf("requirement %s.%s is not provided by this sdccc version", e.Standard, e.ID)
}

// CheckRequirements verifies that every enabled requirement in provided is
// an enabled requirement in available. Disabled entries in provided are
// ignored, they merely document the selection.
func CheckRequirements(provided, available Requirements) error {
	for standard, reqs := range provided {
		avail, ok := available[standard]
		if !ok {
			supported := make([]string, 0, len(available))
			for s := range available {
				supported = append(supported, s)
			}
			sort.Strings(supported)
			return &RequirementError{Standard: standard, Supported: supported}
		}
		ids := make([]string, 0, len(reqs))
		for id := range reqs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if !reqs[id] {
				continue
			}
			if !avail[id] {
				return &RequirementError{Standard: standard, ID: id}
			}
		}
	}
	return nil
}
