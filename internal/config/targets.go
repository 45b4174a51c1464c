package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target is one repository of a batch run.
type Target struct {
	Owner  string `yaml:"owner" json:"owner"`
	Repo   string `yaml:"repo" json:"repo"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
	Kind   string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

type targetsFile struct {
	Repositories []Target `yaml:"repositories"`
}

// LoadTargets reads the repositories of a batch run from a YAML file.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	for i, t := range f.Repositories {
		if t.Owner == "" || t.Repo == "" {
			return nil, fmt.Errorf("batch entry %d: owner and repo are required", i+1)
		}
	}
	return f.Repositories, nil
}
