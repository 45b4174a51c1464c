package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/repolens/internal/scanner"
)

type rulesFile struct {
	Rules map[string]scanner.Override `yaml:"rules"`
}

// LoadRuleOverrides reads rule overrides from a YAML file such as
//
//	rules:
//	  no-console:
//	    disabled: true
//	  insecure-http:
//	    severity: high
//
// An empty path yields no overrides.
func LoadRuleOverrides(path string) (map[string]scanner.Override, error) {
	if path == "" {
		return map[string]scanner.Override{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if f.Rules == nil {
		f.Rules = map[string]scanner.Override{}
	}
	return f.Rules, nil
}
