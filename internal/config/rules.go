package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"seedvault/internal/rules"
)

// CompiledRules returns the evaluated archiving rule list plus any warnings
// produced while compiling it. An external rules file, when configured, takes
// precedence over the inline list. Rule problems never fail config loading:
// an unreadable or malformed source yields an empty list and a warning so
// the resolver falls back to its synthesized paths.
func (c *Config) CompiledRules() ([]rules.Rule, []string) {
	if path := strings.TrimSpace(c.Archive.RulesFile); path != "" {
		raws, err := loadRulesFile(path)
		if err != nil {
			return nil, []string{fmt.Sprintf("rules file %s: %v; continuing with no rules", path, err)}
		}
		return rules.Compile(raws)
	}
	raws, warnings := rules.FromAny(c.Archive.Rules)
	compiled, compileWarnings := rules.Compile(raws)
	return compiled, append(warnings, compileWarnings...)
}

func loadRulesFile(path string) ([]rules.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raws []rules.Raw
	if err := yaml.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return raws, nil
}
