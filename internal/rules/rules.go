package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Raw is the on-disk shape of a rule, shared by the TOML config section and
// the optional YAML rules file. Both halves are loosely typed so a malformed
// rule surfaces as a compile warning rather than a decode error: If holds
// either the string "default" or a table of match conditions, Then holds a
// table with remote_path (or a RawTarget when built in code).
type Raw struct {
	If   any `toml:"if" yaml:"if"`
	Then any `toml:"then" yaml:"then"`
}

// RawTarget is the destination half of a raw rule.
type RawTarget struct {
	RemotePath string `toml:"remote_path" yaml:"remote_path"`
}

// Rule is the compiled form: either the default fallback or a conditional
// rule with at least one match condition present.
type Rule struct {
	Default    bool
	Category   string
	Tags       []string
	NameRegexp *regexp.Regexp // nil when name_matches was absent or invalid
	RemotePath string
}

const defaultMarker = "default"

// FromAny converts a loosely decoded rule list into raw rules. Shape problems
// degrade to warnings and a shorter (possibly empty) list, never an error.
func FromAny(v any) ([]Raw, []string) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []Raw:
		return list, nil
	case []map[string]any:
		raws := make([]Raw, 0, len(list))
		for _, entry := range list {
			raws = append(raws, Raw{If: entry["if"], Then: entry["then"]})
		}
		return raws, nil
	case []any:
		raws := make([]Raw, 0, len(list))
		var warnings []string
		for i, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("rule %d: must be a table with if/then", i))
				continue
			}
			raws = append(raws, Raw{If: m["if"], Then: m["then"]})
		}
		return raws, warnings
	default:
		return nil, []string{"rules must be an array of tables"}
	}
}

// Compile converts raw rules into their evaluated form. Structural problems
// with an individual rule (unknown condition shape, invalid regular
// expression) produce warnings; the offending condition is dropped and the
// scan continues. An entirely unusable rule is skipped.
func Compile(raws []Raw) ([]Rule, []string) {
	compiled := make([]Rule, 0, len(raws))
	var warnings []string

	for i, raw := range raws {
		rule, warns, ok := compileOne(i, raw)
		warnings = append(warnings, warns...)
		if ok {
			compiled = append(compiled, rule)
		}
	}
	return compiled, warnings
}

func compileOne(index int, raw Raw) (Rule, []string, bool) {
	remotePath := remotePathOf(raw.Then)

	switch cond := raw.If.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(cond), defaultMarker) {
			if remotePath == "" {
				return Rule{}, []string{fmt.Sprintf("rule %d: default rule missing then.remote_path", index)}, false
			}
			return Rule{Default: true, RemotePath: remotePath}, nil, true
		}
		return Rule{}, []string{fmt.Sprintf("rule %d: unknown marker %q", index, cond)}, false
	case map[string]any:
		return compileConditional(index, cond, remotePath)
	default:
		return Rule{}, []string{fmt.Sprintf("rule %d: if must be a condition table or \"default\"", index)}, false
	}
}

func compileConditional(index int, cond map[string]any, remotePath string) (Rule, []string, bool) {
	var warnings []string
	if remotePath == "" {
		return Rule{}, []string{fmt.Sprintf("rule %d: missing then.remote_path", index)}, false
	}

	rule := Rule{RemotePath: remotePath}

	if v, ok := cond["category"]; ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			rule.Category = strings.TrimSpace(s)
		} else {
			warnings = append(warnings, fmt.Sprintf("rule %d: category condition must be a non-empty string", index))
		}
	}

	if v, ok := cond["tags"]; ok {
		tags, warn := compileTags(index, v)
		rule.Tags = tags
		if warn != "" {
			warnings = append(warnings, warn)
		}
	}

	if v, ok := cond["name_matches"]; ok {
		if pattern, ok := v.(string); ok && strings.TrimSpace(pattern) != "" {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("rule %d: invalid name_matches pattern %q: %v", index, pattern, err))
			} else {
				rule.NameRegexp = re
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("rule %d: name_matches condition must be a non-empty string", index))
		}
	}

	if rule.Category == "" && len(rule.Tags) == 0 && rule.NameRegexp == nil {
		warnings = append(warnings, fmt.Sprintf("rule %d: no usable conditions, skipping", index))
		return Rule{}, warnings, false
	}
	return rule, warnings, true
}

// remotePathOf extracts then.remote_path from the typed target or the loose
// map shape TOML and YAML decode into. Anything else reads as absent.
func remotePathOf(v any) string {
	switch target := v.(type) {
	case RawTarget:
		return strings.TrimSpace(target.RemotePath)
	case map[string]any:
		if s, ok := target["remote_path"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// compileTags accepts a single tag string or a list of tag strings.
func compileTags(index int, v any) ([]string, string) {
	switch tags := v.(type) {
	case string:
		if trimmed := strings.ToLower(strings.TrimSpace(tags)); trimmed != "" {
			return []string{trimmed}, ""
		}
	case []any:
		out := make([]string, 0, len(tags))
		for _, entry := range tags {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Sprintf("rule %d: tags list must contain only strings", index)
			}
			if trimmed := strings.ToLower(strings.TrimSpace(s)); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out, ""
		}
	case []string:
		out := make([]string, 0, len(tags))
		for _, s := range tags {
			if trimmed := strings.ToLower(strings.TrimSpace(s)); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out, ""
		}
	}
	return nil, fmt.Sprintf("rule %d: tags condition must be a string or list of strings", index)
}
