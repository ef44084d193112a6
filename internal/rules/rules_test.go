package rules_test

import (
	"strings"
	"testing"

	"seedvault/internal/rules"
)

func TestCompileInvalidRegexWarnsAndNeverMatches(t *testing.T) {
	list, warnings := rules.Compile([]rules.Raw{
		{
			If:   map[string]any{"category": "movies", "name_matches": "(unclosed"},
			Then: rules.RawTarget{RemotePath: "Films/{torrentName}"},
		},
	})
	if len(warnings) != 1 || !strings.Contains(warnings[0], "name_matches") {
		t.Fatalf("expected invalid regex warning, got %v", warnings)
	}
	if len(list) != 1 {
		t.Fatalf("expected rule kept despite bad pattern, got %d rules", len(list))
	}
	if list[0].NameRegexp != nil {
		t.Fatal("invalid pattern should compile to nil regexp")
	}

	// The rule still matches via its category condition.
	if got := rules.Resolve(rules.Item{Name: "(unclosed", Category: "movies"}, list); got != "Films/(unclosed" {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestCompileSkipsRuleWithoutConditions(t *testing.T) {
	list, warnings := rules.Compile([]rules.Raw{
		{If: map[string]any{}, Then: rules.RawTarget{RemotePath: "Somewhere"}},
	})
	if len(list) != 0 {
		t.Fatalf("expected no compiled rules, got %d", len(list))
	}
	if len(warnings) == 0 {
		t.Fatal("expected warning for conditionless rule")
	}
}

func TestCompileRejectsMissingRemotePath(t *testing.T) {
	list, warnings := rules.Compile([]rules.Raw{
		{If: map[string]any{"category": "movies"}},
		{If: "default"},
	})
	if len(list) != 0 {
		t.Fatalf("expected no compiled rules, got %d", len(list))
	}
	if len(warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", warnings)
	}
}

func TestCompileTagShapes(t *testing.T) {
	list, warnings := rules.Compile([]rules.Raw{
		{If: map[string]any{"tags": "Linux"}, Then: rules.RawTarget{RemotePath: "A"}},
		{If: map[string]any{"tags": []any{"ISO", " live "}}, Then: rules.RawTarget{RemotePath: "B"}},
		{If: map[string]any{"tags": []string{"Docs"}}, Then: rules.RawTarget{RemotePath: "C"}},
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(list))
	}
	if list[0].Tags[0] != "linux" {
		t.Fatalf("single tag not lowercased: %v", list[0].Tags)
	}
	if len(list[1].Tags) != 2 || list[1].Tags[1] != "live" {
		t.Fatalf("list tags not normalized: %v", list[1].Tags)
	}
}

func TestCompileRejectsNonStringRemotePath(t *testing.T) {
	list, warnings := rules.Compile([]rules.Raw{
		{If: map[string]any{"category": "movies"}, Then: map[string]any{"remote_path": 3}},
	})
	if len(list) != 0 {
		t.Fatalf("expected rule skipped, got %d", len(list))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "remote_path") {
		t.Fatalf("expected remote_path warning, got %v", warnings)
	}
}

func TestFromAnyToleratesShapeProblems(t *testing.T) {
	raws, warnings := rules.FromAny([]any{
		map[string]any{
			"if":   map[string]any{"category": "tv"},
			"then": map[string]any{"remote_path": "TV/{torrentName}"},
		},
		"not a rule",
	})
	if len(raws) != 1 {
		t.Fatalf("expected one usable raw rule, got %d", len(raws))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "table") {
		t.Fatalf("expected shape warning, got %v", warnings)
	}

	list, compileWarnings := rules.Compile(raws)
	if len(compileWarnings) != 0 {
		t.Fatalf("unexpected warnings: %v", compileWarnings)
	}
	if len(list) != 1 || list[0].Category != "tv" || list[0].RemotePath != "TV/{torrentName}" {
		t.Fatalf("compiled rule = %+v", list)
	}

	// A rule list that is not a list at all degrades to empty plus a warning.
	raws, warnings = rules.FromAny("everything")
	if len(raws) != 0 || len(warnings) != 1 {
		t.Fatalf("expected empty list with warning, got %v / %v", raws, warnings)
	}
}

func TestCompileUnknownMarker(t *testing.T) {
	list, warnings := rules.Compile([]rules.Raw{
		{If: "everything", Then: rules.RawTarget{RemotePath: "X"}},
	})
	if len(list) != 0 {
		t.Fatalf("expected rule skipped, got %d", len(list))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "unknown marker") {
		t.Fatalf("expected unknown marker warning, got %v", warnings)
	}
}
