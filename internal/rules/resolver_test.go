package rules_test

import (
	"testing"

	"seedvault/internal/rules"
)

func compileRules(t *testing.T, raws []rules.Raw) []rules.Rule {
	t.Helper()
	list, warnings := rules.Compile(raws)
	if len(warnings) > 0 {
		t.Fatalf("unexpected compile warnings: %v", warnings)
	}
	return list
}

func TestResolveFirstMatchWins(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{If: map[string]any{"category": "movies"}, Then: rules.RawTarget{RemotePath: "Films/{torrentName}"}},
		{If: map[string]any{"category": "movies"}, Then: rules.RawTarget{RemotePath: "Never/{torrentName}"}},
	})

	got := rules.Resolve(rules.Item{Name: "Alpha", Category: "Movies"}, list)
	if got != "Films/Alpha" {
		t.Fatalf("Resolve = %q, want %q", got, "Films/Alpha")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{If: map[string]any{"tags": []any{"linux", "iso"}}, Then: rules.RawTarget{RemotePath: "ISOs/{torrentName}"}},
		{If: map[string]any{"category": "movies"}, Then: rules.RawTarget{RemotePath: "Films/{torrentName}"}},
	})
	item := rules.Item{Name: "Debian 12", Category: "Movies", Tags: "iso"}

	first := rules.Resolve(item, list)
	for i := 0; i < 10; i++ {
		if got := rules.Resolve(item, list); got != first {
			t.Fatalf("Resolve not deterministic: %q then %q", first, got)
		}
	}
	if first != "ISOs/Debian 12" {
		t.Fatalf("Resolve = %q, want %q", first, "ISOs/Debian 12")
	}
}

func TestResolveOrSemanticsAcrossConditions(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{
			If:   map[string]any{"category": "books", "name_matches": `(?i)epub`},
			Then: rules.RawTarget{RemotePath: "Library/{torrentName}"},
		},
	})

	// Category matches, name does not.
	if got := rules.Resolve(rules.Item{Name: "Alpha", Category: "Books"}, list); got != "Library/Alpha" {
		t.Fatalf("category-only match = %q", got)
	}
	// Name matches, category does not.
	if got := rules.Resolve(rules.Item{Name: "Beta.epub", Category: "other"}, list); got != "Library/Beta.epub" {
		t.Fatalf("name-only match = %q", got)
	}
}

func TestResolveDefaultAppliesOnlyWhenNothingMatches(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{If: "default", Then: rules.RawTarget{RemotePath: "Other/{category}"}},
		{If: map[string]any{"category": "movies"}, Then: rules.RawTarget{RemotePath: "Films/{torrentName}"}},
	})

	// Conditional rule wins even though the default is declared first.
	if got := rules.Resolve(rules.Item{Name: "Alpha", Category: "Movies"}, list); got != "Films/Alpha" {
		t.Fatalf("conditional over default = %q", got)
	}
	if got := rules.Resolve(rules.Item{Name: "Alpha", Category: "Movies2"}, list); got != "Other/Movies2" {
		t.Fatalf("default fallback = %q", got)
	}
}

func TestResolvePlaceholders(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{
			If:   map[string]any{"category": "docs"},
			Then: rules.RawTarget{RemotePath: "Docs/{year}/{torrentName}"},
		},
	})

	got := rules.Resolve(rules.Item{Name: "Beta (1999)", Category: "Docs"}, list)
	if got != "Docs/1999/Beta (1999)" {
		t.Fatalf("Resolve = %q, want %q", got, "Docs/1999/Beta (1999)")
	}

	got = rules.Resolve(rules.Item{Name: "NoYear", Category: "Docs"}, list)
	if got != "Docs/UnknownYear/NoYear" {
		t.Fatalf("Resolve without year = %q", got)
	}
}

func TestResolveSynthesizedFallback(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{If: map[string]any{"category": "movies"}, Then: rules.RawTarget{RemotePath: "Films/{torrentName}"}},
	})

	got := rules.Resolve(rules.Item{Name: "Gamma", Category: "X", Tags: "sci-fi,space"}, list)
	if got != "sci-fi/X/Gamma" {
		t.Fatalf("fallback = %q, want %q", got, "sci-fi/X/Gamma")
	}
}

func TestResolveFallbackDefaults(t *testing.T) {
	got := rules.Resolve(rules.Item{Name: "Delta"}, nil)
	if got != "UnTagged/Uncategorized/Delta" {
		t.Fatalf("empty metadata fallback = %q", got)
	}
}

func TestResolveNormalizesSeparators(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{If: "default", Then: rules.RawTarget{RemotePath: `\Media\{category}\`}},
	})

	got := rules.Resolve(rules.Item{Name: "Alpha", Category: "tv"}, list)
	if got != "Media/tv" {
		t.Fatalf("normalized = %q", got)
	}
}

func TestResolveCategoryMatchIsCaseInsensitive(t *testing.T) {
	list := compileRules(t, []rules.Raw{
		{If: map[string]any{"category": "TV"}, Then: rules.RawTarget{RemotePath: "Shows/{torrentName}"}},
	})

	if got := rules.Resolve(rules.Item{Name: "Alpha", Category: "tv"}, list); got != "Shows/Alpha" {
		t.Fatalf("case-insensitive category = %q", got)
	}
}
