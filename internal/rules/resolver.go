package rules

import (
	"regexp"
	"strings"
)

// Item carries the torrent metadata the resolver matches against.
type Item struct {
	Name     string
	Category string
	Tags     string // comma-separated, as reported by the client
}

const (
	uncategorized = "Uncategorized"
	untagged      = "UnTagged"
	unknownYear   = "UnknownYear"
)

var yearPattern = regexp.MustCompile(`\((\d{4})\)`)

// Resolve maps an item to its remote destination path. Conditional rules are
// scanned in declaration order with OR semantics across the conditions each
// rule specifies; the first match wins. A default rule applies only when no
// conditional rule matched, regardless of where it appears in the list. When
// nothing matches and no default exists, a deterministic
// tag/category/name path is synthesized. The result always uses forward
// slashes and carries no leading or trailing separator.
func Resolve(item Item, list []Rule) string {
	var defaultRule *Rule

	for i := range list {
		rule := &list[i]
		if rule.Default {
			if defaultRule == nil {
				defaultRule = rule
			}
			continue
		}
		if matches(item, rule) {
			return expand(rule.RemotePath, item)
		}
	}

	if defaultRule != nil {
		return expand(defaultRule.RemotePath, item)
	}
	return expand("{tag}/{category}/{torrentName}", item)
}

func matches(item Item, rule *Rule) bool {
	if rule.Category != "" && strings.EqualFold(rule.Category, category(item)) {
		return true
	}
	if len(rule.Tags) > 0 && tagsOverlap(rule.Tags, tagSet(item)) {
		return true
	}
	if rule.NameRegexp != nil && rule.NameRegexp.MatchString(item.Name) {
		return true
	}
	return false
}

func tagsOverlap(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

func expand(pattern string, item Item) string {
	replacer := strings.NewReplacer(
		"{torrentName}", item.Name,
		"{category}", category(item),
		"{tag}", primaryTag(item),
		"{year}", year(item.Name),
	)
	return normalize(replacer.Replace(pattern))
}

func normalize(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.Trim(path, "/")
}

func category(item Item) string {
	if trimmed := strings.TrimSpace(item.Category); trimmed != "" {
		return trimmed
	}
	return uncategorized
}

// tagSet normalizes the comma-separated tag string to a lowercase list,
// preserving declaration order and dropping empty entries.
func tagSet(item Item) []string {
	parts := strings.Split(item.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func primaryTag(item Item) string {
	if tags := tagSet(item); len(tags) > 0 {
		return tags[0]
	}
	return untagged
}

func year(name string) string {
	if m := yearPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return unknownYear
}
