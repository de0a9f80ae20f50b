package rules

import (
	"regexp"
	"strings"
)

// rolePlaceholder detects a role mention such as <@&123456>.
var rolePlaceholder = regexp.MustCompile(`<@&\d+>`)

// HasRoleReference reports whether text contains a role mention.
func HasRoleReference(text string) bool {
	return rolePlaceholder.MatchString(text)
}

// RewriteRoles replaces every mention of a known role with its display name,
// as **@Name** when emphasize is set and @Name otherwise. Mentions of unknown
// roles are left as they are.
func (r *ChannelRule) RewriteRoles(text string, emphasize bool) string {
	if r == nil || !HasRoleReference(text) {
		return text
	}
	replacer := r.plain
	if emphasize {
		replacer = r.emphasized
	}
	if replacer == nil {
		return text
	}
	return replacer.Replace(text)
}

// Rewrite is RewriteRoles as a function.
func Rewrite(text string, rule *ChannelRule, emphasize bool) string {
	return rule.RewriteRoles(text, emphasize)
}

// buildReplacers prepares single-pass replacers for both styles. A display
// name that itself looks like a mention is not expanded again.
func buildReplacers(roleIDs []string, roles map[string]string) (emphasized, plain *strings.Replacer) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	bold := make([]string, 0, 2*len(roleIDs))
	flat := make([]string, 0, 2*len(roleIDs))
	for _, id := range roleIDs {
		placeholder := "<@&" + id + ">"
		bold = append(bold, placeholder, "**@"+roles[id]+"**")
		flat = append(flat, placeholder, "@"+roles[id])
	}
	return strings.NewReplacer(bold...), strings.NewReplacer(flat...)
}
