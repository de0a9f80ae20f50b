package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"hookwatch/internal/config"
)

// neverMatch is used when an entry has neither roles nor keywords. An empty
// alternation would match every message.
const neverMatch = `[^\x00-\x{10FFFF}]`

// Compile turns the raw channel entries into a rule table. Any malformed entry
// fails the whole compilation; a partially valid table is never returned.
//
// Non-fatal findings (duplicate channel ids, unknown message formats, blank
// keywords) are collected in Table.Warnings.
func Compile(entries []config.ChannelConfig) (*Table, error) {
	t := &Table{rules: make(map[string]*ChannelRule)}
	owner := make(map[string]int)

	for i, entry := range entries {
		ids := []string(entry.WatchChannelIDs)
		if len(ids) == 0 {
			return nil, &CompileError{Index: i, Cause: ErrNoChannelIDs}
		}
		for _, id := range ids {
			if strings.TrimSpace(id) == "" {
				return nil, &CompileError{Index: i, ChannelIDs: ids, Cause: ErrEmptyChannelID}
			}
		}

		base, warnings, err := compileEntry(entry)
		if err != nil {
			return nil, &CompileError{Index: i, ChannelIDs: ids, Cause: err}
		}
		for _, w := range warnings {
			t.warnings = append(t.warnings, fmt.Sprintf("channels[%d] %v: %s", i, ids, w))
		}

		for _, id := range ids {
			if prev, dup := owner[id]; dup {
				t.warnings = append(t.warnings,
					fmt.Sprintf("channel %s is configured by channels[%d] and channels[%d]; channels[%d] wins", id, prev, i, i))
			}
			owner[id] = i
			t.rules[id] = base.clone(id)
		}
	}

	return t, nil
}

// compileEntry builds the rule body shared by every channel of one entry.
func compileEntry(entry config.ChannelConfig) (*ChannelRule, []string, error) {
	var warnings []string

	roles := make(map[string]string, len(entry.Roles))
	for id, name := range entry.Roles {
		if strings.TrimSpace(id) == "" {
			return nil, nil, ErrEmptyRoleID
		}
		roles[id] = name
	}
	roleIDs := sortedKeys(roles)

	keywords := make([]string, 0, len(entry.Keywords)+len(roles))
	alternatives := make([]string, 0, len(roles)+cap(keywords))

	// Role ids are literal snowflakes; a bare id or its mention both match.
	for _, id := range roleIDs {
		alternatives = append(alternatives, regexp.QuoteMeta(id))
	}

	for _, kw := range entry.Keywords {
		if kw == "" {
			warnings = append(warnings, "blank keyword ignored")
			continue
		}
		keywords = append(keywords, kw)
		if entry.LiteralKeywords {
			alternatives = append(alternatives, regexp.QuoteMeta(kw))
			continue
		}
		if _, err := regexp.Compile("(?i)" + kw); err != nil {
			return nil, nil, &KeywordError{Keyword: kw, Err: err}
		}
		alternatives = append(alternatives, "(?:"+kw+")")
	}

	if entry.UseRolesAsKeywords {
		for _, id := range roleIDs {
			name := roles[id]
			if name == "" {
				continue
			}
			keywords = append(keywords, name)
			alternatives = append(alternatives, regexp.QuoteMeta(name))
		}
	}

	source := neverMatch
	if len(alternatives) > 0 {
		source = "(?i)" + strings.Join(alternatives, "|")
	}
	pattern, err := regexp.Compile(source)
	if err != nil {
		// Each fragment compiled on its own, so this is a combination problem.
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidKeyword, err)
	}

	authors := make(map[string]struct{}, len(entry.Authors))
	for _, id := range entry.Authors {
		if id != "" {
			authors[id] = struct{}{}
		}
	}

	format := FormatFull
	if entry.MessageFormat != "" {
		format = MessageFormat(strings.ToLower(strings.TrimSpace(entry.MessageFormat)))
		if !format.Known() {
			warnings = append(warnings, fmt.Sprintf("unknown message_format %q, nothing will be added around the text", entry.MessageFormat))
		}
	}

	rule := &ChannelRule{
		roles:      roles,
		keywords:   keywords,
		authors:    authors,
		pattern:    pattern,
		webhookURL: strings.TrimSpace(entry.WebhookURL),
		pingAuthor: entry.PingAuthor,
		format:     format,
	}
	rule.emphasized, rule.plain = buildReplacers(roleIDs, roles)

	return rule, warnings, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Warnings returns the non-fatal findings of Compile.
func (t *Table) Warnings() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.warnings))
	copy(out, t.warnings)
	return out
}
