// Package rules compiles per-channel watch configuration into an immutable
// rule table and evaluates inbound messages against it.
package rules

import (
	"regexp"
	"sort"
	"strings"
)

// MessageFormat controls the shape of the relayed text line.
type MessageFormat string

const (
	FormatFull     MessageFormat = "full"
	FormatShort    MessageFormat = "short"
	FormatLink     MessageFormat = "link"
	FormatLinkTiny MessageFormat = "link-tiny"
	FormatNone     MessageFormat = "none"
)

// Known reports whether f is one of the recognized formats.
func (f MessageFormat) Known() bool {
	switch f {
	case FormatFull, FormatShort, FormatLink, FormatLinkTiny, FormatNone:
		return true
	}
	return false
}

// ChannelRule is the compiled configuration of one watched channel. It is
// immutable once compiled, so a table can be shared by any number of
// goroutines.
type ChannelRule struct {
	channelID  string
	roles      map[string]string
	keywords   []string
	authors    map[string]struct{}
	pattern    *regexp.Regexp
	webhookURL string
	pingAuthor bool
	format     MessageFormat

	emphasized *strings.Replacer
	plain      *strings.Replacer
}

// ChannelID returns the channel the rule is registered for.
func (r *ChannelRule) ChannelID() string { return r.channelID }

// WebhookURL returns the endpoint override, empty when the default applies.
func (r *ChannelRule) WebhookURL() string { return r.webhookURL }

// PingAuthor reports whether the author is mentioned live in the payload.
func (r *ChannelRule) PingAuthor() bool { return r.pingAuthor }

// Format returns the message format.
func (r *ChannelRule) Format() MessageFormat { return r.format }

// Pattern returns the source of the compiled match pattern.
func (r *ChannelRule) Pattern() string { return r.pattern.String() }

// Roles returns a copy of the role id to display name mapping.
func (r *ChannelRule) Roles() map[string]string {
	out := make(map[string]string, len(r.roles))
	for k, v := range r.roles {
		out[k] = v
	}
	return out
}

// Keywords returns a copy of the keywords, role names included when the
// entry used roles as keywords.
func (r *ChannelRule) Keywords() []string {
	out := make([]string, len(r.keywords))
	copy(out, r.keywords)
	return out
}

// Authors returns the author ids in sorted order.
func (r *ChannelRule) Authors() []string {
	out := make([]string, 0, len(r.authors))
	for id := range r.authors {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasAuthor reports whether id is one of the always-matching authors.
func (r *ChannelRule) HasAuthor(id string) bool {
	_, ok := r.authors[id]
	return ok
}

// MatchString tests the compiled pattern against text. Empty text never
// matches.
func (r *ChannelRule) MatchString(text string) bool {
	if text == "" {
		return false
	}
	return r.pattern.MatchString(text)
}

// clone returns a copy of r for another channel id. Nothing is shared except
// the compiled regexp and replacers, which are safe for concurrent use and
// never modified.
func (r *ChannelRule) clone(channelID string) *ChannelRule {
	out := *r
	out.channelID = channelID
	out.roles = r.Roles()
	out.keywords = r.Keywords()
	out.authors = make(map[string]struct{}, len(r.authors))
	for id := range r.authors {
		out.authors[id] = struct{}{}
	}
	return &out
}

// Table maps channel ids to compiled rules. It is read-only after Compile.
type Table struct {
	rules    map[string]*ChannelRule
	warnings []string
}

// Lookup returns the rule for a channel.
func (t *Table) Lookup(channelID string) (*ChannelRule, bool) {
	if t == nil {
		return nil, false
	}
	r, ok := t.rules[channelID]
	return r, ok
}

// Len returns the number of watched channels.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// ChannelIDs returns the watched channel ids in sorted order.
func (t *Table) ChannelIDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.rules))
	for id := range t.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rules returns the rules ordered by channel id.
func (t *Table) Rules() []*ChannelRule {
	ids := t.ChannelIDs()
	out := make([]*ChannelRule, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rules[id])
	}
	return out
}
