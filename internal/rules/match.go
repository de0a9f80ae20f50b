package rules

import (
	"hookwatch/pkg/channel"
)

// Surface names the part of a message that produced a hit.
type Surface string

const (
	SurfaceAuthor Surface = "author"
	SurfaceBody   Surface = "content"
	SurfaceEmbed  Surface = "embed"
)

// Hit is one matching surface of a message.
type Hit struct {
	Surface Surface `json:"surface"`
	Embed   int     `json:"embed"` // index of the embed for SurfaceEmbed
	Text    string  `json:"text,omitempty"`
}

// Matches reports whether msg is interesting under rule: the author is listed,
// or the pattern finds something in the body or in any embed text.
func Matches(rule *ChannelRule, msg channel.Message) bool {
	if rule == nil {
		return false
	}
	if rule.HasAuthor(msg.Author.ID) {
		return true
	}
	if rule.MatchString(msg.Content) {
		return true
	}
	for _, embed := range msg.Embeds {
		for _, text := range embed.Texts() {
			if rule.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// Match looks up the rule of the message's channel and evaluates it. Messages
// on channels without a rule never match.
func (t *Table) Match(msg channel.Message) (*ChannelRule, bool) {
	rule, ok := t.Lookup(msg.ChannelID)
	if !ok {
		return nil, false
	}
	return rule, Matches(rule, msg)
}

// Explain lists every surface of msg that matches rule. It is the long form of
// Matches, used for debug traces.
func Explain(rule *ChannelRule, msg channel.Message) []Hit {
	if rule == nil {
		return nil
	}
	var hits []Hit
	if rule.HasAuthor(msg.Author.ID) {
		hits = append(hits, Hit{Surface: SurfaceAuthor, Text: msg.Author.ID})
	}
	if rule.MatchString(msg.Content) {
		hits = append(hits, Hit{Surface: SurfaceBody, Text: msg.Content})
	}
	for i, embed := range msg.Embeds {
		for _, text := range embed.Texts() {
			if rule.MatchString(text) {
				hits = append(hits, Hit{Surface: SurfaceEmbed, Embed: i, Text: text})
			}
		}
	}
	return hits
}
