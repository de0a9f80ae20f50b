// Package payload builds the webhook body relayed for a matched message.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"hookwatch/internal/rules"
	"hookwatch/pkg/channel"
)

// LinkIcon is the anchor text of the link-tiny format.
const LinkIcon = "🔗"

// Payload is the JSON body POSTed to the webhook.
type Payload struct {
	Content string          `json:"content"`
	Embeds  []channel.Embed `json:"embeds"`
}

// JSON encodes the payload. Mentions such as <@42> are kept readable rather
// than HTML-escaped.
func (p Payload) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// String returns the JSON form, used in log records.
func (p Payload) String() string {
	data, err := p.JSON()
	if err != nil {
		return fmt.Sprintf("<payload: %v>", err)
	}
	return string(data)
}

// Permalink returns the jump URL of a message. Direct messages have no guild
// and use the @me segment.
func Permalink(msg channel.Message) string {
	guild := msg.GuildID
	if guild == "" {
		guild = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guild, msg.ChannelID, msg.ID)
}

// AuthorLabel is a live mention when the rule pings authors, otherwise the
// bold display name.
func AuthorLabel(msg channel.Message, rule *rules.ChannelRule) string {
	if rule != nil && rule.PingAuthor() {
		return "<@" + msg.Author.ID + ">"
	}
	return "**" + msg.Author.DisplayName() + "**"
}

// Frame returns the text placed before and after the message body.
func Frame(format rules.MessageFormat, authorLabel, permalink string) (header, footer string) {
	switch format {
	case rules.FormatFull:
		return authorLabel + " in " + permalink + "\n", ""
	case rules.FormatShort:
		return "", " - [" + authorLabel + "](" + permalink + ")"
	case rules.FormatLink:
		return "", " " + permalink
	case rules.FormatLinkTiny:
		return "", " [" + LinkIcon + "](" + permalink + ")"
	default:
		return "", ""
	}
}

// Compose builds the payload for msg under rule. The message is not modified:
// embeds are copied before their text is rewritten.
func Compose(msg channel.Message, rule *rules.ChannelRule) Payload {
	format := rules.FormatFull
	if rule != nil {
		format = rule.Format()
	}
	header, footer := Frame(format, AuthorLabel(msg, rule), Permalink(msg))

	embeds := make([]channel.Embed, 0, len(msg.Embeds)+len(msg.Attachments))
	for _, e := range msg.Embeds {
		embeds = append(embeds, rewriteEmbed(e, rule))
	}
	for _, a := range msg.Attachments {
		embeds = append(embeds, channel.Embed{Image: &channel.EmbedMedia{URL: a.URL}})
	}

	return Payload{
		Content: header + rule.RewriteRoles(msg.Content, true) + footer,
		Embeds:  embeds,
	}
}

// rewriteEmbed resolves role mentions in every text part of a copy of e.
// Bylines (author name, footer) are not emphasized.
func rewriteEmbed(e channel.Embed, rule *rules.ChannelRule) channel.Embed {
	out := e.Clone()
	out.Title = rule.RewriteRoles(out.Title, true)
	out.Description = rule.RewriteRoles(out.Description, true)
	if out.Author != nil {
		out.Author.Name = rule.RewriteRoles(out.Author.Name, false)
	}
	if out.Footer != nil {
		out.Footer.Text = rule.RewriteRoles(out.Footer.Text, false)
	}
	for i := range out.Fields {
		out.Fields[i].Name = rule.RewriteRoles(out.Fields[i].Name, true)
		out.Fields[i].Value = rule.RewriteRoles(out.Fields[i].Value, true)
	}
	return out
}
