package discord

import (
	"github.com/bwmarrin/discordgo"

	"hookwatch/pkg/channel"
)

// FromMessage converts a gateway message into the channel model. Nil parts
// become zero values.
func FromMessage(m *discordgo.Message) channel.Message {
	if m == nil {
		return channel.Message{}
	}

	msg := channel.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		msg.Author = channel.Author{
			ID:         m.Author.ID,
			Username:   m.Author.Username,
			GlobalName: m.Author.GlobalName,
			Bot:        m.Author.Bot,
		}
	}

	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		msg.Embeds = append(msg.Embeds, fromEmbed(e))
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, channel.Attachment{
			ID:          a.ID,
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}
	return msg
}

func fromEmbed(e *discordgo.MessageEmbed) channel.Embed {
	out := channel.Embed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Color,
		Timestamp:   e.Timestamp,
	}
	if e.Author != nil {
		out.Author = &channel.EmbedAuthor{Name: e.Author.Name, URL: e.Author.URL, IconURL: e.Author.IconURL}
	}
	if e.Footer != nil {
		out.Footer = &channel.EmbedFooter{Text: e.Footer.Text, IconURL: e.Footer.IconURL}
	}
	if e.Image != nil {
		out.Image = &channel.EmbedMedia{URL: e.Image.URL}
	}
	if e.Thumbnail != nil {
		out.Thumbnail = &channel.EmbedMedia{URL: e.Thumbnail.URL}
	}
	for _, f := range e.Fields {
		if f == nil {
			continue
		}
		out.Fields = append(out.Fields, channel.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}
