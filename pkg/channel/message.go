package channel

import "time"

// Message 入站消息
type Message struct {
	ID          string       `json:"id"`
	GuildID     string       `json:"guildId,omitempty"`
	ChannelID   string       `json:"channelId"`
	Author      Author       `json:"author"`
	Content     string       `json:"content"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Author 消息作者
type Author struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"globalName,omitempty"`
	Bot        bool   `json:"bot,omitempty"`
}

// DisplayName prefers the global display name and falls back to the username.
func (a Author) DisplayName() string {
	if a.GlobalName != "" {
		return a.GlobalName
	}
	return a.Username
}

// Attachment 附件
type Attachment struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Embed is a rich content block. The JSON shape follows the Discord webhook
// embed object so the same type is used inbound and outbound.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Image       *EmbedMedia  `json:"image,omitempty"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty"`
}

// EmbedAuthor 嵌入块署名
type EmbedAuthor struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedFooter 嵌入块页脚
type EmbedFooter struct {
	Text    string `json:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedField 嵌入块字段
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedMedia 图片或缩略图
type EmbedMedia struct {
	URL string `json:"url"`
}

// Texts returns the non-empty text surfaces of the embed in evaluation order:
// title, description, author name, footer text, then each field's value and
// name.
func (e Embed) Texts() []string {
	texts := make([]string, 0, 4+2*len(e.Fields))
	add := func(s string) {
		if s != "" {
			texts = append(texts, s)
		}
	}
	add(e.Title)
	add(e.Description)
	if e.Author != nil {
		add(e.Author.Name)
	}
	if e.Footer != nil {
		add(e.Footer.Text)
	}
	for _, f := range e.Fields {
		add(f.Value)
		add(f.Name)
	}
	return texts
}

// Clone returns a deep copy of the embed.
func (e Embed) Clone() Embed {
	out := e
	if e.Author != nil {
		a := *e.Author
		out.Author = &a
	}
	if e.Footer != nil {
		f := *e.Footer
		out.Footer = &f
	}
	if e.Fields != nil {
		out.Fields = make([]EmbedField, len(e.Fields))
		copy(out.Fields, e.Fields)
	}
	if e.Image != nil {
		m := *e.Image
		out.Image = &m
	}
	if e.Thumbnail != nil {
		m := *e.Thumbnail
		out.Thumbnail = &m
	}
	return out
}
