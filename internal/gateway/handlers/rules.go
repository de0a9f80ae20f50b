package handlers

import (
	"net/http"

	"hookwatch/internal/delivery"
	"hookwatch/internal/rules"
)

// RuleView is the public form of a compiled channel rule. Webhook URLs are
// redacted.
type RuleView struct {
	ChannelID  string            `json:"channel_id"`
	Roles      map[string]string `json:"roles"`
	Keywords   []string          `json:"keywords"`
	Authors    []string          `json:"authors"`
	Pattern    string            `json:"pattern"`
	Webhook    string            `json:"webhook,omitempty"`
	PingAuthor bool              `json:"ping_author"`
	Format     string            `json:"message_format"`
}

// RulesResponse lists the rules and the compile warnings.
type RulesResponse struct {
	Rules    []RuleView `json:"rules"`
	Warnings []string   `json:"warnings"`
}

// NewRuleView builds the public view of r.
func NewRuleView(r *rules.ChannelRule) RuleView {
	return RuleView{
		ChannelID:  r.ChannelID(),
		Roles:      r.Roles(),
		Keywords:   r.Keywords(),
		Authors:    r.Authors(),
		Pattern:    r.Pattern(),
		Webhook:    delivery.RedactURL(r.WebhookURL()),
		PingAuthor: r.PingAuthor(),
		Format:     string(r.Format()),
	}
}

// RulesHandler lists the compiled rule table.
func RulesHandler(table *rules.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := RulesResponse{
			Rules:    make([]RuleView, 0, table.Len()),
			Warnings: table.Warnings(),
		}
		if resp.Warnings == nil {
			resp.Warnings = []string{}
		}
		for _, rule := range table.Rules() {
			resp.Rules = append(resp.Rules, NewRuleView(rule))
		}
		SendJSON(w, http.StatusOK, resp)
	}
}

// RuleHandler returns the rule of one channel.
func RuleHandler(table *rules.Table, channelID func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := channelID(r)
		rule, ok := table.Lookup(id)
		if !ok {
			SendError(w, http.StatusNotFound, ErrCodeNotFound, "channel "+id+" is not watched")
			return
		}
		SendJSON(w, http.StatusOK, NewRuleView(rule))
	}
}
