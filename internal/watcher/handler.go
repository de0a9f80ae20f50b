// Package watcher connects inbound chat events to the rule table and the
// delivery dispatcher.
package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"hookwatch/internal/delivery"
	"hookwatch/internal/payload"
	"hookwatch/internal/rules"
	"hookwatch/pkg/channel"
)

// Sender hands a composed payload off for delivery.
type Sender interface {
	Endpoint(rule *rules.ChannelRule) string
	Dispatch(req delivery.Request)
}

// Handler 事件处理器
type Handler struct {
	table  *rules.Table
	sender Sender
	logger zerolog.Logger
}

// NewHandler creates a Handler over an immutable rule table.
func NewHandler(table *rules.Table, sender Sender, logger zerolog.Logger) *Handler {
	return &Handler{
		table:  table,
		sender: sender,
		logger: logger.With().Str("component", "watcher").Logger(),
	}
}

// HandleReady logs the identity of the session and the channels it watches.
func (h *Handler) HandleReady(_ context.Context, ev channel.ReadyEvent) {
	ids := h.table.ChannelIDs()
	h.logger.Info().
		Str("event", "ready").
		Str("user_id", ev.UserID).
		Int("channels", len(ids)).
		Msgf("%s is watching channels [%s]", ev.Username, strings.Join(ids, ", "))
}

// HandleMessage relays msg when a rule matches it. It never returns an error
// for a message that simply does not match; a panic while matching or
// composing is recovered and reported as an error.
func (h *Handler) HandleMessage(_ context.Context, msg channel.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Interface("panic", r).
				Str("channel_id", msg.ChannelID).
				Str("message_id", msg.ID).
				Msg("message handler panicked")
			err = fmt.Errorf("watcher: panic handling message %s: %v", msg.ID, r)
		}
	}()

	rule, ok := h.table.Match(msg)
	if !ok {
		return nil
	}

	if e := h.logger.Debug(); e.Enabled() {
		e.Str("channel_id", msg.ChannelID).
			Str("message_id", msg.ID).
			Interface("hits", rules.Explain(rule, msg)).
			Msg("message matched")
	}

	h.sender.Dispatch(delivery.Request{
		Endpoint: h.sender.Endpoint(rule),
		Payload:  payload.Compose(msg, rule),
		Message:  msg,
	})
	return nil
}
