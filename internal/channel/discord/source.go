// Package discord implements the Discord event source on top of discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"hookwatch/pkg/channel"
)

// ErrEmptyToken is returned when no token is configured.
var ErrEmptyToken = errors.New("discord: empty token")

// Intents requested by the session: guild and direct messages with content.
const Intents = discordgo.IntentGuildMessages |
	discordgo.IntentDirectMessages |
	discordgo.IntentMessageContent

// Config Discord 会话配置
type Config struct {
	Token string
	Bot   bool // 以机器人身份登录，token 需加 "Bot " 前缀
}

// Source Discord 事件源
type Source struct {
	session *discordgo.Session
	logger  zerolog.Logger

	mu        sync.RWMutex
	ctx       context.Context
	onMessage channel.MessageHandler
	onReady   channel.ReadyHandler
	removers  []func()
	started   bool
}

// AuthToken returns the Authorization value for token.
func AuthToken(token string, bot bool) string {
	token = strings.TrimSpace(token)
	if bot && !strings.HasPrefix(token, "Bot ") {
		return "Bot " + token
	}
	return token
}

// New creates a Discord source. The session dispatches events one at a time
// on its read loop so handlers never run concurrently.
func New(cfg Config, logger zerolog.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrEmptyToken
	}

	session, err := discordgo.New(AuthToken(cfg.Token, cfg.Bot))
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.SyncEvents = true
	session.ShouldReconnectOnError = true
	session.Identify.Intents = Intents

	return &Source{
		session: session,
		logger:  logger.With().Str("component", "discord").Logger(),
		ctx:     context.Background(),
	}, nil
}

// ID 返回事件源标识
func (s *Source) ID() channel.SourceType {
	return channel.SourceTypeDiscord
}

// OnMessage 注册消息回调
func (s *Source) OnMessage(handler channel.MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = handler
}

// OnReady 注册就绪回调
func (s *Source) OnReady(handler channel.ReadyHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReady = handler
}

// Start opens the gateway connection.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.ctx = ctx
	s.removers = append(s.removers,
		s.session.AddHandler(s.handleReady),
		s.session.AddHandler(s.handleMessageCreate),
	)
	s.started = true
	s.mu.Unlock()

	if err := s.session.Open(); err != nil {
		_ = s.Stop(ctx)
		return fmt.Errorf("discord: open session: %w", err)
	}
	s.logger.Debug().Msg("gateway connection opened")
	return nil
}

// Stop closes the gateway connection.
func (s *Source) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
	s.started = false
	s.mu.Unlock()

	if err := s.session.Close(); err != nil {
		return fmt.Errorf("discord: close session: %w", err)
	}
	return nil
}

func (s *Source) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	s.mu.RLock()
	handler, ctx := s.onReady, s.ctx
	s.mu.RUnlock()
	if handler == nil || r == nil {
		return
	}

	ev := channel.ReadyEvent{}
	if r.User != nil {
		ev.Username = r.User.Username
		ev.UserID = r.User.ID
	}
	handler(ctx, ev)
}

func (s *Source) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	s.mu.RLock()
	handler, ctx := s.onMessage, s.ctx
	s.mu.RUnlock()
	if handler == nil || m == nil || m.Message == nil {
		return
	}

	if err := handler(ctx, FromMessage(m.Message)); err != nil {
		s.logger.Error().Err(err).
			Str("channel_id", m.ChannelID).
			Str("message_id", m.ID).
			Msg("message handler failed")
	}
}
