package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// 验证默认值
	if cfg.Delivery.MaxRetries != 5 {
		t.Errorf("delivery.max_retries = %d, want 5", cfg.Delivery.MaxRetries)
	}
	if cfg.Delivery.RetryDelay != 800*time.Millisecond {
		t.Errorf("delivery.retry_delay = %v, want 800ms", cfg.Delivery.RetryDelay)
	}
	if cfg.Delivery.Timeout != 10*time.Second {
		t.Errorf("delivery.timeout = %v, want 10s", cfg.Delivery.Timeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want text", cfg.Log.Format)
	}
	if cfg.Status.Enabled {
		t.Error("status.enabled = true, want false")
	}
	if cfg.Status.Addr() != "127.0.0.1:8787" {
		t.Errorf("status addr = %q, want 127.0.0.1:8787", cfg.Status.Addr())
	}
	if cfg.Report.Schedule != "@every 1h" {
		t.Errorf("report.schedule = %q, want @every 1h", cfg.Report.Schedule)
	}
	if !cfg.WatchConfig.Enabled {
		t.Error("watch_config.enabled = false, want true")
	}
	if len(cfg.Channels) != 0 {
		t.Errorf("channels = %d entries, want 0", len(cfg.Channels))
	}
}

func TestLoad_FromFile(t *testing.T) {
	Reset()
	defer Reset()

	configFile := writeConfig(t, "config.yaml", `
discord:
  user_token: "file-token"
default_webhook: "https://example.com/default"
channels:
  - _comment: "alerts"
    watch_channel_ids: "100"
    roles:
      "111": "Alice"
    keywords: ["urgent", "outage"]
    authors: ["42"]
    ping_author: true
    message_format: short
  - watch_channel_ids: ["200", "201"]
    webhook_url: "https://example.com/other"
    use_roles_as_keywords: true
delivery:
  max_retries: 3
  retry_delay: 50ms
log:
  level: debug
  format: json
`)

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Discord.UserToken != "file-token" {
		t.Errorf("discord.user_token = %q, want file-token", cfg.Discord.UserToken)
	}
	if cfg.DefaultWebhook != "https://example.com/default" {
		t.Errorf("default_webhook = %q", cfg.DefaultWebhook)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("channels = %d entries, want 2", len(cfg.Channels))
	}

	first := cfg.Channels[0]
	if len(first.WatchChannelIDs) != 1 || first.WatchChannelIDs[0] != "100" {
		t.Errorf("single id not normalized: %v", first.WatchChannelIDs)
	}
	if first.Roles["111"] != "Alice" {
		t.Errorf("roles = %v, want 111 -> Alice", first.Roles)
	}
	if len(first.Keywords) != 2 || first.Keywords[1] != "outage" {
		t.Errorf("keywords = %v", first.Keywords)
	}
	if !first.PingAuthor || first.MessageFormat != "short" {
		t.Errorf("ping_author/message_format = %v/%q", first.PingAuthor, first.MessageFormat)
	}
	if len(first.Authors) != 1 || first.Authors[0] != "42" {
		t.Errorf("authors = %v, want [42]", first.Authors)
	}
	if first.Comment != "alerts" {
		t.Errorf("_comment = %q, want alerts", first.Comment)
	}

	second := cfg.Channels[1]
	if len(second.WatchChannelIDs) != 2 || second.WatchChannelIDs[1] != "201" {
		t.Errorf("id list = %v", second.WatchChannelIDs)
	}
	if !second.UseRolesAsKeywords {
		t.Error("use_roles_as_keywords = false, want true")
	}

	if cfg.Delivery.MaxRetries != 3 {
		t.Errorf("delivery.max_retries = %d, want 3", cfg.Delivery.MaxRetries)
	}
	if cfg.Delivery.RetryDelay != 50*time.Millisecond {
		t.Errorf("delivery.retry_delay = %v, want 50ms", cfg.Delivery.RetryDelay)
	}
	// 未设置的值保留默认
	if cfg.Delivery.Timeout != 10*time.Second {
		t.Errorf("delivery.timeout = %v, want default 10s", cfg.Delivery.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if Path() != configFile {
		t.Errorf("Path() = %q, want %q", Path(), configFile)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	Reset()
	defer Reset()

	configFile := writeConfig(t, "config.json", `{
  "default_webhook": "https://example.com/hook",
  "channels": [
    {"watch_channel_ids": ["1", "2"], "keywords": ["ping"]}
  ]
}`)

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Channels) != 1 || len(cfg.Channels[0].WatchChannelIDs) != 2 {
		t.Fatalf("channels = %+v", cfg.Channels)
	}
}

func TestLoad_NonStringChannelID(t *testing.T) {
	Reset()
	defer Reset()

	configFile := writeConfig(t, "config.yaml", `
channels:
  - watch_channel_ids: [123456789]
`)

	if _, err := Load(configFile); err == nil {
		t.Fatal("expected error for numeric channel id")
	}
}

func TestLoad_NonStringAuthorID(t *testing.T) {
	Reset()
	defer Reset()

	configFile := writeConfig(t, "config.json", `{
  "channels": [
    {"watch_channel_ids": "1", "authors": [123456789012345678]}
  ]
}`)

	_, err := Load(configFile)
	if err == nil {
		t.Fatal("expected error for numeric author id")
	}
	if !strings.Contains(err.Error(), "author id must be a string") {
		t.Errorf("error = %v, want author id message", err)
	}
}

func TestLoad_AuthorIDs(t *testing.T) {
	Reset()
	defer Reset()

	configFile := writeConfig(t, "config.json", `{
  "channels": [
    {"watch_channel_ids": "1", "authors": ["123456789012345678"]},
    {"watch_channel_ids": "2", "authors": "42"}
  ]
}`)

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Channels[0].Authors; len(got) != 1 || got[0] != "123456789012345678" {
		t.Errorf("authors = %v, want [123456789012345678]", got)
	}
	if got := cfg.Channels[1].Authors; len(got) != 1 || got[0] != "42" {
		t.Errorf("single author not normalized: %v", got)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	Reset()
	defer Reset()

	configFile := writeConfig(t, "config.yaml", "channels: [unclosed")

	if _, err := Load(configFile); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.Delivery.MaxRetries != 5 {
		t.Errorf("delivery.max_retries = %d, want 5", cfg.Delivery.MaxRetries)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	Reset()
	defer Reset()

	t.Setenv("WATCHER_USER_TOKEN", "env-token")
	t.Setenv("DEFAULT_WEBHOOK", "https://example.com/env")
	t.Setenv("HOOKWATCH_LOG_LEVEL", "warn")

	configFile := writeConfig(t, "config.yaml", `
discord:
  user_token: "file-token"
default_webhook: "https://example.com/file"
`)

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Discord.UserToken != "env-token" {
		t.Errorf("discord.user_token = %q, want env-token", cfg.Discord.UserToken)
	}
	if cfg.DefaultWebhook != "https://example.com/env" {
		t.Errorf("default_webhook = %q, want env value", cfg.DefaultWebhook)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	entry := ChannelConfig{WatchChannelIDs: ChannelIDs{"1"}}

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing token",
			cfg:     Config{DefaultWebhook: "https://x", Channels: []ChannelConfig{entry}},
			wantErr: ErrMissingToken,
		},
		{
			name:    "no channels",
			cfg:     Config{Discord: DiscordConfig{UserToken: "t"}},
			wantErr: ErrNoChannels,
		},
		{
			name:    "no endpoint",
			cfg:     Config{Discord: DiscordConfig{UserToken: "t"}, Channels: []ChannelConfig{entry}},
			wantErr: ErrMissingEndpoint,
		},
		{
			name: "channel override without default",
			cfg: Config{
				Discord:  DiscordConfig{UserToken: "t"},
				Channels: []ChannelConfig{{WatchChannelIDs: ChannelIDs{"1"}, WebhookURL: "https://x"}},
			},
		},
		{
			name: "default webhook",
			cfg:  Config{Discord: DiscordConfig{UserToken: "t"}, DefaultWebhook: "https://x", Channels: []ChannelConfig{entry}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	Reset()
	defer Reset()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		DefaultWebhook: "https://example.com/hook",
		Channels: []ChannelConfig{
			{WatchChannelIDs: ChannelIDs{"1", "2"}, Keywords: []string{"alert"}},
		},
	}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Channels) != 1 || len(loaded.Channels[0].WatchChannelIDs) != 2 {
		t.Errorf("saved channels not loaded back: %+v", loaded.Channels)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log:\n  level: info\n")

	changed := make(chan string, 1)
	w, err := NewWatcher(path, zerolog.Nop(), func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case p := <-changed:
		if p != filepath.Clean(path) {
			t.Errorf("changed path = %q, want %q", p, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log:\n  level: info\n")

	changed := make(chan string, 1)
	w, err := NewWatcher(path, zerolog.Nop(), func(p string) { changed <- p })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = w.Stop() }()

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(other, []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case p := <-changed:
		t.Fatalf("unexpected notification for %q", p)
	case <-time.After(500 * time.Millisecond):
	}
}
