package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config 是应用配置的根结构体
type Config struct {
	Discord        DiscordConfig     `mapstructure:"discord" yaml:"discord"`
	DefaultWebhook string            `mapstructure:"default_webhook" yaml:"default_webhook"`
	Channels       []ChannelConfig   `mapstructure:"channels" yaml:"channels"`
	Delivery       DeliveryConfig    `mapstructure:"delivery" yaml:"delivery"`
	Log            LogConfig         `mapstructure:"log" yaml:"log"`
	Status         StatusConfig      `mapstructure:"status" yaml:"status"`
	Report         ReportConfig      `mapstructure:"report" yaml:"report"`
	WatchConfig    WatchConfigConfig `mapstructure:"watch_config" yaml:"watch_config"`
}

// DiscordConfig 会话配置
type DiscordConfig struct {
	UserToken string `mapstructure:"user_token" yaml:"user_token"`
	Bot       bool   `mapstructure:"bot" yaml:"bot"` // token 属于机器人账号时加 "Bot " 前缀
}

// ChannelConfig is one raw watch entry. A single entry may cover several
// channels; it is compiled into one rule per channel id.
type ChannelConfig struct {
	Comment            string            `mapstructure:"_comment" yaml:"_comment,omitempty"`
	WatchChannelIDs    ChannelIDs        `mapstructure:"watch_channel_ids" yaml:"watch_channel_ids"`
	Roles              map[string]string `mapstructure:"roles" yaml:"roles,omitempty"`
	Keywords           []string          `mapstructure:"keywords" yaml:"keywords,omitempty"`
	LiteralKeywords    bool              `mapstructure:"literal_keywords" yaml:"literal_keywords,omitempty"`
	Authors            AuthorIDs         `mapstructure:"authors" yaml:"authors,omitempty"`
	WebhookURL         string            `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
	PingAuthor         bool              `mapstructure:"ping_author" yaml:"ping_author,omitempty"`
	MessageFormat      string            `mapstructure:"message_format" yaml:"message_format,omitempty"`
	UseRolesAsKeywords bool              `mapstructure:"use_roles_as_keywords" yaml:"use_roles_as_keywords,omitempty"`
}

// DeliveryConfig webhook 投递配置
type DeliveryConfig struct {
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" yaml:"drain_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// StatusConfig 状态接口配置
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the listen address of the status API.
func (c StatusConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReportConfig 定时统计报告配置
type ReportConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule"` // 空字符串表示关闭
}

// WatchConfigConfig 配置文件变更监听
type WatchConfigConfig struct {
	Enabled      bool `mapstructure:"enabled" yaml:"enabled"`
	ExitOnChange bool `mapstructure:"exit_on_change" yaml:"exit_on_change"`
}

// Sentinel errors returned by Validate.
var (
	ErrMissingToken    = errors.New("config: discord.user_token is not set (WATCHER_USER_TOKEN)")
	ErrNoChannels      = errors.New("config: no channels configured")
	ErrMissingEndpoint = errors.New("config: channel has no webhook_url and default_webhook is not set")
)

// Validate checks the settings the watcher cannot start without. Rule-level
// checks (patterns, ids) belong to the rule compiler.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Discord.UserToken) == "" {
		return ErrMissingToken
	}
	return c.ValidateChannels()
}

// ValidateChannels checks that there is at least one entry and that every
// entry resolves to an endpoint.
func (c *Config) ValidateChannels() error {
	if len(c.Channels) == 0 {
		return ErrNoChannels
	}
	if c.DefaultWebhook != "" {
		return nil
	}
	for i, ch := range c.Channels {
		if ch.WebhookURL == "" {
			return fmt.Errorf("channels[%d] %v: %w", i, []string(ch.WatchChannelIDs), ErrMissingEndpoint)
		}
	}
	return nil
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load 加载配置文件
// 优先级: ENV > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	// 设置默认值
	SetDefaults()

	// 设置环境变量前缀
	viper.SetEnvPrefix("HOOKWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 兼容旧的环境变量名
	if err := viper.BindEnv("discord.user_token", "HOOKWATCH_DISCORD_USER_TOKEN", "WATCHER_USER_TOKEN"); err != nil {
		return nil, err
	}
	if err := viper.BindEnv("default_webhook", "HOOKWATCH_DEFAULT_WEBHOOK", "DEFAULT_WEBHOOK"); err != nil {
		return nil, err
	}

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			// 忽略文件不存在错误
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", expandedPath, err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// decodeHook replaces viper's default hooks, so the duration and slice hooks
// are listed again after the id hooks.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		ChannelIDsHookFunc(),
		AuthorIDsHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// GetConfig 获取当前配置
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Path returns the config file path of the last Load call.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configPath
}

// SaveTo 保存配置到指定路径
func SaveTo(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // 0600: 含 token
}

// Reset 重置配置（主要用于测试）
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}
