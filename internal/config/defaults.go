package config

import (
	"time"

	"github.com/spf13/viper"
)

// Delivery defaults.
const (
	DefaultMaxRetries   = 5
	DefaultRetryDelay   = 800 * time.Millisecond
	DefaultTimeout      = 10 * time.Second
	DefaultDrainTimeout = 15 * time.Second
)

// SetDefaults 设置所有配置项的默认值
func SetDefaults() {
	// Discord 会话
	viper.SetDefault("discord.user_token", "")
	viper.SetDefault("discord.bot", false)
	viper.SetDefault("default_webhook", "")

	// Delivery 配置
	viper.SetDefault("delivery.max_retries", DefaultMaxRetries)
	viper.SetDefault("delivery.retry_delay", DefaultRetryDelay)
	viper.SetDefault("delivery.timeout", DefaultTimeout)
	viper.SetDefault("delivery.drain_timeout", DefaultDrainTimeout)

	// Log 配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.file", "")

	// Status API
	viper.SetDefault("status.enabled", false)
	viper.SetDefault("status.host", "127.0.0.1")
	viper.SetDefault("status.port", 8787)

	// 定时报告
	viper.SetDefault("report.schedule", "@every 1h")

	// 配置文件监听
	viper.SetDefault("watch_config.enabled", true)
	viper.SetDefault("watch_config.exit_on_change", false)
}
