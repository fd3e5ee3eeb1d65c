package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	DatabasePath string `mapstructure:"database_path"`
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	ICEServers []ICEServer     `mapstructure:"ice_servers"`
	AI         AIConfig        `mapstructure:"ai"`
	Assistant  AssistantConfig `mapstructure:"assistant"`
}

// ICEServer is handed to browsers for peer connection setup.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type AIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	PrimaryModel    string        `mapstructure:"primary_model"`
	FallbackModel   string        `mapstructure:"fallback_model"`
	PrimaryAttempts int           `mapstructure:"primary_attempts"`
	BackoffBase     time.Duration `mapstructure:"backoff_base"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type AssistantConfig struct {
	WakePhrases   []string      `mapstructure:"wake_phrases"`
	ContextChars  int           `mapstructure:"context_chars"`
	QueueSize     int           `mapstructure:"queue_size"`
	TriggerLimit  int           `mapstructure:"trigger_limit"`
	TriggerWindow time.Duration `mapstructure:"trigger_window"`
}

// Load reads the yaml config. An empty file selects config/config.<CONFIG_ENV>.yaml.
// Every key can be overridden with a CONNECTIFY_ prefixed environment variable,
// dots replaced by underscores (CONNECTIFY_AI_API_KEY).
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if file == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		file = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(file)

	v.SetEnvPrefix("CONNECTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", file).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "connectify-dev-secret")
	v.SetDefault("log_level", "info")

	v.SetDefault("database_path", "connectify.db")
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "connectify.events")
	v.SetDefault("otlp_endpoint", "")

	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.primary_model", "gemini-2.5-flash")
	v.SetDefault("ai.fallback_model", "gemini-2.0-flash")
	v.SetDefault("ai.primary_attempts", 2)
	v.SetDefault("ai.backoff_base", "500ms")
	v.SetDefault("ai.timeout", "30s")

	v.SetDefault("assistant.wake_phrases", []string{"hey connectify", "connectify"})
	v.SetDefault("assistant.context_chars", 2000)
	v.SetDefault("assistant.queue_size", 4)
	v.SetDefault("assistant.trigger_limit", 5)
	v.SetDefault("assistant.trigger_window", "30s")
}
