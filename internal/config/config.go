package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/alert"
	"github.com/newthinker/insight/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Collector  CollectorConfig           `mapstructure:"collector"`
	News       NewsConfig                `mapstructure:"news"`
	Cache      CacheConfig               `mapstructure:"cache"`
	Prediction PredictionConfig          `mapstructure:"prediction"`
	Models     ModelsConfig              `mapstructure:"models"`
	Sentiment  SentimentConfig           `mapstructure:"sentiment"`
	LLM        LLMConfig                 `mapstructure:"llm"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Refresh    RefreshConfig             `mapstructure:"refresh"`
	Alerts     AlertsConfig              `mapstructure:"alerts"`
	Notifiers  map[string]NotifierConfig `mapstructure:"notifiers"`
	Watchlist  []WatchlistItem           `mapstructure:"watchlist"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Mode   string `mapstructure:"mode"`
	APIKey string `mapstructure:"api_key"`
}

// CollectorConfig selects and tunes the price provider.
type CollectorConfig struct {
	Provider      string        `mapstructure:"provider"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DefaultSuffix string        `mapstructure:"default_suffix"` // appended to bare tickers, e.g. "NS"
	Period        string        `mapstructure:"period"`         // history range fed to the engines
}

// NewsConfig selects and tunes the headline provider.
type NewsConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	QuerySuffix string        `mapstructure:"query_suffix"`
	Language    string        `mapstructure:"language"`
	Country     string        `mapstructure:"country"`
	Window      time.Duration `mapstructure:"window"`
	Limit       int           `mapstructure:"limit"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the artifact cache backend and per-artifact TTLs.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory", "redis" or "none"
	MaxEntries    int           `mapstructure:"max_entries"`
	Redis         RedisConfig   `mapstructure:"redis"`
	HistoryTTL    time.Duration `mapstructure:"history_ttl"`
	QuoteTTL      time.Duration `mapstructure:"quote_ttl"`
	SentimentTTL  time.Duration `mapstructure:"sentiment_ttl"`
	PredictionTTL time.Duration `mapstructure:"prediction_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// PredictionConfig tunes the forecast engine. Zero values fall back to the
// engine defaults.
type PredictionConfig struct {
	Lookback         int           `mapstructure:"lookback"`
	MaxHorizon       int           `mapstructure:"max_horizon"`
	TrendWindow      int           `mapstructure:"trend_window"`
	HistoryWindow    int           `mapstructure:"history_window"`
	ModelBand        float64       `mapstructure:"model_band"`
	FallbackBand     float64       `mapstructure:"fallback_band"`
	InferenceTimeout time.Duration `mapstructure:"inference_timeout"`
}

// ModelsConfig locates trained sequence models.
type ModelsConfig struct {
	Storage StorageConfig     `mapstructure:"storage"`
	Generic string            `mapstructure:"generic"`
	Remote  RemoteModelConfig `mapstructure:"remote"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs", "s3" or "none"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// RemoteModelConfig points at a TensorFlow Serving compatible endpoint,
// consulted after the artifact store.
type RemoteModelConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Name     string        `mapstructure:"name"`
	Lookback int           `mapstructure:"lookback"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SentimentConfig tunes scoring and aggregation.
type SentimentConfig struct {
	Scorer            string  `mapstructure:"scorer"` // "vader" or "llm"
	Decay             float64 `mapstructure:"decay"`
	PositiveThreshold float64 `mapstructure:"positive_threshold"`
	NegativeThreshold float64 `mapstructure:"negative_threshold"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"` // per Chat call; 0 disables
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RefreshConfig controls the background watchlist refresh.
type RefreshConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Days     int           `mapstructure:"days"`
}

// AlertsConfig holds watchlist alert rules, evaluated after each refresh.
type AlertsConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
	HistorySize int           `mapstructure:"history_size"`
	Rules       []alert.Rule  `mapstructure:"rules"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Email notifier fields
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

type WatchlistItem struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("INSIGHT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Collector: CollectorConfig{
			Provider:      "yahoo",
			Timeout:       10 * time.Second,
			DefaultSuffix: "NS",
			Period:        "1y",
		},
		News: NewsConfig{
			Provider:    "googlenews",
			QuerySuffix: "stock India",
			Language:    "en-IN",
			Country:     "IN",
			Window:      48 * time.Hour,
			Limit:       15,
			Timeout:     10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			MaxEntries:    1024,
			HistoryTTL:    time.Hour,
			QuoteTTL:      5 * time.Minute,
			SentimentTTL:  30 * time.Minute,
			PredictionTTL: time.Hour,
		},
		Prediction: PredictionConfig{
			Lookback:         60,
			MaxHorizon:       5,
			TrendWindow:      30,
			HistoryWindow:    30,
			ModelBand:        0.05,
			FallbackBand:     0.07,
			InferenceTimeout: 10 * time.Second,
		},
		Models: ModelsConfig{
			Storage: StorageConfig{
				Type: "localfs",
				Path: "models",
			},
			Generic: "general_model.json",
		},
		Sentiment: SentimentConfig{
			Scorer:            "vader",
			Decay:             0.1,
			PositiveThreshold: 0.05,
			NegativeThreshold: -0.05,
		},
		LLM: LLMConfig{
			Timeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Refresh: RefreshConfig{
			Enabled:  false,
			Interval: 15 * time.Minute,
			Days:     5,
		},
		Alerts: AlertsConfig{
			Cooldown:    time.Hour,
			HistorySize: 500,
		},
	}
}

// Validate checks the configuration for errors. Zero values are accepted
// wherever the consuming component has its own default.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Cache.Backend {
	case "", "memory", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("cache.redis.addr required when backend is redis"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}

	// Prediction validation
	p := c.Prediction
	if p.Lookback < 0 || p.MaxHorizon < 0 || p.TrendWindow < 0 || p.HistoryWindow < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("prediction windows cannot be negative"))
	}
	if p.TrendWindow == 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("prediction.trend_window must be at least 2"))
	}
	for name, band := range map[string]float64{"model_band": p.ModelBand, "fallback_band": p.FallbackBand} {
		if band < 0 || band >= 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("prediction.%s must be in [0, 1), got %f", name, band))
		}
	}

	switch c.Models.Storage.Type {
	case "", "none", "localfs":
	case "s3":
		if c.Models.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("models.storage.s3.bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown model storage type %q", c.Models.Storage.Type))
	}

	// Sentiment validation
	s := c.Sentiment
	if s.Decay < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sentiment.decay cannot be negative, got %f", s.Decay))
	}
	if s.PositiveThreshold < 0 || s.NegativeThreshold > 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sentiment thresholds must straddle zero, got %f/%f", s.NegativeThreshold, s.PositiveThreshold))
	}
	switch s.Scorer {
	case "", "vader":
	case "llm":
		if c.LLM.Provider == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("llm.provider required when sentiment scorer is llm"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown sentiment scorer %q", s.Scorer))
	}

	if c.LLM.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("llm.timeout must not be negative"))
	}
	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	if c.Refresh.Enabled {
		if c.Refresh.Interval <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("refresh.interval must be positive when refresh is enabled"))
		}
		if len(c.Watchlist) == 0 {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("refresh enabled but watchlist is empty"))
		}
	}
	if c.Alerts.Enabled {
		if !c.Refresh.Enabled {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("alerts require refresh to be enabled"))
		}
		if c.Alerts.Cooldown < 0 || c.Alerts.HistorySize < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("alerts.cooldown and alerts.history_size cannot be negative"))
		}
		names := make(map[string]bool, len(c.Alerts.Rules))
		for i := range c.Alerts.Rules {
			rule := &c.Alerts.Rules[i]
			if err := rule.Validate(); err != nil {
				return err
			}
			if names[rule.Name] {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("duplicate alert rule %q", rule.Name))
			}
			names[rule.Name] = true
		}
	}

	for name, n := range c.Notifiers {
		if !n.Enabled {
			continue
		}
		switch name {
		case "telegram":
			if n.BotToken == "" || n.ChatID == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("notifiers.telegram requires bot_token and chat_id"))
			}
		case "webhook":
			if n.URL == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("notifiers.webhook requires url"))
			}
		case "email":
			if n.Host == "" || n.From == "" || len(n.To) == 0 {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("notifiers.email requires host, from and to"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown notifier %q", name))
		}
	}

	for i, item := range c.Watchlist {
		if strings.TrimSpace(item.Symbol) == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("watchlist[%d]: symbol is required", i))
		}
	}

	return nil
}
