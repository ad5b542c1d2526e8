package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                  = "CONTROLROOM"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultDatabaseURL         = "controlroom.db"
	defaultMaxOpenConns        = 10
	defaultConnMaxIdleSeconds  = 30
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	defaultOpenAIModel         = "gpt-4.1-mini"
	defaultGeminiBaseURL       = "https://generativelanguage.googleapis.com"
	defaultAssistantDemoDelay  = 800
	defaultTokenTTLMinutes     = 43200
	defaultTimezone            = "UTC"
	defaultSessionCookieName   = "controlroom_session"
	defaultSettingsCookieName  = "vv_dashboard_settings"
	defaultAllowedOriginsValue = ""
)

// AppConfig captures runtime configuration for the control room server.
type AppConfig struct {
	HTTPAddress        string
	AllowedOrigins     []string
	DatabaseURL        string
	MaxOpenConns       int
	ConnMaxIdleTime    time.Duration
	LogLevel           string
	LogFormat          string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	GeminiBaseURL      string
	AssistantDemoDelay time.Duration
	AuthSigningSecret  string
	AuthTokenTTL       time.Duration
	SessionCookieName  string
	SettingsCookieName string
	Location           *time.Location
}

// AuthEnabled reports whether operator tokens are required.
func (c AppConfig) AuthEnabled() bool {
	return strings.TrimSpace(c.AuthSigningSecret) != ""
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	// Conventional unprefixed names are honoured alongside the CONTROLROOM_ ones.
	_ = configViper.BindEnv("database.url", envPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = configViper.BindEnv("openai.api_key", envPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", defaultAllowedOriginsValue)
	configViper.SetDefault("database.url", defaultDatabaseURL)
	configViper.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	configViper.SetDefault("database.conn_max_idle_seconds", defaultConnMaxIdleSeconds)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("openai.model", defaultOpenAIModel)
	configViper.SetDefault("gemini.base_url", defaultGeminiBaseURL)
	configViper.SetDefault("assistant.demo_delay_ms", defaultAssistantDemoDelay)
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("auth.cookie_name", defaultSessionCookieName)
	configViper.SetDefault("settings.cookie_name", defaultSettingsCookieName)
	configViper.SetDefault("timezone", defaultTimezone)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		AllowedOrigins:     splitList(configViper.GetString("http.allowed_origins")),
		DatabaseURL:        strings.TrimSpace(configViper.GetString("database.url")),
		MaxOpenConns:       configViper.GetInt("database.max_open_conns"),
		ConnMaxIdleTime:    time.Duration(configViper.GetInt("database.conn_max_idle_seconds")) * time.Second,
		LogLevel:           strings.ToLower(strings.TrimSpace(configViper.GetString("log.level"))),
		LogFormat:          strings.ToLower(strings.TrimSpace(configViper.GetString("log.format"))),
		OpenAIAPIKey:       strings.TrimSpace(configViper.GetString("openai.api_key")),
		OpenAIModel:        strings.TrimSpace(configViper.GetString("openai.model")),
		OpenAIBaseURL:      strings.TrimSpace(configViper.GetString("openai.base_url")),
		GeminiBaseURL:      strings.TrimSpace(configViper.GetString("gemini.base_url")),
		AssistantDemoDelay: time.Duration(configViper.GetInt("assistant.demo_delay_ms")) * time.Millisecond,
		AuthSigningSecret:  configViper.GetString("auth.signing_secret"),
		AuthTokenTTL:       time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
		SessionCookieName:  configViper.GetString("auth.cookie_name"),
		SettingsCookieName: configViper.GetString("settings.cookie_name"),
	}

	location, err := time.LoadLocation(strings.TrimSpace(configViper.GetString("timezone")))
	if err != nil {
		return AppConfig{}, fmt.Errorf("timezone: %w", err)
	}
	cfg.Location = location

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("database.conn_max_idle_seconds must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is not supported", c.LogFormat)
	}
	if c.OpenAIModel == "" {
		return fmt.Errorf("openai.model is required")
	}
	if c.AssistantDemoDelay < 0 {
		return fmt.Errorf("assistant.demo_delay_ms must not be negative")
	}
	if c.AuthEnabled() {
		if c.AuthTokenTTL <= 0 {
			return fmt.Errorf("auth.token_ttl_minutes must be positive")
		}
		if strings.TrimSpace(c.SessionCookieName) == "" {
			return fmt.Errorf("auth.cookie_name is required")
		}
	}
	if strings.TrimSpace(c.SettingsCookieName) == "" {
		return fmt.Errorf("settings.cookie_name is required")
	}
	return nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
