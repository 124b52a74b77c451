package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig
	WhatsApp   WhatsAppConfig
	OpenRouter OpenRouterConfig
	News       NewsConfig
	Escalation EscalationConfig
	Server     ServerConfig
}

type TelegramConfig struct {
	Token       string
	AdminChatID string
}

type WhatsAppConfig struct {
	SessionPath    string
	AllowedNumbers []string
}

type OpenRouterConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	MaxTokens          int
	Temperature        float64
	SummaryTemperature float64
}

type NewsConfig struct {
	APIKey    string
	Country   string
	Language  string
	Category  string
	Recipient string
	StartHour int
	EndHour   int
}

type EscalationConfig struct {
	Delay time.Duration
}

type ServerConfig struct {
	Port int
}

// Load reads configuration from the environment. Missing required keys are a
// fatal configuration error: the caller must not start any listener.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Defaults mirror the deployed service.
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_MODEL", "meta-ai/llama-3.1-8b-instruct")
	v.SetDefault("OPENROUTER_MAX_TOKENS", 200)
	v.SetDefault("OPENROUTER_TEMPERATURE", 0.8)
	v.SetDefault("OPENROUTER_SUMMARY_TEMPERATURE", 0.7)
	v.SetDefault("NEWS_COUNTRY", "ke,us,gb")
	v.SetDefault("NEWS_LANGUAGE", "en")
	v.SetDefault("NEWS_CATEGORY", "top,technology,world,business,sports")
	v.SetDefault("NEWS_START_HOUR", 6)
	v.SetDefault("NEWS_END_HOUR", 22)
	v.SetDefault("HUMAN_DELAY_MS", 300000)
	v.SetDefault("PORT", 3000)
	v.SetDefault("WHATSAPP_SESSION_PATH", "whatsapp.db")

	var missing []string
	for _, key := range []string{"TELEGRAM_TOKEN", "OPENROUTER_API_KEY", "NEWS_API_KEY"} {
		if v.GetString(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var allowed []string
	for _, n := range strings.Split(v.GetString("ALLOWED_NUMBERS"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			allowed = append(allowed, n)
		}
	}

	return &Config{
		Telegram: TelegramConfig{
			Token:       v.GetString("TELEGRAM_TOKEN"),
			AdminChatID: v.GetString("ADMIN_CHAT_ID"),
		},
		WhatsApp: WhatsAppConfig{
			SessionPath:    v.GetString("WHATSAPP_SESSION_PATH"),
			AllowedNumbers: allowed,
		},
		OpenRouter: OpenRouterConfig{
			APIKey:             v.GetString("OPENROUTER_API_KEY"),
			BaseURL:            v.GetString("OPENROUTER_BASE_URL"),
			Model:              v.GetString("OPENROUTER_MODEL"),
			MaxTokens:          v.GetInt("OPENROUTER_MAX_TOKENS"),
			Temperature:        v.GetFloat64("OPENROUTER_TEMPERATURE"),
			SummaryTemperature: v.GetFloat64("OPENROUTER_SUMMARY_TEMPERATURE"),
		},
		News: NewsConfig{
			APIKey:    v.GetString("NEWS_API_KEY"),
			Country:   v.GetString("NEWS_COUNTRY"),
			Language:  v.GetString("NEWS_LANGUAGE"),
			Category:  v.GetString("NEWS_CATEGORY"),
			Recipient: v.GetString("NEWS_RECIPIENT"),
			StartHour: v.GetInt("NEWS_START_HOUR"),
			EndHour:   v.GetInt("NEWS_END_HOUR"),
		},
		Escalation: EscalationConfig{
			Delay: time.Duration(v.GetInt64("HUMAN_DELAY_MS")) * time.Millisecond,
		},
		Server: ServerConfig{
			Port: v.GetInt("PORT"),
		},
	}, nil
}
