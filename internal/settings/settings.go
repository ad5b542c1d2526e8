// Package settings holds the operator's client-side preferences, carried in a cookie.
package settings

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// CookieName is the cookie the settings object travels in.
const CookieName = "vv_dashboard_settings"

// Mode selects how unmatched terminal text is handled.
type Mode string

const (
	ModeOff  Mode = "OFF"
	ModeDemo Mode = "DEMO"
	ModeBYOK Mode = "BYOK"
)

// Provider names the language-model vendor used in BYOK mode.
type Provider string

const (
	ProviderGemini Provider = "GEMINI"
	ProviderOpenAI Provider = "OPENAI"
)

// AI groups the assistant preferences.
type AI struct {
	Mode     Mode     `json:"mode"`
	Provider Provider `json:"provider"`
	APIKey   string   `json:"apiKey"`
}

// UI groups the presentation preferences.
type UI struct {
	CompactLayout bool `json:"compactLayout"`
	ReducedMotion bool `json:"reducedMotion"`
}

// Settings is the full preferences object.
type Settings struct {
	AI AI `json:"ai"`
	UI UI `json:"ui"`
}

// Defaults returns the settings used when nothing has been saved.
func Defaults() Settings {
	return Settings{
		AI: AI{Mode: ModeOff, Provider: ProviderGemini},
	}
}

// ParseMode normalises a mode name; ok is false for unknown values.
func ParseMode(raw string) (Mode, bool) {
	switch mode := Mode(strings.ToUpper(strings.TrimSpace(raw))); mode {
	case ModeOff, ModeDemo, ModeBYOK:
		return mode, true
	default:
		return "", false
	}
}

// ParseProvider normalises a provider name; ok is false for unknown values.
func ParseProvider(raw string) (Provider, bool) {
	switch provider := Provider(strings.ToUpper(strings.TrimSpace(raw))); provider {
	case ProviderGemini, ProviderOpenAI:
		return provider, true
	default:
		return "", false
	}
}

// Normalized returns a copy with unknown enum values replaced by their defaults.
func (s Settings) Normalized() Settings {
	defaults := Defaults()
	if mode, ok := ParseMode(string(s.AI.Mode)); ok {
		s.AI.Mode = mode
	} else {
		s.AI.Mode = defaults.AI.Mode
	}
	if provider, ok := ParseProvider(string(s.AI.Provider)); ok {
		s.AI.Provider = provider
	} else {
		s.AI.Provider = defaults.AI.Provider
	}
	s.AI.APIKey = strings.TrimSpace(s.AI.APIKey)
	return s
}

// Decode reads a cookie value, merging the stored fields over Defaults.
// Empty or unreadable input yields Defaults.
func Decode(raw string) Settings {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Defaults()
	}
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		// Older cookies held the JSON object directly.
		payload = []byte(raw)
	}
	merged := Defaults()
	if err := json.Unmarshal(payload, &merged); err != nil {
		return Defaults()
	}
	return merged.Normalized()
}

// Encode renders settings as a cookie-safe value.
func Encode(s Settings) string {
	payload, err := json.Marshal(s.Normalized())
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(payload)
}
