// Package assistant answers free-form terminal chat in demo mode or through the operator's Gemini key.
package assistant

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/settings"
	"go.uber.org/zap"
)

// Operator-facing messages.
const (
	MessageDisabled       = "AI disabled in Settings."
	MessageMissingKey     = "BYO Key mode active: API Key is missing in Settings."
	MessageUnreachable    = "Failed to reach AI provider. Verify your key and network."
	MessageUnsupported    = "Unsupported AI mode."
	MessageProbeOff       = "AI Mode is Off."
	MessageProbeDemo      = "Connection successful (Demo Mode)."
	MessageProbeOK        = "Connection successful."
	MessageProbeNoKey     = "API Key required."
	MessageProbeFailed    = "Connection failed. Please check your network and API key."
	MessageProbeBadMode   = "Invalid mode."
	geminiErrorPrefix     = "Gemini Error: "
	probeFailurePrefix    = "Failed: "
	DefaultDemoProbeDelay = 800 * time.Millisecond
)

// DemoReplies are the canned answers given in DEMO mode.
var DemoReplies = []string{
	"Intelligence received. I've noted the signal.",
	"Understood. Briefing updated with your latest input.",
	"Analyzing. The VV dashboard is optimal for these parameters.",
	"Acknowledge. Proceeding with standard operator protocols.",
}

// Reply is the outcome shown to the operator.
type Reply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Provider is the remote model the assistant forwards BYOK chat to.
type Provider interface {
	GenerateContent(ctx context.Context, apiKey, message string) (string, error)
	CheckModel(ctx context.Context, apiKey string) error
}

// Config wires an Assistant.
type Config struct {
	Provider       Provider
	DemoProbeDelay time.Duration
	Pick           func(n int) int
	Logger         *zap.Logger
}

// Assistant answers chat messages and connection probes.
type Assistant struct {
	provider  Provider
	demoDelay time.Duration
	pick      func(n int) int
	logger    *zap.Logger
}

// New constructs an Assistant. A nil Pick chooses demo replies uniformly at random.
func New(cfg Config) *Assistant {
	pick := cfg.Pick
	if pick == nil {
		pick = rand.IntN
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := cfg.DemoProbeDelay
	if delay < 0 {
		delay = 0
	}
	return &Assistant{provider: cfg.Provider, demoDelay: delay, pick: pick, logger: logger}
}

// Chat answers one message according to mode.
func (a *Assistant) Chat(ctx context.Context, mode settings.Mode, apiKey, message string) Reply {
	switch mode {
	case settings.ModeOff:
		return Reply{OK: false, Message: MessageDisabled}
	case settings.ModeDemo:
		return Reply{OK: true, Message: DemoReplies[a.pick(len(DemoReplies))]}
	case settings.ModeBYOK:
		if apiKey == "" {
			return Reply{OK: false, Message: MessageMissingKey}
		}
		if a.provider == nil {
			return Reply{OK: false, Message: MessageUnreachable}
		}
		text, err := a.provider.GenerateContent(ctx, apiKey, message)
		if err != nil {
			if apiErr, ok := isAPIError(err); ok {
				return Reply{OK: false, Message: geminiErrorPrefix + apiErr.Message}
			}
			a.logger.Warn("assistant provider unreachable", zap.Error(err))
			return Reply{OK: false, Message: MessageUnreachable}
		}
		return Reply{OK: true, Message: text}
	default:
		return Reply{OK: false, Message: MessageUnsupported}
	}
}

// Probe checks that the configured mode can answer.
func (a *Assistant) Probe(ctx context.Context, mode settings.Mode, apiKey string) Reply {
	switch mode {
	case settings.ModeOff:
		return Reply{OK: false, Message: MessageProbeOff}
	case settings.ModeDemo:
		if a.demoDelay > 0 {
			timer := time.NewTimer(a.demoDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return Reply{OK: false, Message: MessageProbeFailed}
			case <-timer.C:
			}
		}
		return Reply{OK: true, Message: MessageProbeDemo}
	case settings.ModeBYOK:
		if apiKey == "" {
			return Reply{OK: false, Message: MessageProbeNoKey}
		}
		if a.provider == nil {
			return Reply{OK: false, Message: MessageProbeFailed}
		}
		if err := a.provider.CheckModel(ctx, apiKey); err != nil {
			if apiErr, ok := isAPIError(err); ok {
				return Reply{OK: false, Message: probeFailurePrefix + apiErr.Message}
			}
			a.logger.Warn("assistant probe failed", zap.Error(err))
			return Reply{OK: false, Message: MessageProbeFailed}
		}
		return Reply{OK: true, Message: MessageProbeOK}
	default:
		return Reply{OK: false, Message: MessageProbeBadMode}
	}
}
