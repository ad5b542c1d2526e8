package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/assistant"
	"github.com/MarcoPoloResearchLab/controlroom/internal/gateway"
	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/MarcoPoloResearchLab/controlroom/internal/settings"
	"go.uber.org/zap"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_collaborators.go -package=mocks github.com/MarcoPoloResearchLab/controlroom/internal/command Mutator,Chatter,Executor,Notifier

// Line kinds.
const (
	LineUser = "user"
	LineOK   = "ok"
	LineErr  = "err"
)

const (
	offlineEventLength     = time.Hour
	eventTimeLayout        = "Mon 02 Jan 15:04 MST"
	messageLocalFailure    = "Local execution failed."
	messageGatewayDisabled = "AI gateway is not configured. Set OPENAI_API_KEY or add an OpenAI key in Settings."
)

// Line is one row of terminal output.
type Line struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Mutator is the slice of the planner used by offline commands.
type Mutator interface {
	AddCapture(ctx context.Context, title string) (planner.Capture, error)
	AddNextAction(ctx context.Context, title string) (planner.NextAction, error)
	CreateTask(ctx context.Context, title string, status planner.TaskStatus) (planner.Task, error)
	CreateEvent(ctx context.Context, input planner.EventInput) (planner.Event, error)
}

// Chatter answers free-form chat.
type Chatter interface {
	Chat(ctx context.Context, mode settings.Mode, apiKey, message string) assistant.Reply
}

// Executor runs natural-language commands against the planner.
type Executor interface {
	Execute(ctx context.Context, text, apiKey string) (gateway.Result, error)
}

// Notifier is told when the board changed.
type Notifier interface {
	BoardChanged()
}

// RouterConfig wires a Router.
type RouterConfig struct {
	Mutator  Mutator
	Chatter  Chatter
	Executor Executor
	Notifier Notifier
	Clock    func() time.Time
	Location *time.Location
	Logger   *zap.Logger
}

// Router dispatches terminal input.
type Router struct {
	mutator  Mutator
	chatter  Chatter
	executor Executor
	notifier Notifier
	clock    func() time.Time
	location *time.Location
	logger   *zap.Logger
}

// NewRouter constructs a Router.
func NewRouter(cfg RouterConfig) *Router {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		mutator:  cfg.Mutator,
		chatter:  cfg.Chatter,
		executor: cfg.Executor,
		notifier: cfg.Notifier,
		clock:    clock,
		location: location,
		logger:   logger,
	}
}

// Run handles one line of input and returns the lines to show, starting with the echoed input.
// Failures are reported as err lines.
func (r *Router) Run(ctx context.Context, text string, current settings.Settings) []Line {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	lines := []Line{{Kind: LineUser, Text: trimmed}}

	if intent, ok := Parse(trimmed); ok {
		return append(lines, r.runOffline(ctx, intent))
	}

	current = current.Normalized()
	switch current.AI.Mode {
	case settings.ModeOff:
		return append(lines, Line{Kind: LineErr, Text: assistant.MessageDisabled})
	case settings.ModeBYOK:
		if current.AI.Provider == settings.ProviderOpenAI {
			return append(lines, r.runGateway(ctx, trimmed, current.AI.APIKey))
		}
	}
	return append(lines, r.runChat(ctx, trimmed, current))
}

func (r *Router) runOffline(ctx context.Context, intent Intent) Line {
	if r.mutator == nil {
		return Line{Kind: LineErr, Text: messageLocalFailure}
	}

	var (
		text string
		err  error
	)
	switch intent.Kind {
	case KindBacklog:
		_, err = r.mutator.AddCapture(ctx, intent.Payload)
		text = "Captured to Backlog: " + intent.Payload
	case KindNext:
		_, err = r.mutator.AddNextAction(ctx, intent.Payload)
		text = "Added to Next Actions: " + intent.Payload
	case KindTask:
		_, err = r.mutator.CreateTask(ctx, intent.Payload, planner.TaskPlanned)
		text = "Planned task: " + intent.Payload
	case KindEvent:
		now := r.clock()
		_, err = r.mutator.CreateEvent(ctx, planner.EventInput{
			Type:    planner.EventMeeting,
			Title:   intent.Payload,
			StartAt: now,
			EndAt:   now.Add(offlineEventLength),
		})
		text = "Event created: " + intent.Payload
	default:
		err = fmt.Errorf("unknown intent %q", intent.Kind)
	}
	if err != nil {
		return Line{Kind: LineErr, Text: r.describe(err)}
	}
	r.boardChanged()
	return Line{Kind: LineOK, Text: text}
}

func (r *Router) runGateway(ctx context.Context, text, apiKey string) Line {
	if r.executor == nil {
		return Line{Kind: LineErr, Text: messageGatewayDisabled}
	}
	result, err := r.executor.Execute(ctx, text, apiKey)
	if err != nil {
		return Line{Kind: LineErr, Text: r.describe(err)}
	}
	r.boardChanged()
	return Line{Kind: LineOK, Text: r.summarize(result)}
}

func (r *Router) runChat(ctx context.Context, text string, current settings.Settings) Line {
	if r.chatter == nil {
		return Line{Kind: LineErr, Text: assistant.MessageUnreachable}
	}
	reply := r.chatter.Chat(ctx, current.AI.Mode, current.AI.APIKey, text)
	if !reply.OK {
		return Line{Kind: LineErr, Text: reply.Message}
	}
	return Line{Kind: LineOK, Text: reply.Message}
}

func (r *Router) summarize(result gateway.Result) string {
	switch {
	case result.Task != nil && result.Executed != nil && result.Executed.Type() == gateway.TypeUpdateTaskStatus:
		return fmt.Sprintf("Task %s moved to %s", result.Task.Title, result.Task.Status)
	case result.Task != nil:
		return "Task created: " + result.Task.Title
	case result.Event != nil && result.Executed != nil && result.Executed.Type() == gateway.TypeRescheduleEvent:
		return fmt.Sprintf("Event rescheduled: %s to %s", result.Event.Title, result.Event.StartAt.In(r.location).Format(eventTimeLayout))
	case result.Event != nil:
		return fmt.Sprintf("Event created: %s at %s", result.Event.Title, result.Event.StartAt.In(r.location).Format(eventTimeLayout))
	default:
		return "Command executed."
	}
}

// Describe renders an error as operator-facing text.
func Describe(err error) string {
	var (
		fieldErr    *planner.FieldError
		schemaErr   *gateway.SchemaError
		providerErr *gateway.ProviderError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, planner.ErrQueueFull):
		return fmt.Sprintf("Next Actions is full (%d/%d). Finish or demote an item first.", planner.NextActionCapacity, planner.NextActionCapacity)
	case errors.As(err, &fieldErr):
		return "Invalid input: " + fieldErr.Error()
	case errors.Is(err, planner.ErrNotFound):
		return "No matching record found."
	case errors.Is(err, gateway.ErrGatewayDisabled):
		return messageGatewayDisabled
	case errors.Is(err, gateway.ErrMalformedReply):
		return "AI did not return JSON."
	case errors.Is(err, gateway.ErrInvalidDate):
		return "AI command has " + err.Error()
	case errors.As(err, &schemaErr):
		return "Invalid command shape: " + schemaErr.Summary()
	case errors.As(err, &providerErr):
		return "AI provider error: " + providerErr.Message
	default:
		return messageLocalFailure
	}
}

func (r *Router) describe(err error) string {
	if !planner.IsDomainError(err) {
		r.logger.Warn("terminal command failed", zap.Error(err))
	}
	return Describe(err)
}

func (r *Router) boardChanged() {
	if r.notifier != nil {
		r.notifier.BoardChanged()
	}
}
