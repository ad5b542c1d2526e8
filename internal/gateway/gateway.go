// Package gateway turns free text into one validated planner mutation through a chat model.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"go.uber.org/zap"
)

// Planner is the subset of the planner service the gateway dispatches to.
type Planner interface {
	CreateTask(ctx context.Context, title string, status planner.TaskStatus) (planner.Task, error)
	SetTaskStatus(ctx context.Context, id string, status planner.TaskStatus) (planner.Task, error)
	CreateEvent(ctx context.Context, input planner.EventInput) (planner.Event, error)
	RescheduleByPerson(ctx context.Context, request planner.RescheduleRequest) (planner.Event, error)
}

// Config wires a Gateway.
type Config struct {
	Completer Completer
	Planner   Planner
	Location  *time.Location
	Logger    *zap.Logger
}

// Gateway executes natural-language commands.
type Gateway struct {
	completer Completer
	planner   Planner
	location  *time.Location
	logger    *zap.Logger
}

// Result describes an executed command and the row it produced.
type Result struct {
	Executed Command
	Task     *planner.Task
	Event    *planner.Event
}

// New constructs a Gateway. A nil Completer leaves the gateway disabled.
func New(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &Gateway{
		completer: cfg.Completer,
		planner:   cfg.Planner,
		location:  location,
		logger:    logger,
	}
}

// Enabled reports whether a completer is wired.
func (g *Gateway) Enabled() bool {
	return g != nil && g.completer != nil && g.planner != nil
}

// Execute asks the model for a command, validates it and applies it.
// apiKey overrides the server key for this call when non-empty.
func (g *Gateway) Execute(ctx context.Context, text, apiKey string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrMissingText
	}
	if !g.Enabled() {
		return Result{}, ErrGatewayDisabled
	}

	raw, err := g.completer.Complete(ctx, SystemPrompt, text, apiKey)
	if err != nil {
		g.logger.Warn("model call failed", zap.Error(err))
		return Result{}, err
	}

	command, err := DecodeCommand(raw)
	if err != nil {
		return Result{}, &ReplyError{Raw: raw, Err: err}
	}
	return g.Apply(ctx, command)
}

// Apply validates dates and dispatches a decoded command to the planner.
func (g *Gateway) Apply(ctx context.Context, command Command) (Result, error) {
	result := Result{Executed: command}
	switch typed := command.(type) {
	case CreateTask:
		task, err := g.planner.CreateTask(ctx, typed.Title, "")
		if err != nil {
			return result, err
		}
		result.Task = &task
	case UpdateTaskStatus:
		task, err := g.planner.SetTaskStatus(ctx, typed.ID, typed.Status)
		if err != nil {
			return result, err
		}
		result.Task = &task
	case CreateEvent:
		input, err := g.eventInput(typed)
		if err != nil {
			return result, err
		}
		event, err := g.planner.CreateEvent(ctx, input)
		if err != nil {
			return result, err
		}
		result.Event = &event
	case RescheduleEvent:
		request, err := g.rescheduleRequest(typed)
		if err != nil {
			return result, err
		}
		event, err := g.planner.RescheduleByPerson(ctx, request)
		if err != nil {
			return result, err
		}
		result.Event = &event
	default:
		return result, &SchemaError{Issues: []Issue{{Path: "type", Message: "unhandled command"}}}
	}
	return result, nil
}

func (g *Gateway) eventInput(command CreateEvent) (planner.EventInput, error) {
	startAt, ok := ParseISO(command.StartAtISO, g.location)
	if !ok {
		return planner.EventInput{}, invalidDate("startAtISO", command.StartAtISO)
	}
	endAt := startAt.Add(planner.DefaultEventDuration)
	if command.EndAtISO != "" {
		parsed, ok := ParseISO(command.EndAtISO, g.location)
		if !ok {
			return planner.EventInput{}, invalidDate("endAtISO", command.EndAtISO)
		}
		endAt = parsed
	}
	return planner.EventInput{
		Type:     command.EventType,
		Title:    command.Title,
		Person:   command.Person,
		Location: command.Location,
		StartAt:  startAt,
		EndAt:    endAt,
		Notes:    command.Notes,
	}, nil
}

func (g *Gateway) rescheduleRequest(command RescheduleEvent) (planner.RescheduleRequest, error) {
	to, ok := ParseISO(command.ToISO, g.location)
	if !ok {
		return planner.RescheduleRequest{}, invalidDate("toISO", command.ToISO)
	}
	request := planner.RescheduleRequest{
		Person:   command.Person,
		To:       to,
		Duration: time.Duration(command.DurationMinutes * float64(time.Minute)),
	}
	if command.FromISO != "" {
		from, ok := ParseISO(command.FromISO, g.location)
		if !ok {
			return planner.RescheduleRequest{}, invalidDate("fromISO", command.FromISO)
		}
		request.From = &from
	}
	return request, nil
}
