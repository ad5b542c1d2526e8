package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
)

// Command type discriminators.
const (
	TypeCreateTask       = "create_task"
	TypeUpdateTaskStatus = "update_task_status"
	TypeCreateEvent      = "create_event"
	TypeRescheduleEvent  = "reschedule_event"
)

const (
	defaultRescheduleMinutes = 30
	// maxRescheduleMinutes caps a rescheduled event at one week.
	maxRescheduleMinutes = 7 * 24 * 60
)

// Command is one validated model instruction.
type Command interface {
	Type() string
}

// CreateTask adds a task in the default status.
type CreateTask struct {
	Title string
}

// UpdateTaskStatus moves a task to a new status.
type UpdateTaskStatus struct {
	ID     string
	Status planner.TaskStatus
}

// CreateEvent schedules a meeting or call.
type CreateEvent struct {
	EventType  planner.EventType
	Title      string
	Person     string
	Location   string
	StartAtISO string
	EndAtISO   string
	Notes      string
}

// RescheduleEvent moves the next event with a person.
type RescheduleEvent struct {
	Person          string
	FromISO         string
	ToISO           string
	DurationMinutes float64
}

func (CreateTask) Type() string       { return TypeCreateTask }
func (UpdateTaskStatus) Type() string { return TypeUpdateTaskStatus }
func (CreateEvent) Type() string      { return TypeCreateEvent }
func (RescheduleEvent) Type() string  { return TypeRescheduleEvent }

func (c CreateTask) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": c.Type(), "title": c.Title})
}

func (c UpdateTaskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": c.Type(), "id": c.ID, "status": c.Status})
}

func (c CreateEvent) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"type":       c.Type(),
		"eventType":  c.EventType,
		"title":      c.Title,
		"person":     c.Person,
		"location":   c.Location,
		"startAtISO": c.StartAtISO,
		"notes":      c.Notes,
	}
	if c.EndAtISO != "" {
		payload["endAtISO"] = c.EndAtISO
	}
	return json.Marshal(payload)
}

func (c RescheduleEvent) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"type":            c.Type(),
		"person":          c.Person,
		"toISO":           c.ToISO,
		"durationMinutes": c.DurationMinutes,
	}
	if c.FromISO != "" {
		payload["fromISO"] = c.FromISO
	}
	return json.Marshal(payload)
}

// DecodeCommand parses a model reply into a Command, applying field defaults.
// A reply that is not a JSON object yields ErrMalformedReply; a shape mismatch yields *SchemaError.
func DecodeCommand(raw string) (Command, error) {
	trimmed := strings.TrimSpace(raw)
	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &object); err != nil || object == nil {
		return nil, ErrMalformedReply
	}

	reader := fieldReader{fields: object}
	commandType := reader.requiredString("type")
	if len(reader.issues) > 0 {
		return nil, &SchemaError{Issues: reader.issues}
	}

	var command Command
	switch commandType {
	case TypeCreateTask:
		command = CreateTask{Title: reader.requiredString("title")}
	case TypeUpdateTaskStatus:
		update := UpdateTaskStatus{ID: reader.requiredString("id")}
		if status := reader.requiredString("status"); status != "" {
			parsed, err := planner.ParseTaskStatus(status)
			if err != nil {
				reader.addIssue("status", fmt.Sprintf("unknown task status %q", status))
			}
			update.Status = parsed
		}
		command = update
	case TypeCreateEvent:
		event := CreateEvent{
			EventType:  planner.EventMeeting,
			Title:      reader.requiredString("title"),
			Person:     reader.optionalString("person"),
			Location:   reader.optionalString("location"),
			StartAtISO: reader.requiredString("startAtISO"),
			EndAtISO:   reader.optionalString("endAtISO"),
			Notes:      reader.optionalString("notes"),
		}
		if eventType := reader.optionalString("eventType"); eventType != "" {
			parsed, err := planner.ParseEventType(eventType)
			if err != nil {
				reader.addIssue("eventType", fmt.Sprintf("unknown event type %q", eventType))
			}
			event.EventType = parsed
		}
		command = event
	case TypeRescheduleEvent:
		reschedule := RescheduleEvent{
			Person:          reader.requiredString("person"),
			FromISO:         reader.optionalString("fromISO"),
			ToISO:           reader.requiredString("toISO"),
			DurationMinutes: reader.optionalNumber("durationMinutes", defaultRescheduleMinutes),
		}
		switch {
		case reschedule.DurationMinutes <= 0:
			reader.addIssue("durationMinutes", "must be positive")
		case reschedule.DurationMinutes > maxRescheduleMinutes:
			reader.addIssue("durationMinutes", fmt.Sprintf("must not exceed %d", maxRescheduleMinutes))
		}
		command = reschedule
	default:
		reader.addIssue("type", fmt.Sprintf("unknown command type %q", commandType))
	}

	if len(reader.issues) > 0 {
		return nil, &SchemaError{Issues: reader.issues}
	}
	return command, nil
}

type fieldReader struct {
	fields map[string]json.RawMessage
	issues []Issue
}

func (r *fieldReader) addIssue(path, message string) {
	r.issues = append(r.issues, Issue{Path: path, Message: message})
}

func (r *fieldReader) lookup(name string) (json.RawMessage, bool) {
	value, ok := r.fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, false
	}
	return value, true
}

func (r *fieldReader) requiredString(name string) string {
	value, ok := r.lookup(name)
	if !ok {
		r.addIssue(name, "required")
		return ""
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		r.addIssue(name, "expected string")
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.addIssue(name, "must not be empty")
	}
	return text
}

func (r *fieldReader) optionalString(name string) string {
	value, ok := r.lookup(name)
	if !ok {
		return ""
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		r.addIssue(name, "expected string")
		return ""
	}
	return strings.TrimSpace(text)
}

func (r *fieldReader) optionalNumber(name string, fallback float64) float64 {
	value, ok := r.lookup(name)
	if !ok {
		return fallback
	}
	var number float64
	if err := json.Unmarshal(value, &number); err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		r.addIssue(name, "expected number")
		return fallback
	}
	return number
}
