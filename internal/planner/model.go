package planner

import (
	"fmt"
	"strings"
	"time"
)

// NextActionCapacity is the maximum number of next actions that may be active (not done) at once.
const NextActionCapacity = 10

const maxTitleLength = 500

// NextActionStatus enumerates the lifecycle of a queued next action.
type NextActionStatus string

const (
	NextActionQueued NextActionStatus = "QUEUED"
	NextActionDoing  NextActionStatus = "DOING"
	NextActionDone   NextActionStatus = "DONE"
)

// TaskStatus enumerates long-horizon task states.
type TaskStatus string

const (
	TaskBacklog  TaskStatus = "BACKLOG"
	TaskPlanned  TaskStatus = "PLANNED"
	TaskActive   TaskStatus = "ACTIVE"
	TaskDone     TaskStatus = "DONE"
	TaskArchived TaskStatus = "ARCHIVED"
)

// EventType distinguishes meetings from calls.
type EventType string

const (
	EventMeeting EventType = "MEETING"
	EventCall    EventType = "CALL"
)

// Category groups people in the contact list.
type Category string

const (
	CategoryBusiness Category = "BUSINESS"
	CategoryFriends  Category = "FRIENDS"
	CategoryFamily   Category = "FAMILY"
)

// DossierType classifies a knowledge-base entry.
type DossierType string

const (
	DossierPerson  DossierType = "PERSON"
	DossierCompany DossierType = "COMPANY"
	DossierTopic   DossierType = "TOPIC"
)

// ParseNextActionStatus validates raw input and returns a NextActionStatus.
func ParseNextActionStatus(raw string) (NextActionStatus, error) {
	switch status := NextActionStatus(normalizeEnum(raw)); status {
	case NextActionQueued, NextActionDoing, NextActionDone:
		return status, nil
	default:
		return "", invalidField("status", fmt.Sprintf("unknown next action status %q", raw))
	}
}

// ParseTaskStatus validates raw input and returns a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	switch status := TaskStatus(normalizeEnum(raw)); status {
	case TaskBacklog, TaskPlanned, TaskActive, TaskDone, TaskArchived:
		return status, nil
	default:
		return "", invalidField("status", fmt.Sprintf("unknown task status %q", raw))
	}
}

// ParseEventType validates raw input and returns an EventType.
func ParseEventType(raw string) (EventType, error) {
	switch eventType := EventType(normalizeEnum(raw)); eventType {
	case EventMeeting, EventCall:
		return eventType, nil
	default:
		return "", invalidField("type", fmt.Sprintf("unknown event type %q", raw))
	}
}

// ParseCategory validates raw input and returns a Category.
func ParseCategory(raw string) (Category, error) {
	switch category := Category(normalizeEnum(raw)); category {
	case CategoryBusiness, CategoryFriends, CategoryFamily:
		return category, nil
	default:
		return "", invalidField("category", fmt.Sprintf("unknown category %q", raw))
	}
}

// ParseDossierType validates raw input and returns a DossierType.
func ParseDossierType(raw string) (DossierType, error) {
	switch dossierType := DossierType(normalizeEnum(raw)); dossierType {
	case DossierPerson, DossierCompany, DossierTopic:
		return dossierType, nil
	default:
		return "", invalidField("type", fmt.Sprintf("unknown dossier type %q", raw))
	}
}

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// requireTitle trims the value and rejects empty or oversized input.
func requireTitle(field, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalidField(field, "must not be empty")
	}
	if len(trimmed) > maxTitleLength {
		return "", invalidField(field, fmt.Sprintf("exceeds %d characters", maxTitleLength))
	}
	return trimmed, nil
}

// Capture is an unsorted backlog inbox item.
type Capture struct {
	ID        string    `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Title     string    `gorm:"column:title;size:500;not null" json:"title"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Capture) TableName() string {
	return "captures"
}

// NextAction is an immediately actionable item in the bounded queue.
type NextAction struct {
	ID        string           `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Title     string           `gorm:"column:title;size:500;not null" json:"title"`
	Status    NextActionStatus `gorm:"column:status;size:16;not null;default:QUEUED" json:"status"`
	Done      bool             `gorm:"column:done;not null;default:false;index" json:"done"`
	CreatedAt time.Time        `gorm:"column:created_at;not null;index" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (NextAction) TableName() string {
	return "next_actions"
}

// Task is a longer-horizon work item.
type Task struct {
	ID        string     `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Title     string     `gorm:"column:title;size:500;not null" json:"title"`
	Status    TaskStatus `gorm:"column:status;size:16;not null;default:BACKLOG;index" json:"status"`
	Notes     string     `gorm:"column:notes;type:text;not null;default:''" json:"notes"`
	Priority  int        `gorm:"column:priority;not null;default:0" json:"priority"`
	DueAt     *time.Time `gorm:"column:due_at" json:"dueAt"`
	DoneAt    *time.Time `gorm:"column:done_at" json:"doneAt"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Task) TableName() string {
	return "tasks"
}

// Event is a scheduled meeting or call.
type Event struct {
	ID        string    `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Type      EventType `gorm:"column:type;size:16;not null;default:MEETING" json:"type"`
	Title     string    `gorm:"column:title;size:500;not null" json:"title"`
	Person    string    `gorm:"column:person;size:320;not null;default:''" json:"person"`
	Location  string    `gorm:"column:location;size:320;not null;default:''" json:"location"`
	StartAt   time.Time `gorm:"column:start_at;not null;index" json:"startAt"`
	EndAt     time.Time `gorm:"column:end_at;not null" json:"endAt"`
	Notes     string    `gorm:"column:notes;type:text;not null;default:''" json:"notes"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Event) TableName() string {
	return "events"
}

// Duration returns the scheduled length of the event.
func (e Event) Duration() time.Duration {
	return e.EndAt.Sub(e.StartAt)
}

// Person is a contact with follow-up metadata.
type Person struct {
	ID           string     `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Name         string     `gorm:"column:name;size:320;not null" json:"name"`
	Category     Category   `gorm:"column:category;size:16;not null;default:BUSINESS" json:"category"`
	Context      string     `gorm:"column:context;type:text;not null;default:''" json:"context"`
	Notes        string     `gorm:"column:notes;type:text;not null;default:''" json:"notes"`
	LastContact  *time.Time `gorm:"column:last_contact" json:"lastContact"`
	NextFollowUp *time.Time `gorm:"column:next_follow_up" json:"nextFollowUp"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null;index" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Person) TableName() string {
	return "people"
}

// Signal is an ephemeral capture of external input.
type Signal struct {
	ID        string    `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Text      string    `gorm:"column:text;type:text;not null" json:"text"`
	Source    *string   `gorm:"column:source;size:320" json:"source"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Signal) TableName() string {
	return "signals"
}

// Dossier is a durable knowledge-base entry.
type Dossier struct {
	ID        string      `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Name      string      `gorm:"column:name;size:320;not null" json:"name"`
	Type      DossierType `gorm:"column:type;size:16;not null;default:TOPIC" json:"type"`
	Note      string      `gorm:"column:note;type:text;not null;default:''" json:"note"`
	CreatedAt time.Time   `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time   `gorm:"column:updated_at;not null;index" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Dossier) TableName() string {
	return "dossiers"
}

// DailyBrief is the singleton operator briefing.
type DailyBrief struct {
	ID        string    `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (DailyBrief) TableName() string {
	return "daily_briefs"
}

// Models lists every persisted type for schema migration.
func Models() []any {
	return []any{
		&Capture{},
		&NextAction{},
		&Task{},
		&Event{},
		&Person{},
		&Signal{},
		&Dossier{},
		&DailyBrief{},
	}
}
