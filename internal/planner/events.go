package planner

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultEventDuration applies when an event is created or rescheduled without an explicit end.
const DefaultEventDuration = 30 * time.Minute

// EventInput describes a new event.
type EventInput struct {
	Type     EventType
	Title    string
	Person   string
	Location string
	StartAt  time.Time
	EndAt    time.Time
	Notes    string
}

// EventPatch lists the editable event fields; nil pointers are left untouched.
type EventPatch struct {
	Type     *EventType
	Title    *string
	Person   *string
	Location *string
	StartAt  *time.Time
	EndAt    *time.Time
	Notes    *string
}

// RescheduleRequest moves the soonest upcoming event with a matching person.
type RescheduleRequest struct {
	Person string
	// From narrows the search to events starting at or after this instant; nil means now.
	From     *time.Time
	To       time.Time
	Duration time.Duration
}

func validateRange(startAt, endAt time.Time) error {
	if startAt.IsZero() {
		return invalidField("startAt", "is required")
	}
	if endAt.Before(startAt) {
		return invalidField("endAt", "must not be before startAt")
	}
	return nil
}

// CreateEvent persists a meeting or call. A zero EndAt defaults to StartAt plus DefaultEventDuration.
func (s *Service) CreateEvent(ctx context.Context, input EventInput) (Event, error) {
	if err := s.ready(opCreateEvent); err != nil {
		return Event{}, err
	}
	title, err := requireTitle("title", input.Title)
	if err != nil {
		return Event{}, err
	}
	eventType := input.Type
	if eventType == "" {
		eventType = EventMeeting
	}
	eventType, err = ParseEventType(string(eventType))
	if err != nil {
		return Event{}, err
	}
	startAt := input.StartAt.UTC()
	endAt := input.EndAt.UTC()
	if input.EndAt.IsZero() {
		endAt = startAt.Add(DefaultEventDuration)
	}
	if err := validateRange(startAt, endAt); err != nil {
		return Event{}, err
	}
	id, err := s.newID(opCreateEvent)
	if err != nil {
		return Event{}, err
	}
	now := s.Now()
	event := Event{
		ID:        id,
		Type:      eventType,
		Title:     title,
		Person:    strings.TrimSpace(input.Person),
		Location:  strings.TrimSpace(input.Location),
		StartAt:   startAt,
		EndAt:     endAt,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return Event{}, s.storageError(opCreateEvent, "insert_failed", err)
	}
	return event, nil
}

// UpdateEvent applies the non-nil fields of patch and re-checks the time range.
func (s *Service) UpdateEvent(ctx context.Context, id string, patch EventPatch) (Event, error) {
	if err := s.ready(opUpdateEvent); err != nil {
		return Event{}, err
	}

	var event Event
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&event).Error; err != nil {
			return err
		}
		if patch.Type != nil {
			eventType, err := ParseEventType(string(*patch.Type))
			if err != nil {
				return err
			}
			event.Type = eventType
		}
		if patch.Title != nil {
			title, err := requireTitle("title", *patch.Title)
			if err != nil {
				return err
			}
			event.Title = title
		}
		if patch.Person != nil {
			event.Person = strings.TrimSpace(*patch.Person)
		}
		if patch.Location != nil {
			event.Location = strings.TrimSpace(*patch.Location)
		}
		if patch.Notes != nil {
			event.Notes = *patch.Notes
		}
		if patch.StartAt != nil {
			event.StartAt = patch.StartAt.UTC()
		}
		if patch.EndAt != nil {
			event.EndAt = patch.EndAt.UTC()
		}
		if err := validateRange(event.StartAt, event.EndAt); err != nil {
			return err
		}
		event.UpdatedAt = s.Now()
		return tx.Save(&event).Error
	})
	if txErr != nil {
		return Event{}, s.passThrough(opUpdateEvent, "update_failed", txErr, zap.String("event_id", id))
	}
	return event, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := s.ready(opDeleteEvent); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Event{})
	if result.Error != nil {
		return s.storageError(opDeleteEvent, "delete_failed", result.Error, zap.String("event_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEvents returns events in chronological order, capped at limit when positive.
func (s *Service) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	if err := s.ready(opListEvents); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Order("start_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var events []Event
	if err := query.Find(&events).Error; err != nil {
		return nil, s.storageError(opListEvents, "query_failed", err)
	}
	return events, nil
}

// CountEventsBetween counts events starting within [from, to].
func (s *Service) CountEventsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if err := s.ready(opListEvents); err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&Event{}).
		Where("start_at >= ? AND start_at <= ?", from.UTC(), to.UTC()).
		Count(&count).Error; err != nil {
		return 0, s.storageError(opListEvents, "count_failed", err)
	}
	return count, nil
}

// RescheduleByPerson moves the soonest upcoming event whose person contains the given name
// (case-insensitive) to req.To, discarding its previous duration.
func (s *Service) RescheduleByPerson(ctx context.Context, req RescheduleRequest) (Event, error) {
	if err := s.ready(opReschedule); err != nil {
		return Event{}, err
	}
	person := strings.TrimSpace(req.Person)
	if person == "" {
		return Event{}, invalidField("person", "must not be empty")
	}
	if req.To.IsZero() {
		return Event{}, invalidField("toISO", "is required")
	}
	duration := req.Duration
	if duration == 0 {
		duration = DefaultEventDuration
	}
	if duration < 0 {
		return Event{}, invalidField("durationMinutes", "must be positive")
	}
	lowerBound := s.Now()
	if req.From != nil {
		lowerBound = req.From.UTC()
	}

	var event Event
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var upcoming []Event
		if err := tx.Where("person <> ?", "").
			Where("start_at >= ?", lowerBound).
			Order("start_at ASC").
			Find(&upcoming).Error; err != nil {
			return err
		}
		match, ok := firstPersonMatch(upcoming, person)
		if !ok {
			return gorm.ErrRecordNotFound
		}
		event = match
		event.StartAt = req.To.UTC()
		event.EndAt = event.StartAt.Add(duration)
		event.UpdatedAt = s.Now()
		return tx.Save(&event).Error
	})
	if txErr != nil {
		return Event{}, s.passThrough(opReschedule, "update_failed", txErr, zap.String("person", person))
	}
	return event, nil
}

// firstPersonMatch folds case in Go so non-ASCII names match the same way on every store.
func firstPersonMatch(events []Event, name string) (Event, bool) {
	needle := strings.ToLower(name)
	for _, event := range events {
		if strings.Contains(strings.ToLower(event.Person), needle) {
			return event, true
		}
	}
	return Event{}, false
}
