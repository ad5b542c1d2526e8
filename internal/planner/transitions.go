package planner

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PromoteCapture moves a backlog item into the next actions queue.
// The NextAction insert and the Capture delete share one transaction; a full queue aborts both.
func (s *Service) PromoteCapture(ctx context.Context, captureID string) (NextAction, error) {
	if err := s.ready(opPromote); err != nil {
		return NextAction{}, err
	}

	var promoted NextAction
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var capture Capture
		if err := tx.Where("id = ?", captureID).Take(&capture).Error; err != nil {
			return err
		}
		id, err := s.newID(opPromote)
		if err != nil {
			return err
		}
		action := NextAction{ID: id, Title: capture.Title, Status: NextActionQueued, Done: false, CreatedAt: s.Now()}
		admitted, err := admitNextAction(tx, action)
		if err != nil {
			return err
		}
		if !admitted {
			return ErrQueueFull
		}
		if err := deleteExactlyOne(tx, &Capture{}, captureID); err != nil {
			return err
		}
		promoted = action
		return nil
	})
	if txErr != nil {
		return NextAction{}, s.passThrough(opPromote, "transaction_failed", txErr, zap.String("capture_id", captureID))
	}
	return promoted, nil
}

// ConvertCapture turns a backlog item into a PLANNED task.
func (s *Service) ConvertCapture(ctx context.Context, captureID string) (Task, error) {
	if err := s.ready(opConvert); err != nil {
		return Task{}, err
	}

	var converted Task
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var capture Capture
		if err := tx.Where("id = ?", captureID).Take(&capture).Error; err != nil {
			return err
		}
		id, err := s.newID(opConvert)
		if err != nil {
			return err
		}
		now := s.Now()
		task := Task{ID: id, Title: capture.Title, Status: TaskPlanned, CreatedAt: now, UpdatedAt: now}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		if err := deleteExactlyOne(tx, &Capture{}, captureID); err != nil {
			return err
		}
		converted = task
		return nil
	})
	if txErr != nil {
		return Task{}, s.passThrough(opConvert, "transaction_failed", txErr, zap.String("capture_id", captureID))
	}
	return converted, nil
}

// DemoteNextAction sends a next action back to the backlog regardless of its status.
func (s *Service) DemoteNextAction(ctx context.Context, nextActionID string) (Capture, error) {
	if err := s.ready(opDemote); err != nil {
		return Capture{}, err
	}

	var demoted Capture
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var action NextAction
		if err := tx.Where("id = ?", nextActionID).Take(&action).Error; err != nil {
			return err
		}
		id, err := s.newID(opDemote)
		if err != nil {
			return err
		}
		capture := Capture{ID: id, Title: action.Title, CreatedAt: s.Now()}
		if err := tx.Create(&capture).Error; err != nil {
			return err
		}
		if err := deleteExactlyOne(tx, &NextAction{}, nextActionID); err != nil {
			return err
		}
		demoted = capture
		return nil
	})
	if txErr != nil {
		return Capture{}, s.passThrough(opDemote, "transaction_failed", txErr, zap.String("next_action_id", nextActionID))
	}
	return demoted, nil
}

// deleteExactlyOne removes the source row of a transition; a concurrent delete surfaces as ErrNotFound
// and rolls the destination insert back.
func deleteExactlyOne(tx *gorm.DB, model any, id string) error {
	result := tx.Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrNotFound
	}
	return nil
}
