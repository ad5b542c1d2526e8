package planner

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	admitNextActionSQLite = "INSERT INTO next_actions (id, title, status, done, created_at) " +
		"SELECT ?, ?, ?, ?, ? " +
		"WHERE (SELECT COUNT(*) FROM next_actions WHERE done = ?) < ?"
	admitNextActionPostgres = "INSERT INTO next_actions (id, title, status, done, created_at) " +
		"SELECT CAST(? AS text), CAST(? AS text), CAST(? AS text), CAST(? AS boolean), CAST(? AS timestamptz) " +
		"WHERE (SELECT COUNT(*) FROM next_actions WHERE done = ?) < ?"
	reopenNextActionSQL = "UPDATE next_actions SET status = ?, done = ? " +
		"WHERE id = ? AND (done = ? OR (SELECT COUNT(*) FROM next_actions WHERE done = ?) < ?)"
	lockNextActionsPostgres = "LOCK TABLE next_actions IN SHARE ROW EXCLUSIVE MODE"
)

// lockNextActions serializes queue admissions for the rest of tx.
// SQLite runs on a single connection and needs no lock.
func lockNextActions(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(lockNextActionsPostgres).Error
}

// admitNextAction inserts the action only while the active count is below capacity.
// tx must be a transaction; the queue is locked before counting.
func admitNextAction(tx *gorm.DB, action NextAction) (bool, error) {
	if err := lockNextActions(tx); err != nil {
		return false, err
	}
	statement := admitNextActionSQLite
	if tx.Dialector.Name() == "postgres" {
		statement = admitNextActionPostgres
	}
	result := tx.Exec(statement,
		action.ID, action.Title, string(action.Status), action.Done, action.CreatedAt,
		false, NextActionCapacity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AddNextAction queues a new next action directly, subject to the capacity ceiling.
func (s *Service) AddNextAction(ctx context.Context, title string) (NextAction, error) {
	if err := s.ready(opAddNextAction); err != nil {
		return NextAction{}, err
	}
	cleanTitle, err := requireTitle("title", title)
	if err != nil {
		return NextAction{}, err
	}
	id, err := s.newID(opAddNextAction)
	if err != nil {
		return NextAction{}, err
	}
	action := NextAction{ID: id, Title: cleanTitle, Status: NextActionQueued, Done: false, CreatedAt: s.Now()}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admitted, err := admitNextAction(tx, action)
		if err != nil {
			return err
		}
		if !admitted {
			return ErrQueueFull
		}
		return nil
	})
	if txErr != nil {
		return NextAction{}, s.passThrough(opAddNextAction, "insert_failed", txErr)
	}
	return action, nil
}

// ListNextActions returns every next action, newest first.
func (s *Service) ListNextActions(ctx context.Context) ([]NextAction, error) {
	if err := s.ready(opListNextActions); err != nil {
		return nil, err
	}
	var actions []NextAction
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&actions).Error; err != nil {
		return nil, s.storageError(opListNextActions, "query_failed", err)
	}
	return actions, nil
}

// ListActiveNextActions returns up to limit active actions, oldest first.
func (s *Service) ListActiveNextActions(ctx context.Context, limit int) ([]NextAction, error) {
	if err := s.ready(opListNextActions); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Where("done = ?", false).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var actions []NextAction
	if err := query.Find(&actions).Error; err != nil {
		return nil, s.storageError(opListNextActions, "query_failed", err)
	}
	return actions, nil
}

// CountActiveNextActions returns the number of next actions that are not done.
func (s *Service) CountActiveNextActions(ctx context.Context) (int64, error) {
	if err := s.ready(opListNextActions); err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&NextAction{}).Where("done = ?", false).Count(&count).Error; err != nil {
		return 0, s.storageError(opListNextActions, "count_failed", err)
	}
	return count, nil
}

// SetNextActionStatus moves an action between QUEUED, DOING and DONE, keeping done in step with status.
// Re-opening a DONE action re-admits it to the queue and fails with ErrQueueFull at capacity.
func (s *Service) SetNextActionStatus(ctx context.Context, id string, status NextActionStatus) (NextAction, error) {
	if err := s.ready(opSetNextStatus); err != nil {
		return NextAction{}, err
	}
	status, err := ParseNextActionStatus(string(status))
	if err != nil {
		return NextAction{}, err
	}

	var updated NextAction
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing NextAction
		if err := tx.Where("id = ?", id).Take(&existing).Error; err != nil {
			return err
		}

		done := status == NextActionDone
		if existing.Done && !done {
			if err := lockNextActions(tx); err != nil {
				return err
			}
			result := tx.Exec(reopenNextActionSQL, string(status), false, id, false, false, NextActionCapacity)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrQueueFull
			}
		} else {
			if err := tx.Model(&NextAction{}).Where("id = ?", id).
				Updates(map[string]any{"status": string(status), "done": done}).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).Take(&updated).Error
	})
	if txErr != nil {
		return NextAction{}, s.passThrough(opSetNextStatus, "update_failed", txErr, zap.String("next_action_id", id))
	}
	return updated, nil
}

// ToggleNextAction marks an action done (DONE) or not done (QUEUED).
func (s *Service) ToggleNextAction(ctx context.Context, id string, done bool) (NextAction, error) {
	status := NextActionQueued
	if done {
		status = NextActionDone
	}
	return s.SetNextActionStatus(ctx, id, status)
}

// DeleteNextAction removes an action from the queue entirely.
func (s *Service) DeleteNextAction(ctx context.Context, id string) error {
	if err := s.ready(opDeleteNextAction); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&NextAction{})
	if result.Error != nil {
		return s.storageError(opDeleteNextAction, "delete_failed", result.Error, zap.String("next_action_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
