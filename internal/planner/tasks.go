package planner

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskPatch lists the editable task fields; nil pointers are left untouched.
type TaskPatch struct {
	Title      *string
	Notes      *string
	Priority   *int
	DueAt      *time.Time
	ClearDueAt bool
}

// CreateTask inserts a task; an empty status defaults to BACKLOG.
func (s *Service) CreateTask(ctx context.Context, title string, status TaskStatus) (Task, error) {
	if err := s.ready(opCreateTask); err != nil {
		return Task{}, err
	}
	cleanTitle, err := requireTitle("title", title)
	if err != nil {
		return Task{}, err
	}
	if status == "" {
		status = TaskBacklog
	}
	status, err = ParseTaskStatus(string(status))
	if err != nil {
		return Task{}, err
	}
	id, err := s.newID(opCreateTask)
	if err != nil {
		return Task{}, err
	}
	now := s.Now()
	task := Task{ID: id, Title: cleanTitle, Status: status, CreatedAt: now, UpdatedAt: now}
	if status == TaskDone || status == TaskArchived {
		task.DoneAt = &now
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return Task{}, s.storageError(opCreateTask, "insert_failed", err)
	}
	return task, nil
}

// GetTask loads a single task.
func (s *Service) GetTask(ctx context.Context, id string) (Task, error) {
	if err := s.ready(opListTasks); err != nil {
		return Task{}, err
	}
	var task Task
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&task).Error; err != nil {
		return Task{}, s.storageError(opListTasks, "query_failed", err, zap.String("task_id", id))
	}
	return task, nil
}

// ListTasks returns tasks newest first, optionally restricted to the given statuses.
func (s *Service) ListTasks(ctx context.Context, statuses ...TaskStatus) ([]Task, error) {
	if err := s.ready(opListTasks); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if len(statuses) > 0 {
		raw := make([]string, 0, len(statuses))
		for _, status := range statuses {
			raw = append(raw, string(status))
		}
		query = query.Where("status IN ?", raw)
	}
	var tasks []Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, s.storageError(opListTasks, "query_failed", err)
	}
	return tasks, nil
}

// CountTasks returns the total number of tasks; used as the store connectivity probe.
func (s *Service) CountTasks(ctx context.Context) (int64, error) {
	if err := s.ready(opListTasks); err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&Task{}).Count(&count).Error; err != nil {
		return 0, s.storageError(opListTasks, "count_failed", err)
	}
	return count, nil
}

// UpdateTask applies the non-nil fields of patch.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	if err := s.ready(opUpdateTask); err != nil {
		return Task{}, err
	}
	updates := map[string]any{"updated_at": s.Now()}
	if patch.Title != nil {
		cleanTitle, err := requireTitle("title", *patch.Title)
		if err != nil {
			return Task{}, err
		}
		updates["title"] = cleanTitle
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if patch.Priority != nil {
		updates["priority"] = *patch.Priority
	}
	if patch.ClearDueAt {
		updates["due_at"] = nil
	} else if patch.DueAt != nil {
		updates["due_at"] = patch.DueAt.UTC()
	}
	return s.updateTask(ctx, opUpdateTask, id, updates)
}

// SetTaskStatus moves a task to any status; the status graph is unconstrained.
// Entering DONE or ARCHIVED stamps doneAt, any other status clears it.
func (s *Service) SetTaskStatus(ctx context.Context, id string, status TaskStatus) (Task, error) {
	if err := s.ready(opUpdateTask); err != nil {
		return Task{}, err
	}
	status, err := ParseTaskStatus(string(status))
	if err != nil {
		return Task{}, err
	}
	now := s.Now()
	updates := map[string]any{"status": string(status), "updated_at": now, "done_at": nil}
	if status == TaskDone || status == TaskArchived {
		updates["done_at"] = now
	}
	return s.updateTask(ctx, opUpdateTask, id, updates)
}

// ToggleBacklogTask archives a backlog task (done) or returns it to the backlog.
func (s *Service) ToggleBacklogTask(ctx context.Context, id string, done bool) (Task, error) {
	status := TaskBacklog
	if done {
		status = TaskArchived
	}
	return s.SetTaskStatus(ctx, id, status)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.ready(opDeleteTask); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Task{})
	if result.Error != nil {
		return s.storageError(opDeleteTask, "delete_failed", result.Error, zap.String("task_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) updateTask(ctx context.Context, operation, id string, updates map[string]any) (Task, error) {
	var task Task
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateAndReload(tx, &task, id, updates)
	})
	if txErr != nil {
		return Task{}, s.passThrough(operation, "update_failed", txErr, zap.String("task_id", id))
	}
	return task, nil
}

// updateAndReload applies updates to the row with id and reads it back into dest.
func updateAndReload(tx *gorm.DB, dest any, id string, updates map[string]any) error {
	result := tx.Model(dest).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return tx.Where("id = ?", id).Take(dest).Error
}
