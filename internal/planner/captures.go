package planner

import (
	"context"

	"go.uber.org/zap"
)

// AddCapture records a new backlog inbox item.
func (s *Service) AddCapture(ctx context.Context, title string) (Capture, error) {
	if err := s.ready(opAddCapture); err != nil {
		return Capture{}, err
	}
	cleanTitle, err := requireTitle("title", title)
	if err != nil {
		return Capture{}, err
	}
	id, err := s.newID(opAddCapture)
	if err != nil {
		return Capture{}, err
	}
	capture := Capture{ID: id, Title: cleanTitle, CreatedAt: s.Now()}
	if err := s.db.WithContext(ctx).Create(&capture).Error; err != nil {
		return Capture{}, s.storageError(opAddCapture, "insert_failed", err)
	}
	return capture, nil
}

// ListCaptures returns the backlog, newest first.
func (s *Service) ListCaptures(ctx context.Context) ([]Capture, error) {
	if err := s.ready(opListCaptures); err != nil {
		return nil, err
	}
	var captures []Capture
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&captures).Error; err != nil {
		return nil, s.storageError(opListCaptures, "query_failed", err)
	}
	return captures, nil
}

// DeleteCapture clears a backlog item.
func (s *Service) DeleteCapture(ctx context.Context, id string) error {
	if err := s.ready(opDeleteCapture); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Capture{})
	if result.Error != nil {
		return s.storageError(opDeleteCapture, "delete_failed", result.Error, zap.String("capture_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
