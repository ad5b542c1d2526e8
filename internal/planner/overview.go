package planner

import (
	"context"
	"time"
)

const (
	overviewTopActions = 5
	overviewHorizon    = 7 * 24 * time.Hour
)

// Overview summarises the board for the control room.
type Overview struct {
	BacklogCount    int64
	ActiveNextCount int64
	Capacity        int
	UpcomingEvents  int64
	TopNextActions  []NextAction
	QueueAtCapacity bool
	GeneratedAt     time.Time
}

// Overview gathers the counts shown on the control room page.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if err := s.ready(opOverview); err != nil {
		return Overview{}, err
	}
	now := s.Now()

	var backlogCount int64
	if err := s.db.WithContext(ctx).Model(&Capture{}).Count(&backlogCount).Error; err != nil {
		return Overview{}, s.storageError(opOverview, "backlog_count_failed", err)
	}
	activeCount, err := s.CountActiveNextActions(ctx)
	if err != nil {
		return Overview{}, err
	}
	upcoming, err := s.CountEventsBetween(ctx, now, now.Add(overviewHorizon))
	if err != nil {
		return Overview{}, err
	}
	top, err := s.ListActiveNextActions(ctx, overviewTopActions)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		BacklogCount:    backlogCount,
		ActiveNextCount: activeCount,
		Capacity:        NextActionCapacity,
		UpcomingEvents:  upcoming,
		TopNextActions:  top,
		QueueAtCapacity: activeCount >= NextActionCapacity,
		GeneratedAt:     now,
	}, nil
}
