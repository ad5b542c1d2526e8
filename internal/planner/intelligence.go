package planner

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dailyBriefID keys the singleton brief row.
const dailyBriefID = "daily-brief"

// AddSignal records a piece of external input. An empty source is stored as NULL.
func (s *Service) AddSignal(ctx context.Context, text, source string) (Signal, error) {
	if err := s.ready(opAddSignal); err != nil {
		return Signal{}, err
	}
	cleanText := strings.TrimSpace(text)
	if cleanText == "" {
		return Signal{}, invalidField("text", "must not be empty")
	}
	id, err := s.newID(opAddSignal)
	if err != nil {
		return Signal{}, err
	}
	signal := Signal{ID: id, Text: cleanText, CreatedAt: s.Now()}
	if cleanSource := strings.TrimSpace(source); cleanSource != "" {
		signal.Source = &cleanSource
	}
	if err := s.db.WithContext(ctx).Create(&signal).Error; err != nil {
		return Signal{}, s.storageError(opAddSignal, "insert_failed", err)
	}
	return signal, nil
}

// ListSignals returns signals, newest first.
func (s *Service) ListSignals(ctx context.Context) ([]Signal, error) {
	if err := s.ready(opListSignals); err != nil {
		return nil, err
	}
	var signals []Signal
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&signals).Error; err != nil {
		return nil, s.storageError(opListSignals, "query_failed", err)
	}
	return signals, nil
}

// DeleteSignal removes a signal.
func (s *Service) DeleteSignal(ctx context.Context, id string) error {
	if err := s.ready(opDeleteSignal); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Signal{})
	if result.Error != nil {
		return s.storageError(opDeleteSignal, "delete_failed", result.Error, zap.String("signal_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDossier records a knowledge-base entry; an empty type defaults to TOPIC.
func (s *Service) AddDossier(ctx context.Context, name string, dossierType DossierType, note string) (Dossier, error) {
	if err := s.ready(opAddDossier); err != nil {
		return Dossier{}, err
	}
	cleanName, err := requireTitle("name", name)
	if err != nil {
		return Dossier{}, err
	}
	if dossierType == "" {
		dossierType = DossierTopic
	}
	dossierType, err = ParseDossierType(string(dossierType))
	if err != nil {
		return Dossier{}, err
	}
	id, err := s.newID(opAddDossier)
	if err != nil {
		return Dossier{}, err
	}
	now := s.Now()
	dossier := Dossier{
		ID:        id,
		Name:      cleanName,
		Type:      dossierType,
		Note:      strings.TrimSpace(note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&dossier).Error; err != nil {
		return Dossier{}, s.storageError(opAddDossier, "insert_failed", err)
	}
	return dossier, nil
}

// ListDossiers returns dossiers, most recently updated first.
func (s *Service) ListDossiers(ctx context.Context) ([]Dossier, error) {
	if err := s.ready(opListDossiers); err != nil {
		return nil, err
	}
	var dossiers []Dossier
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&dossiers).Error; err != nil {
		return nil, s.storageError(opListDossiers, "query_failed", err)
	}
	return dossiers, nil
}

// DeleteDossier removes a dossier.
func (s *Service) DeleteDossier(ctx context.Context, id string) error {
	if err := s.ready(opDeleteDossier); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Dossier{})
	if result.Error != nil {
		return s.storageError(opDeleteDossier, "delete_failed", result.Error, zap.String("dossier_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDailyBrief returns the singleton brief and whether one exists.
func (s *Service) GetDailyBrief(ctx context.Context) (DailyBrief, bool, error) {
	if err := s.ready(opGetBrief); err != nil {
		return DailyBrief{}, false, err
	}
	var brief DailyBrief
	err := s.db.WithContext(ctx).Order("updated_at DESC").Take(&brief).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DailyBrief{}, false, nil
	}
	if err != nil {
		return DailyBrief{}, false, s.storageError(opGetBrief, "query_failed", err)
	}
	return brief, true, nil
}

// SaveDailyBrief creates the singleton brief on first use and updates that same row afterwards.
// First saves upsert on a fixed id, so racing callers converge on one row.
func (s *Service) SaveDailyBrief(ctx context.Context, content string) (DailyBrief, error) {
	if err := s.ready(opSaveBrief); err != nil {
		return DailyBrief{}, err
	}

	var brief DailyBrief
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("updated_at DESC").Take(&brief).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			brief = DailyBrief{ID: dailyBriefID, Content: content, UpdatedAt: s.Now()}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
			}).Create(&brief).Error
		case err != nil:
			return err
		default:
			brief.Content = content
			brief.UpdatedAt = s.Now()
			return tx.Save(&brief).Error
		}
	})
	if txErr != nil {
		return DailyBrief{}, s.passThrough(opSaveBrief, "upsert_failed", txErr)
	}
	return brief, nil
}
