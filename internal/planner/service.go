package planner

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var noOpLogger = zap.NewNop()

const (
	opServiceNew       = "planner.service.new"
	opAddCapture       = "planner.add_capture"
	opListCaptures     = "planner.list_captures"
	opDeleteCapture    = "planner.delete_capture"
	opAddNextAction    = "planner.add_next_action"
	opListNextActions  = "planner.list_next_actions"
	opSetNextStatus    = "planner.set_next_action_status"
	opDeleteNextAction = "planner.delete_next_action"
	opPromote          = "planner.promote_capture"
	opConvert          = "planner.convert_capture"
	opDemote           = "planner.demote_next_action"
	opCreateTask       = "planner.create_task"
	opUpdateTask       = "planner.update_task"
	opListTasks        = "planner.list_tasks"
	opDeleteTask       = "planner.delete_task"
	opCreateEvent      = "planner.create_event"
	opUpdateEvent      = "planner.update_event"
	opListEvents       = "planner.list_events"
	opDeleteEvent      = "planner.delete_event"
	opReschedule       = "planner.reschedule_event"
	opAddPerson        = "planner.add_person"
	opUpdatePerson     = "planner.update_person"
	opListPeople       = "planner.list_people"
	opDeletePerson     = "planner.delete_person"
	opAddSignal        = "planner.add_signal"
	opListSignals      = "planner.list_signals"
	opDeleteSignal     = "planner.delete_signal"
	opAddDossier       = "planner.add_dossier"
	opListDossiers     = "planner.list_dossiers"
	opDeleteDossier    = "planner.delete_dossier"
	opSaveBrief        = "planner.save_daily_brief"
	opGetBrief         = "planner.get_daily_brief"
	opOverview         = "planner.overview"
)

// ServiceConfig describes the dependencies of the mutation layer.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns every read and write against the dashboard store.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Now returns the service clock in UTC.
func (s *Service) Now() time.Time {
	return s.clock().UTC()
}

// ready guards against zero-value services so handlers receive a coded error instead of a nil dereference.
func (s *Service) ready(operation string) error {
	if s == nil || s.db == nil {
		s.logError(operation, "missing_database", errMissingDatabase)
		return newServiceError(operation, "missing_database", errMissingDatabase)
	}
	if s.idProvider == nil {
		s.logError(operation, "missing_id_provider", errMissingIDProvider)
		return newServiceError(operation, "missing_id_provider", errMissingIDProvider)
	}
	return nil
}

func (s *Service) newID(operation string) (string, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(operation, "id_generation_failed", err)
		return "", newServiceError(operation, "id_generation_failed", err)
	}
	return id, nil
}

// storageError logs and wraps a gorm failure, translating missing rows into ErrNotFound.
func (s *Service) storageError(operation, reason string, err error, fields ...zap.Field) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	s.logError(operation, reason, err, fields...)
	return newServiceError(operation, reason, err)
}

// passThrough returns domain errors untouched and wraps everything else.
func (s *Service) passThrough(operation, reason string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	return s.storageError(operation, reason, err, fields...)
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("planner service error", attrs...)
}
