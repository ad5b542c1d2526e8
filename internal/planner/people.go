package planner

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PersonInput describes a new or edited contact.
type PersonInput struct {
	Name         string
	Category     Category
	Context      string
	Notes        string
	LastContact  *time.Time
	NextFollowUp *time.Time
}

func (input PersonInput) normalized() (PersonInput, error) {
	name, err := requireTitle("name", input.Name)
	if err != nil {
		return PersonInput{}, err
	}
	category := input.Category
	if category == "" {
		category = CategoryBusiness
	}
	category, err = ParseCategory(string(category))
	if err != nil {
		return PersonInput{}, err
	}
	input.Name = name
	input.Category = category
	input.Context = strings.TrimSpace(input.Context)
	input.Notes = strings.TrimSpace(input.Notes)
	return input, nil
}

// AddPerson records a new contact.
func (s *Service) AddPerson(ctx context.Context, input PersonInput) (Person, error) {
	if err := s.ready(opAddPerson); err != nil {
		return Person{}, err
	}
	clean, err := input.normalized()
	if err != nil {
		return Person{}, err
	}
	id, err := s.newID(opAddPerson)
	if err != nil {
		return Person{}, err
	}
	now := s.Now()
	person := Person{
		ID:           id,
		Name:         clean.Name,
		Category:     clean.Category,
		Context:      clean.Context,
		Notes:        clean.Notes,
		LastContact:  utcPointer(clean.LastContact),
		NextFollowUp: utcPointer(clean.NextFollowUp),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&person).Error; err != nil {
		return Person{}, s.storageError(opAddPerson, "insert_failed", err)
	}
	return person, nil
}

// UpdatePerson replaces the descriptive fields of a contact. Contact dates are left untouched.
func (s *Service) UpdatePerson(ctx context.Context, id string, input PersonInput) (Person, error) {
	if err := s.ready(opUpdatePerson); err != nil {
		return Person{}, err
	}
	clean, err := input.normalized()
	if err != nil {
		return Person{}, err
	}
	updates := map[string]any{
		"name":       clean.Name,
		"category":   string(clean.Category),
		"context":    clean.Context,
		"notes":      clean.Notes,
		"updated_at": s.Now(),
	}
	return s.updatePerson(ctx, id, updates)
}

// MarkContactedToday stamps lastContact with the current time.
func (s *Service) MarkContactedToday(ctx context.Context, id string) (Person, error) {
	if err := s.ready(opUpdatePerson); err != nil {
		return Person{}, err
	}
	now := s.Now()
	return s.updatePerson(ctx, id, map[string]any{"last_contact": now, "updated_at": now})
}

// ListPeople returns contacts, most recently updated first.
func (s *Service) ListPeople(ctx context.Context) ([]Person, error) {
	if err := s.ready(opListPeople); err != nil {
		return nil, err
	}
	var people []Person
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&people).Error; err != nil {
		return nil, s.storageError(opListPeople, "query_failed", err)
	}
	return people, nil
}

// DeletePerson removes a contact.
func (s *Service) DeletePerson(ctx context.Context, id string) error {
	if err := s.ready(opDeletePerson); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Person{})
	if result.Error != nil {
		return s.storageError(opDeletePerson, "delete_failed", result.Error, zap.String("person_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) updatePerson(ctx context.Context, id string, updates map[string]any) (Person, error) {
	var person Person
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateAndReload(tx, &person, id, updates)
	})
	if txErr != nil {
		return Person{}, s.passThrough(opUpdatePerson, "update_failed", txErr, zap.String("person_id", id))
	}
	return person, nil
}

func utcPointer(value *time.Time) *time.Time {
	if value == nil || value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}
