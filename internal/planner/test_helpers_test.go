package planner

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type sequentialIDGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *sequentialIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%03d", g.next), nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "planner.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := &testClock{now: testNow}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      clock.Now,
		IDProvider: &sequentialIDGenerator{},
	})
	if err != nil {
		t.Fatalf("failed to construct planner service: %v", err)
	}
	return service, db
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	statement := db.Model(model)
	if query != "" {
		statement = statement.Where(query, args...)
	}
	if err := statement.Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func fillQueue(t *testing.T, service *Service, count int) []NextAction {
	t.Helper()
	actions := make([]NextAction, 0, count)
	for index := 0; index < count; index++ {
		action, err := service.AddNextAction(t.Context(), fmt.Sprintf("action %d", index))
		if err != nil {
			t.Fatalf("failed to seed next action %d: %v", index, err)
		}
		actions = append(actions, action)
	}
	return actions
}
