package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestPromoteCaptureMovesItemIntoQueue(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	capture, err := service.AddCapture(ctx, "  ship build  ")
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	if capture.Title != "ship build" {
		t.Fatalf("expected trimmed title, got %q", capture.Title)
	}

	before, err := service.CountActiveNextActions(ctx)
	if err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}

	action, err := service.PromoteCapture(ctx, capture.ID)
	if err != nil {
		t.Fatalf("unexpected promote error: %v", err)
	}
	if action.Title != "ship build" || action.Status != NextActionQueued || action.Done {
		t.Fatalf("unexpected promoted action: %+v", action)
	}

	after, err := service.CountActiveNextActions(ctx)
	if err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}
	if after != before+1 {
		t.Fatalf("expected active count to grow by one, got %d -> %d", before, after)
	}
	if remaining := countRows(t, db, &Capture{}, "id = ?", capture.ID); remaining != 0 {
		t.Fatalf("expected capture to be removed, found %d", remaining)
	}
}

func TestPromoteCaptureFailsAtCapacity(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	fillQueue(t, service, NextActionCapacity)
	capture, err := service.AddCapture(ctx, "overflow")
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}

	_, err = service.PromoteCapture(ctx, capture.ID)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if remaining := countRows(t, db, &Capture{}, "id = ?", capture.ID); remaining != 1 {
		t.Fatalf("expected capture to survive a rejected promotion")
	}
	if active := countRows(t, db, &NextAction{}, "done = ?", false); active != NextActionCapacity {
		t.Fatalf("expected %d active actions, got %d", NextActionCapacity, active)
	}
}

func TestPromoteCaptureIgnoresDoneActionsInCapacity(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	actions := fillQueue(t, service, NextActionCapacity)
	if _, err := service.SetNextActionStatus(ctx, actions[0].ID, NextActionDone); err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	capture, err := service.AddCapture(ctx, "fits now")
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	if _, err := service.PromoteCapture(ctx, capture.ID); err != nil {
		t.Fatalf("expected promotion to succeed with a done slot, got %v", err)
	}
}

func TestPromoteCaptureMissingReturnsNotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.PromoteCapture(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConvertCaptureCreatesPlannedTask(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	capture, err := service.AddCapture(ctx, "review project")
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	task, err := service.ConvertCapture(ctx, capture.ID)
	if err != nil {
		t.Fatalf("unexpected convert error: %v", err)
	}
	if task.Status != TaskPlanned || task.Title != "review project" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if remaining := countRows(t, db, &Capture{}, ""); remaining != 0 {
		t.Fatalf("expected backlog to be empty, found %d", remaining)
	}
	if tasks := countRows(t, db, &Task{}, "status = ?", string(TaskPlanned)); tasks != 1 {
		t.Fatalf("expected one planned task, found %d", tasks)
	}
}

func TestDemoteNextActionSucceedsFromAnyStatus(t *testing.T) {
	statuses := []NextActionStatus{NextActionQueued, NextActionDoing, NextActionDone}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			service, db := newTestService(t)
			ctx := context.Background()

			action, err := service.AddNextAction(ctx, "follow up")
			if err != nil {
				t.Fatalf("unexpected add error: %v", err)
			}
			if _, err := service.SetNextActionStatus(ctx, action.ID, status); err != nil {
				t.Fatalf("unexpected status error: %v", err)
			}

			capture, err := service.DemoteNextAction(ctx, action.ID)
			if err != nil {
				t.Fatalf("unexpected demote error: %v", err)
			}
			if capture.Title != "follow up" {
				t.Fatalf("unexpected capture title %q", capture.Title)
			}
			if captures := countRows(t, db, &Capture{}, ""); captures != 1 {
				t.Fatalf("expected exactly one capture, found %d", captures)
			}
			if remaining := countRows(t, db, &NextAction{}, "id = ?", action.ID); remaining != 0 {
				t.Fatalf("expected next action to be removed")
			}
		})
	}
}

func TestAddNextActionRejectsWhenFull(t *testing.T) {
	service, db := newTestService(t)

	fillQueue(t, service, NextActionCapacity)
	_, err := service.AddNextAction(context.Background(), "one too many")
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if total := countRows(t, db, &NextAction{}, ""); total != NextActionCapacity {
		t.Fatalf("expected %d rows, found %d", NextActionCapacity, total)
	}
}

func TestSetNextActionStatusKeepsDoneInStep(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	action, err := service.AddNextAction(ctx, "write spec")
	if err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}

	testCases := []struct {
		status   NextActionStatus
		wantDone bool
	}{
		{status: NextActionDoing, wantDone: false},
		{status: NextActionDone, wantDone: true},
		{status: NextActionQueued, wantDone: false},
	}
	for _, testCase := range testCases {
		updated, err := service.SetNextActionStatus(ctx, action.ID, testCase.status)
		if err != nil {
			t.Fatalf("unexpected error setting %s: %v", testCase.status, err)
		}
		if updated.Status != testCase.status || updated.Done != testCase.wantDone {
			t.Fatalf("expected %s/done=%v, got %s/done=%v", testCase.status, testCase.wantDone, updated.Status, updated.Done)
		}
	}
}

func TestReopeningDoneActionRespectsCapacity(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	actions := fillQueue(t, service, NextActionCapacity)
	if _, err := service.ToggleNextAction(ctx, actions[0].ID, true); err != nil {
		t.Fatalf("unexpected toggle error: %v", err)
	}
	if _, err := service.AddNextAction(ctx, "takes the freed slot"); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}

	_, err := service.ToggleNextAction(ctx, actions[0].ID, false)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull when re-opening into a full queue, got %v", err)
	}
	stored, err := service.ListNextActions(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	for _, action := range stored {
		if action.ID == actions[0].ID && (!action.Done || action.Status != NextActionDone) {
			t.Fatalf("expected rejected re-open to leave the action done, got %+v", action)
		}
	}
}

func TestSetNextActionStatusRejectsUnknownStatus(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.SetNextActionStatus(context.Background(), "any", NextActionStatus("LATER"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConcurrentPromotionsStopAtCapacity(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	fillQueue(t, service, 5)
	captures := make([]Capture, 0, 20)
	for index := 0; index < 20; index++ {
		capture, err := service.AddCapture(ctx, fmt.Sprintf("capture %d", index))
		if err != nil {
			t.Fatalf("failed to seed capture %d: %v", index, err)
		}
		captures = append(captures, capture)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		promoted int
		rejected int
	)
	for _, capture := range captures {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := service.PromoteCapture(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				promoted++
			case errors.Is(err, ErrQueueFull):
				rejected++
			default:
				t.Errorf("unexpected promote error: %v", err)
			}
		}(capture.ID)
	}
	wg.Wait()

	if promoted != NextActionCapacity-5 || rejected != 20-promoted {
		t.Fatalf("expected %d promotions and the rest rejected, got %d promoted and %d rejected", NextActionCapacity-5, promoted, rejected)
	}
	if active := countRows(t, db, &NextAction{}, "done = ?", false); active != NextActionCapacity {
		t.Fatalf("expected %d active actions, got %d", NextActionCapacity, active)
	}
	if remaining := countRows(t, db, &Capture{}, ""); remaining != int64(20-promoted) {
		t.Fatalf("expected rejected captures to stay in the backlog, found %d", remaining)
	}
}
