package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply     string
	err       error
	gotSystem string
	gotUser   string
	gotKey    string
}

func (s *stubCompleter) Complete(_ context.Context, system, user, apiKey string) (string, error) {
	s.gotSystem = system
	s.gotUser = user
	s.gotKey = apiKey
	return s.reply, s.err
}

type recordingPlanner struct {
	calls       []string
	taskTitle   string
	taskStatus  planner.TaskStatus
	statusID    string
	eventInput  planner.EventInput
	reschedule  planner.RescheduleRequest
	rescheduled planner.Event
	err         error
}

func (p *recordingPlanner) CreateTask(_ context.Context, title string, status planner.TaskStatus) (planner.Task, error) {
	p.calls = append(p.calls, "CreateTask")
	p.taskTitle, p.taskStatus = title, status
	return planner.Task{ID: "task-1", Title: title, Status: planner.TaskBacklog}, p.err
}

func (p *recordingPlanner) SetTaskStatus(_ context.Context, id string, status planner.TaskStatus) (planner.Task, error) {
	p.calls = append(p.calls, "SetTaskStatus")
	p.statusID, p.taskStatus = id, status
	if p.err != nil {
		return planner.Task{}, p.err
	}
	return planner.Task{ID: id, Status: status}, nil
}

func (p *recordingPlanner) CreateEvent(_ context.Context, input planner.EventInput) (planner.Event, error) {
	p.calls = append(p.calls, "CreateEvent")
	p.eventInput = input
	return planner.Event{ID: "event-1", Type: input.Type, Title: input.Title, StartAt: input.StartAt, EndAt: input.EndAt}, p.err
}

func (p *recordingPlanner) RescheduleByPerson(_ context.Context, request planner.RescheduleRequest) (planner.Event, error) {
	p.calls = append(p.calls, "RescheduleByPerson")
	p.reschedule = request
	if p.err != nil {
		return planner.Event{}, p.err
	}
	return p.rescheduled, nil
}

func newTestGateway(completer Completer, target Planner) *Gateway {
	return New(Config{Completer: completer, Planner: target})
}

func TestExecuteCreateEventDefaultsToThirtyMinutes(t *testing.T) {
	completer := &stubCompleter{reply: `{"type":"create_event","eventType":"CALL","title":"Sync","startAtISO":"2024-01-01T10:00:00Z"}`}
	target := &recordingPlanner{}
	gateway := newTestGateway(completer, target)

	result, err := gateway.Execute(context.Background(), "  call Sync at 10  ", "")
	require.NoError(t, err)

	assert.Equal(t, SystemPrompt, completer.gotSystem)
	assert.Equal(t, "call Sync at 10", completer.gotUser)
	require.NotNil(t, result.Event)
	assert.Equal(t, planner.EventCall, target.eventInput.Type)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), target.eventInput.StartAt)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), target.eventInput.EndAt)
	assert.Equal(t, TypeCreateEvent, result.Executed.Type())
}

func TestExecuteCreateTaskUsesDefaultStatus(t *testing.T) {
	target := &recordingPlanner{}
	gateway := newTestGateway(&stubCompleter{reply: `{"type":"create_task","title":"Write report"}`}, target)

	result, err := gateway.Execute(context.Background(), "remind me to write the report", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"CreateTask"}, target.calls)
	assert.Equal(t, "Write report", target.taskTitle)
	assert.Equal(t, planner.TaskStatus(""), target.taskStatus)
	require.NotNil(t, result.Task)
	assert.Equal(t, "task-1", result.Task.ID)
}

func TestExecutePassesOperatorKey(t *testing.T) {
	completer := &stubCompleter{reply: `{"type":"create_task","title":"x"}`}
	gateway := newTestGateway(completer, &recordingPlanner{})

	_, err := gateway.Execute(context.Background(), "x", "sk-operator")
	require.NoError(t, err)
	assert.Equal(t, "sk-operator", completer.gotKey)
}

func TestExecuteRescheduleBuildsRequest(t *testing.T) {
	target := &recordingPlanner{rescheduled: planner.Event{ID: "event-9"}}
	reply := `{"type":"reschedule_event","person":"Ann","fromISO":"2024-01-01T00:00:00Z","toISO":"2024-01-03T15:00:00Z","durationMinutes":45}`
	gateway := newTestGateway(&stubCompleter{reply: reply}, target)

	result, err := gateway.Execute(context.Background(), "move my call with Ann", "")
	require.NoError(t, err)

	assert.Equal(t, "Ann", target.reschedule.Person)
	assert.Equal(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), target.reschedule.To)
	assert.Equal(t, 45*time.Minute, target.reschedule.Duration)
	require.NotNil(t, target.reschedule.From)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *target.reschedule.From)
	assert.Equal(t, "event-9", result.Event.ID)
}

func TestExecuteValidationFailuresNeverReachPlanner(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		check func(t *testing.T, err error)
	}{
		{
			name:  "malformed",
			reply: "Sure, I scheduled that.",
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrMalformedReply) },
		},
		{
			name:  "schema",
			reply: `{"type":"create_task"}`,
			check: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				assert.ErrorAs(t, err, &schemaErr)
			},
		},
		{
			name:  "invalid start",
			reply: `{"type":"create_event","title":"Sync","startAtISO":"next tuesday"}`,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidDate) },
		},
		{
			name:  "invalid end",
			reply: `{"type":"create_event","title":"Sync","startAtISO":"2024-01-01T10:00:00Z","endAtISO":"soon"}`,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidDate) },
		},
		{
			name:  "invalid reschedule target",
			reply: `{"type":"reschedule_event","person":"Ann","toISO":"whenever"}`,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidDate) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &recordingPlanner{}
			gateway := newTestGateway(&stubCompleter{reply: tt.reply}, target)

			_, err := gateway.Execute(context.Background(), "do something", "")
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, target.calls)
		})
	}
}

func TestExecuteKeepsRawReplyOnDecodeFailure(t *testing.T) {
	gateway := newTestGateway(&stubCompleter{reply: "not json"}, &recordingPlanner{})

	_, err := gateway.Execute(context.Background(), "x", "")
	var replyErr *ReplyError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, "not json", replyErr.Raw)
}

func TestExecuteSurfacesPlannerErrors(t *testing.T) {
	target := &recordingPlanner{err: planner.ErrNotFound}
	gateway := newTestGateway(&stubCompleter{reply: `{"type":"reschedule_event","person":"Zed","toISO":"2024-01-03T15:00:00Z"}`}, target)

	_, err := gateway.Execute(context.Background(), "move Zed", "")
	assert.ErrorIs(t, err, planner.ErrNotFound)
}

func TestExecuteRejectsBlankTextAndDisabledGateway(t *testing.T) {
	_, err := newTestGateway(&stubCompleter{}, &recordingPlanner{}).Execute(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrMissingText)

	_, err = New(Config{Planner: &recordingPlanner{}}).Execute(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}

func TestExecuteProviderFailure(t *testing.T) {
	providerErr := &ProviderError{StatusCode: 500, Message: "upstream", Err: errors.New("boom")}
	target := &recordingPlanner{}
	gateway := newTestGateway(&stubCompleter{err: providerErr}, target)

	_, err := gateway.Execute(context.Background(), "x", "")
	var asProvider *ProviderError
	require.ErrorAs(t, err, &asProvider)
	assert.Equal(t, 500, asProvider.StatusCode)
	assert.Empty(t, target.calls)
}
