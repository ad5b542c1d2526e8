package gateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommandVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Command
	}{
		{
			name: "create task",
			raw:  `{"type":"create_task","title":"Write report"}`,
			want: CreateTask{Title: "Write report"},
		},
		{
			name: "update task status",
			raw:  `{"type":"update_task_status","id":"t-1","status":"ACTIVE"}`,
			want: UpdateTaskStatus{ID: "t-1", Status: planner.TaskActive},
		},
		{
			name: "create event with defaults",
			raw:  `{"type":"create_event","title":"Sync","startAtISO":"2024-01-01T10:00:00Z"}`,
			want: CreateEvent{EventType: planner.EventMeeting, Title: "Sync", StartAtISO: "2024-01-01T10:00:00Z"},
		},
		{
			name: "create call",
			raw:  `{"type":"create_event","eventType":"CALL","title":"Sync","person":"Ann","startAtISO":"2024-01-01T10:00:00Z","endAtISO":"2024-01-01T11:00:00Z"}`,
			want: CreateEvent{EventType: planner.EventCall, Title: "Sync", Person: "Ann", StartAtISO: "2024-01-01T10:00:00Z", EndAtISO: "2024-01-01T11:00:00Z"},
		},
		{
			name: "reschedule with default duration",
			raw:  `{"type":"reschedule_event","person":"Ann","toISO":"2024-01-02T09:00:00Z"}`,
			want: RescheduleEvent{Person: "Ann", ToISO: "2024-01-02T09:00:00Z", DurationMinutes: 30},
		},
		{
			name: "reschedule for a full week",
			raw:  `{"type":"reschedule_event","person":"Ann","toISO":"2024-01-02T09:00:00Z","durationMinutes":10080}`,
			want: RescheduleEvent{Person: "Ann", ToISO: "2024-01-02T09:00:00Z", DurationMinutes: 10080},
		},
		{
			name: "extra keys are ignored",
			raw:  ` {"type":"create_task","title":"Plan","confidence":0.9} `,
			want: CreateTask{Title: "Plan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, err := DecodeCommand(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, command)
		})
	}
}

func TestDecodeCommandMalformed(t *testing.T) {
	for _, raw := range []string{"", "Sure! Here you go", "```json\n{}\n```", "[1,2]", "null"} {
		_, err := DecodeCommand(raw)
		assert.ErrorIs(t, err, ErrMalformedReply, "raw %q", raw)
	}
}

func TestDecodeCommandSchemaIssues(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		paths []string
	}{
		{name: "missing type", raw: `{"title":"x"}`, paths: []string{"type"}},
		{name: "unknown type", raw: `{"type":"delete_everything"}`, paths: []string{"type"}},
		{name: "empty title", raw: `{"type":"create_task","title":"  "}`, paths: []string{"title"}},
		{name: "bad status", raw: `{"type":"update_task_status","id":"t","status":"LATER"}`, paths: []string{"status"}},
		{name: "bad event type", raw: `{"type":"create_event","eventType":"LUNCH","title":"x","startAtISO":"2024-01-01"}`, paths: []string{"eventType"}},
		{name: "missing fields", raw: `{"type":"reschedule_event"}`, paths: []string{"person", "toISO"}},
		{name: "wrong duration type", raw: `{"type":"reschedule_event","person":"a","toISO":"2024-01-01","durationMinutes":"30"}`, paths: []string{"durationMinutes"}},
		{name: "zero duration", raw: `{"type":"reschedule_event","person":"a","toISO":"2024-01-01","durationMinutes":0}`, paths: []string{"durationMinutes"}},
		{name: "duration over a week", raw: `{"type":"reschedule_event","person":"a","toISO":"2024-01-01","durationMinutes":10081}`, paths: []string{"durationMinutes"}},
		{name: "overflowing duration", raw: `{"type":"reschedule_event","person":"a","toISO":"2024-01-01","durationMinutes":1e300}`, paths: []string{"durationMinutes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand(tt.raw)
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			paths := make([]string, 0, len(schemaErr.Issues))
			for _, issue := range schemaErr.Issues {
				paths = append(paths, issue.Path)
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestCommandMarshalIncludesType(t *testing.T) {
	payload, err := json.Marshal(RescheduleEvent{Person: "Ann", ToISO: "2024-01-02T09:00:00Z", DurationMinutes: 45})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"reschedule_event","person":"Ann","toISO":"2024-01-02T09:00:00Z","durationMinutes":45}`, string(payload))
}
