// Package command turns terminal input into planner mutations or forwards it to the configured AI.
package command

import "strings"

// Kind names the offline command a prefix maps to.
type Kind string

const (
	KindBacklog Kind = "BACKLOG"
	KindNext    Kind = "NEXT"
	KindTask    Kind = "TASK"
	KindEvent   Kind = "EVENT"
)

// Intent is a parsed offline command.
type Intent struct {
	Kind    Kind
	Payload string
}

var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{prefix: "add backlog:", kind: KindBacklog},
	{prefix: "add next:", kind: KindNext},
	{prefix: "add task:", kind: KindTask},
	{prefix: "add event:", kind: KindEvent},
}

// Parse matches the trimmed input against the offline prefixes, ignoring case.
// The payload keeps its original casing.
func Parse(input string) (Intent, bool) {
	trimmed := strings.TrimSpace(input)
	for _, candidate := range prefixes {
		if len(trimmed) < len(candidate.prefix) {
			continue
		}
		if !strings.EqualFold(trimmed[:len(candidate.prefix)], candidate.prefix) {
			continue
		}
		return Intent{
			Kind:    candidate.kind,
			Payload: strings.TrimSpace(trimmed[len(candidate.prefix):]),
		}, true
	}
	return Intent{}, false
}
