package domain

import (
	"fmt"
	"strings"

	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// ScopeKind identifies how wide a baseline reaches.
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeTaskType ScopeKind = "task_type"
	ScopeTask     ScopeKind = "task"
)

// Scope selects which completed instances feed a baseline.
type Scope struct {
	Kind     ScopeKind          `json:"kind"`
	TaskType telemetry.TaskType `json:"task_type,omitempty"`
	TaskID   uuid.UUID          `json:"task_id,omitempty"`
}

// GlobalScope covers every instance.
func GlobalScope() Scope { return Scope{Kind: ScopeGlobal} }

// TaskTypeScope covers instances of tasks with the given type.
func TaskTypeScope(t telemetry.TaskType) Scope { return Scope{Kind: ScopeTaskType, TaskType: t} }

// TaskScope covers instances of a single task.
func TaskScope(id uuid.UUID) Scope { return Scope{Kind: ScopeTask, TaskID: id} }

// ParseScope parses "global", "type:<task_type>" or "task:<uuid>".
func ParseScope(value string) (Scope, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == string(ScopeGlobal) {
		return GlobalScope(), nil
	}
	kind, arg, ok := strings.Cut(value, ":")
	if !ok || arg == "" {
		return Scope{}, NewConfigurationError("scope", value, ErrUnknownScope)
	}
	switch kind {
	case "type", string(ScopeTaskType):
		if !telemetry.IsKnownTaskType(arg) {
			return Scope{}, NewConfigurationError("scope", value, ErrUnknownScope)
		}
		return TaskTypeScope(telemetry.TaskType(arg)), nil
	case string(ScopeTask), "task_id":
		id, err := uuid.Parse(arg)
		if err != nil {
			return Scope{}, NewConfigurationError("scope", value, ErrUnknownScope)
		}
		return TaskScope(id), nil
	default:
		return Scope{}, NewConfigurationError("scope", value, ErrUnknownScope)
	}
}

// Validate checks that the scope is well formed.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeGlobal:
		return nil
	case ScopeTaskType:
		if !telemetry.IsKnownTaskType(string(s.TaskType)) {
			return NewConfigurationError("scope", s.String(), ErrUnknownScope)
		}
		return nil
	case ScopeTask:
		if s.TaskID == uuid.Nil {
			return NewConfigurationError("scope", s.String(), ErrUnknownScope)
		}
		return nil
	default:
		return NewConfigurationError("scope", string(s.Kind), ErrUnknownScope)
	}
}

// String renders the scope in the same syntax ParseScope accepts.
func (s Scope) String() string {
	switch s.Kind {
	case ScopeTaskType:
		return fmt.Sprintf("type:%s", s.TaskType)
	case ScopeTask:
		return fmt.Sprintf("task:%s", s.TaskID)
	case ScopeGlobal:
		return string(ScopeGlobal)
	default:
		return string(s.Kind)
	}
}
