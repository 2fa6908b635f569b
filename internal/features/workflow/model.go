package workflow

import (
	"encoding/json"
	"time"
)

type TaskType string

const (
	TaskManual TaskType = "MANUAL"
	TaskRule   TaskType = "RULE"
	TaskTimer  TaskType = "TIMER"
	TaskAPI    TaskType = "API"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskManual, TaskRule, TaskTimer, TaskAPI:
		return true
	}
	return false
}

// Definition is a named, ordered set of steps a claim moves through.
type Definition struct {
	ID          string    `json:"workflow_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Steps       []Step    `json:"steps,omitempty"`
}

// Step is one unit of work. Configuration holds the stored options blob;
// ParseStepConfig turns it into the typed variant for TaskType.
type Step struct {
	ID            string          `json:"step_id"`
	WorkflowID    string          `json:"workflow_id"`
	Order         int             `json:"step_order"`
	Name          string          `json:"step_name"`
	TaskType      TaskType        `json:"task_type"`
	Configuration json.RawMessage `json:"configuration"`
}

type DefinitionInput struct {
	WorkflowID  string `json:"workflow_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type StepInput struct {
	StepOrder     int             `json:"step_order"`
	StepName      string          `json:"step_name"`
	TaskType      TaskType        `json:"task_type"`
	Configuration json.RawMessage `json:"configuration"`
}
