package workflow

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML form of a workflow definition, used by cmd/seed.
//
//	workflows:
//	  - workflow_id: CLAIM_APPROVAL_V1
//	    name: Claim Approval
//	    steps:
//	      - order: 1
//	        name: Route small claims
//	        task_type: RULE
//	        configuration: {ruleName: assignByAmount, threshold: 100000, targetAdminId: A1}
type Seed struct {
	WorkflowID  string     `yaml:"workflow_id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []SeedStep `yaml:"steps"`
}

type SeedStep struct {
	Order         int            `yaml:"order"`
	Name          string         `yaml:"name"`
	TaskType      TaskType       `yaml:"task_type"`
	Configuration map[string]any `yaml:"configuration"`
}

type seedFile struct {
	Workflows []Seed `yaml:"workflows"`
}

func LoadSeeds(r io.Reader) ([]Seed, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse workflow seed file: %w", err)
	}
	return f.Workflows, nil
}

func (s SeedStep) input() (StepInput, error) {
	var blob json.RawMessage
	if len(s.Configuration) > 0 {
		b, err := json.Marshal(s.Configuration)
		if err != nil {
			return StepInput{}, fmt.Errorf("step %d configuration: %w", s.Order, err)
		}
		blob = b
	}
	return StepInput{
		StepOrder:     s.Order,
		StepName:      s.Name,
		TaskType:      s.TaskType,
		Configuration: blob,
	}, nil
}
