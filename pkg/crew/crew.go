// Package crew maps spreadsheet rows to agent, task and crew definitions and assembles the run plan.
package crew

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/umputun/crewsheet/pkg/model"
)

// ErrLookup is returned when a task names an agent role that no agent has.
var ErrLookup = errors.New("lookup error")

// Agents table columns
const (
	ColRole                 = "Agent Role"
	ColGoal                 = "Goal"
	ColBackstory            = "Backstory"
	ColAllowDelegation      = "Allow delegation"
	ColVerbose              = "Verbose"
	ColTools                = "Tools"
	ColMemory               = "Memory"
	ColMaxIter              = "Max_iter"
	ColModelName            = "Model Name"
	ColTemperature          = "Temperature"
	ColFunctionCallingModel = "Function Calling Model"
)

// Tasks table columns
const (
	ColInstructions   = "Instructions"
	ColExpectedOutput = "Expected Output"
	ColAgent          = "Agent"
	ColAssignment     = "Assignment"
)

// Crew table columns, Verbose, Memory and Assignment are shared with the tables above
const (
	ColEmbeddingModel = "Embedding model"
	ColProcess        = "Process"
)

// AssignmentToken is replaced by the assignment text in task instructions.
const AssignmentToken = "{assignment}"

// Process is the crew execution mode.
type Process string

// process modes
const (
	Sequential   Process = "sequential"
	Hierarchical Process = "hierarchical"
)

// AgentSpec is a fully resolved agent.
type AgentSpec struct {
	Role            string         `yaml:"role"`
	Goal            string         `yaml:"goal"`
	Backstory       string         `yaml:"backstory"`
	AllowDelegation bool           `yaml:"allow_delegation"`
	Verbose         bool           `yaml:"verbose"`
	Tools           []string       `yaml:"tools"`
	Memory          bool           `yaml:"memory"`
	MaxIter         int            `yaml:"max_iter"`
	Temperature     float64        `yaml:"temperature"`
	Model           model.Endpoint `yaml:"model"`
	ToolModel       model.Endpoint `yaml:"function_calling_model"`
}

// TaskSpec is a task bound to its agent.
type TaskSpec struct {
	Description    string     `yaml:"description"`
	ExpectedOutput string     `yaml:"expected_output"`
	Role           string     `yaml:"agent"`
	Agent          *AgentSpec `yaml:"-"`
}

// CrewConfig holds run-level settings.
type CrewConfig struct {
	Process    Process         `yaml:"process"`
	Memory     bool            `yaml:"memory"`
	Verbose    bool            `yaml:"verbose"`
	Embedder   *model.Endpoint `yaml:"embedder,omitempty"`
	Assignment string          `yaml:"assignment"`
}

// Plan is everything the engine needs for one run.
type Plan struct {
	Agents []*AgentSpec `yaml:"agents"`
	Tasks  []TaskSpec   `yaml:"tasks"`
	Crew   CrewConfig   `yaml:"crew"`
}

// Agent returns the agent with role.
func (p *Plan) Agent(role string) (*AgentSpec, bool) {
	for _, a := range p.Agents {
		if a.Role == role {
			return a, true
		}
	}
	return nil, false
}

// YAML renders the plan for --dry-run. Api keys are never included.
func (p *Plan) YAML() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return data, nil
}
