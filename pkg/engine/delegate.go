package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/umputun/crewsheet/pkg/crew"
	"github.com/umputun/crewsheet/pkg/tools"
)

// delegation tool names
const (
	delegateToolName = "delegate_work_to_coworker"
	askToolName      = "ask_question_to_coworker"
)

// delegationTool hands a sub-task or a question to a coworker. The coworker runs without delegation.
type delegationTool struct {
	runner    *Runner
	coworkers []*crew.AgentSpec
	ask       bool
}

func newDelegationTools(r *Runner, coworkers []*crew.AgentSpec) []tools.Tool {
	return []tools.Tool{
		&delegationTool{runner: r, coworkers: coworkers},
		&delegationTool{runner: r, coworkers: coworkers, ask: true},
	}
}

func (t *delegationTool) Name() string {
	if t.ask {
		return askToolName
	}
	return delegateToolName
}

func (t *delegationTool) Description() string {
	if t.ask {
		return fmt.Sprintf("Ask a specific question to one of the following coworkers: %s. "+
			"Share all the context they need, they know nothing about your task.", t.roles())
	}
	return fmt.Sprintf("Delegate a specific task to one of the following coworkers: %s. "+
		"Share all the context they need, they know nothing about your task.", t.roles())
}

func (t *delegationTool) Schema() json.RawMessage {
	field := "task"
	if t.ask {
		field = "question"
	}
	return json.RawMessage(fmt.Sprintf(`{
		"type": "object",
		"properties": {
			%q: {"type": "string", "description": "The %s for the coworker"},
			"context": {"type": "string", "description": "Everything the coworker needs to know"},
			"coworker": {"type": "string", "description": "Role of the coworker"}
		},
		"required": [%q, "coworker"]
	}`, field, field, field))
}

func (t *delegationTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Task     string `json:"task"`
		Question string `json:"question"`
		Context  string `json:"context"`
		Coworker string `json:"coworker"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	work := p.Task
	if t.ask {
		work = p.Question
	}
	if strings.TrimSpace(work) == "" {
		return "", errors.New("nothing to delegate, the task or question is empty")
	}

	cw := t.find(p.Coworker)
	if cw == nil {
		return "", fmt.Errorf("no coworker %q, choose one of: %s", p.Coworker, t.roles())
	}

	r := t.runner
	r.log.Print("%s → %s", t.Name(), cw.Role)
	out, err := r.runAgent(ctx, cw, job{
		Description:    work,
		ExpectedOutput: "Your best answer to your coworker asking you this, accounting for the context shared.",
		Context:        p.Context,
	}, nil)
	if err != nil {
		return "", &runError{err: err}
	}
	return out, nil
}

// find matches a coworker role, ignoring case and surrounding quotes or spaces.
func (t *delegationTool) find(role string) *crew.AgentSpec {
	role = strings.ToLower(strings.Trim(role, " \t\n\"'"))
	for _, cw := range t.coworkers {
		if strings.ToLower(cw.Role) == role {
			return cw
		}
	}
	return nil
}

func (t *delegationTool) roles() string {
	roles := make([]string, 0, len(t.coworkers))
	for _, cw := range t.coworkers {
		roles = append(roles, cw.Role)
	}
	return strings.Join(roles, ", ")
}
