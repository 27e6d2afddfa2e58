// Package engine runs a crew plan: tasks are executed one at a time by LLM-backed agents that can
// call tools, delegate to coworkers and recall the outputs of earlier tasks.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/crewsheet/pkg/config"
	"github.com/umputun/crewsheet/pkg/crew"
	"github.com/umputun/crewsheet/pkg/llm"
	"github.com/umputun/crewsheet/pkg/model"
	"github.com/umputun/crewsheet/pkg/tools"
)

//go:generate moq -out mocks/client.go -pkg mocks -skip-ensure -fmt goimports . Client
//go:generate moq -out mocks/logger.go -pkg mocks -skip-ensure -fmt goimports . Logger

// Client is an LLM endpoint.
type Client interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// ClientFactory makes the client for an endpoint.
type ClientFactory func(ep model.Endpoint) Client

// Logger receives run progress.
type Logger interface {
	Print(format string, args ...any)
	PrintAligned(text string)
	Warn(format string, args ...any)
	Debug(format string, args ...any)
}

// ToolSet looks up tools by name.
type ToolSet interface {
	Get(name string) (tools.Tool, bool)
}

// managerRole is the role of the hierarchical crew manager.
const managerRole = "Crew Manager"

// Config holds everything a run needs.
type Config struct {
	Plan         *crew.Plan
	Tools        ToolSet
	Prompts      config.Prompts
	Manager      *model.Endpoint // hierarchical manager model, nil uses the first agent's model
	MemoryRecall int             // memories recalled per task, 0 uses 3
}

// TaskOutput is the result of one task.
type TaskOutput struct {
	Description string `json:"description"`
	Role        string `json:"agent"`
	Output      string `json:"output"`
}

// Result is the outcome of a run.
type Result struct {
	Output  string        // output of the last task
	Tasks   []TaskOutput  // outputs in task order
	Elapsed time.Duration // wall time of the run
}

// Runner executes a plan.
type Runner struct {
	cfg     Config
	log     Logger
	factory ClientFactory
	clients map[string]Client
	memory  *memory
	tokens  *tokenCounter
}

// New makes a Runner for cfg. Clients are created through factory, once per endpoint.
func New(cfg Config, log Logger, factory ClientFactory) *Runner {
	if cfg.MemoryRecall <= 0 {
		cfg.MemoryRecall = 3
	}
	r := &Runner{cfg: cfg, log: log, factory: factory, clients: map[string]Client{}, tokens: newTokenCounter()}
	if cfg.Plan != nil && cfg.Plan.Crew.Memory {
		var emb Client
		if cfg.Plan.Crew.Embedder != nil {
			emb = r.client(*cfg.Plan.Crew.Embedder)
		}
		r.memory = newMemory(emb)
	}
	return r
}

// Kickoff runs every task of the plan in table order and returns the last task's output.
func (r *Runner) Kickoff(ctx context.Context) (*Result, error) {
	plan := r.cfg.Plan
	if plan == nil || len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("nothing to run: plan has no tasks")
	}

	start := time.Now()
	var manager *crew.AgentSpec
	if plan.Crew.Process == crew.Hierarchical {
		manager = r.managerAgent()
		r.log.Print("hierarchical crew, %s delegates to %d agents", manager.Model.Name, len(plan.Agents))
	}

	res := &Result{}
	var outputs []string
	for i, task := range plan.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		agent, coworkers := task.Agent, []*crew.AgentSpec(nil)
		switch {
		case manager != nil:
			agent, coworkers = manager, plan.Agents
		case agent.AllowDelegation:
			coworkers = others(plan.Agents, agent)
		}

		j := job{
			Description:    task.Description,
			ExpectedOutput: task.ExpectedOutput,
			Context:        r.sharedContext(outputs, agent.Model.ContextSize),
		}
		if r.memory != nil && (agent.Memory || manager != nil) {
			recalled, err := r.memory.Recall(ctx, task.Description, r.cfg.MemoryRecall)
			if err != nil {
				return nil, fmt.Errorf("recall memory for task %d: %w", i+1, err)
			}
			j.Memory = recalled
		}

		r.log.Print("task %d/%d started, agent %s", i+1, len(plan.Tasks), agent.Role)
		out, err := r.runAgent(ctx, agent, j, coworkers)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i+1, agent.Role, err)
		}
		r.log.Print("task %d/%d completed", i+1, len(plan.Tasks))
		if r.verbose(agent) {
			r.log.PrintAligned(out)
		}

		if r.memory != nil {
			if err := r.memory.Store(ctx, out); err != nil {
				return nil, fmt.Errorf("store memory for task %d: %w", i+1, err)
			}
		}
		outputs = append(outputs, out)
		res.Tasks = append(res.Tasks, TaskOutput{Description: task.Description, Role: task.Role, Output: out})
	}

	res.Output = outputs[len(outputs)-1]
	res.Elapsed = time.Since(start)
	return res, nil
}

// managerAgent builds the hierarchical manager using the manager prompt.
func (r *Runner) managerAgent() *crew.AgentSpec {
	plan := r.cfg.Plan
	first := plan.Agents[0]
	ep := first.Model
	if r.cfg.Manager != nil {
		ep = *r.cfg.Manager
	}
	roles := make([]string, 0, len(plan.Agents))
	for _, a := range plan.Agents {
		roles = append(roles, a.Role)
	}
	return &crew.AgentSpec{
		Role:            managerRole,
		Goal:            "Manage the team to complete the task in the best way possible.",
		Backstory:       fill(r.cfg.Prompts.Manager, "{{COWORKERS}}", strings.Join(roles, ", ")),
		AllowDelegation: true,
		Verbose:         plan.Crew.Verbose,
		Memory:          plan.Crew.Memory,
		MaxIter:         first.MaxIter,
		Temperature:     first.Temperature,
		Model:           ep,
		ToolModel:       ep,
	}
}

// sharedContext joins earlier outputs, dropping the oldest ones beyond half the context size.
func (r *Runner) sharedContext(outputs []string, contextSize int) string {
	if len(outputs) == 0 {
		return ""
	}
	if contextSize <= 0 {
		return strings.Join(outputs, "\n\n")
	}

	budget := contextSize / 2
	kept := outputs
	for len(kept) > 1 && r.tokens.Count(strings.Join(kept, "\n\n")) > budget {
		kept = kept[1:]
	}
	text := strings.Join(kept, "\n\n")
	if len(kept) < len(outputs) {
		r.log.Debug("context trimmed to %d of %d earlier outputs", len(kept), len(outputs))
	}
	if r.tokens.Count(text) > budget {
		text = r.tokens.Tail(text, budget)
	}
	return text
}

// client returns the cached client for an endpoint.
func (r *Runner) client(ep model.Endpoint) Client {
	key := string(ep.Provider) + "|" + ep.URL + "|" + ep.Deployment + "|" + ep.Name
	if c, ok := r.clients[key]; ok {
		return c
	}
	c := r.factory(ep)
	r.clients[key] = c
	return c
}

func (r *Runner) verbose(a *crew.AgentSpec) bool {
	return a.Verbose || r.cfg.Plan.Crew.Verbose
}

func others(agents []*crew.AgentSpec, self *crew.AgentSpec) []*crew.AgentSpec {
	res := make([]*crew.AgentSpec, 0, len(agents))
	for _, a := range agents {
		if a != self {
			res = append(res, a)
		}
	}
	return res
}

// fill replaces placeholder/value pairs in a template.
func fill(tmpl string, pairs ...string) string {
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(tmpl))
}
