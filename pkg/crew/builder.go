package crew

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/umputun/crewsheet/pkg/config"
	"github.com/umputun/crewsheet/pkg/model"
	"github.com/umputun/crewsheet/pkg/sheet"
)

//go:generate moq -out mocks/logger.go -pkg mocks -skip-ensure -fmt goimports . Logger

// Logger reports build progress and warnings.
type Logger interface {
	Print(format string, args ...any)
	Warn(format string, args ...any)
}

// Resolver turns model names into endpoints.
type Resolver interface {
	Endpoint(name string) (model.Endpoint, error)
}

// ToolFilter splits a comma-separated tool list into known and unknown tool names.
type ToolFilter interface {
	Filter(list string) (known, unknown []string)
}

// Defaults are applied when an agent row leaves a column out.
type Defaults struct {
	Model       string
	Temperature float64
	MaxIter     int
}

// truthy holds the lowercase cell values read as true
var truthy = map[string]bool{"true": true, "1": true, "t": true, "y": true, "yes": true}

// IsTruthy reports whether a boolean-like cell is true.
func IsTruthy(v string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(v))]
}

// Stage is a step of Assemble reported to the stage hook.
type Stage string

// Assemble stages, in the order they are entered.
const (
	StageAgents Stage = "agents"
	StageTasks  Stage = "tasks"
	StageCrew   Stage = "crew"
)

// Builder maps rows to specs.
type Builder struct {
	resolver Resolver
	tools    ToolFilter
	defaults Defaults
	log      Logger
	onStage  func(Stage)
}

// OnStage sets fn to be called each time Assemble enters a stage.
func (b *Builder) OnStage(fn func(Stage)) {
	b.onStage = fn
}

func (b *Builder) stage(s Stage) {
	if b.onStage != nil {
		b.onStage(s)
	}
}

// NewBuilder makes a Builder. Zero defaults fall back to gpt-4-turbo-preview and 15 iterations.
func NewBuilder(resolver Resolver, tools ToolFilter, defaults Defaults, log Logger) *Builder {
	if defaults.Model == "" {
		defaults.Model = "gpt-4-turbo-preview"
	}
	if defaults.MaxIter <= 0 {
		defaults.MaxIter = 15
	}
	return &Builder{resolver: resolver, tools: tools, defaults: defaults, log: log}
}

// Agent builds an agent from a row of the Agents table.
func (b *Builder) Agent(row sheet.Row) (AgentSpec, error) {
	role := row.Get(ColRole)
	if role == "" {
		return AgentSpec{}, fmt.Errorf("%w: agents row %d has no %s", config.ErrConfiguration, row.Num, ColRole)
	}

	a := AgentSpec{
		Role:            role,
		Goal:            dedent(cell(row, ColGoal)),
		Backstory:       dedent(cell(row, ColBackstory)),
		AllowDelegation: IsTruthy(cell(row, ColAllowDelegation)),
		Verbose:         IsTruthy(cell(row, ColVerbose)),
		Memory:          IsTruthy(cell(row, ColMemory)),
		MaxIter:         b.defaults.MaxIter,
		Temperature:     b.defaults.Temperature,
	}

	known, unknown := b.tools.Filter(cell(row, ColTools))
	a.Tools = known
	for _, name := range unknown {
		b.log.Warn("agent %q: unknown tool %q dropped", role, name)
	}

	if v := row.Get(ColMaxIter); v != "" {
		n, err := parseWhole(v)
		if err != nil || n < 1 {
			return AgentSpec{}, fmt.Errorf("%w: agent %q: invalid %s %q", config.ErrConfiguration, role, ColMaxIter, v)
		}
		a.MaxIter = n
	}

	if v := row.Get(ColTemperature); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			return AgentSpec{}, fmt.Errorf("%w: agent %q: invalid %s %q", config.ErrConfiguration, role, ColTemperature, v)
		}
		a.Temperature = t
	}

	modelName := row.Get(ColModelName)
	if modelName == "" {
		modelName = b.defaults.Model
	}
	primary, err := b.resolver.Endpoint(modelName)
	if err != nil {
		return AgentSpec{}, fmt.Errorf("agent %q: %w", role, err)
	}
	a.Model = primary
	a.ToolModel = primary

	if fc := row.Get(ColFunctionCallingModel); fc != "" && fc != modelName {
		ep, err := b.resolver.Endpoint(fc)
		if err != nil {
			b.log.Warn("agent %q: function calling model %q not usable, using %s: %v", role, fc, modelName, err)
		} else {
			a.ToolModel = ep
		}
	}

	return a, nil
}

// BuildTask builds a task from a row of the Tasks table and binds it to the agent with the same role.
func BuildTask(row sheet.Row, assignment string, agents []*AgentSpec) (TaskSpec, error) {
	role := row.Get(ColAgent)
	t := TaskSpec{
		Description:    dedent(strings.ReplaceAll(cell(row, ColInstructions), AssignmentToken, assignment)),
		ExpectedOutput: cell(row, ColExpectedOutput),
		Role:           role,
	}
	for _, a := range agents {
		if a.Role == role {
			t.Agent = a
			return t, nil
		}
	}
	return TaskSpec{}, fmt.Errorf("%w: tasks row %d: no agent with role %q", ErrLookup, row.Num, role)
}

// Crew builds the crew settings from the first row of the Crew table. A zero row gives a
// sequential crew without memory or embedder.
func (b *Builder) Crew(row sheet.Row) (CrewConfig, error) {
	c := CrewConfig{
		Process:    Sequential,
		Memory:     IsTruthy(cell(row, ColMemory)),
		Verbose:    IsTruthy(cell(row, ColVerbose)),
		Assignment: strings.TrimSpace(cell(row, ColAssignment)),
	}
	if cell(row, ColProcess) == string(Hierarchical) {
		c.Process = Hierarchical
	}

	if name := row.Get(ColEmbeddingModel); name != "" {
		ep, err := b.resolver.Endpoint(name)
		if err != nil {
			return CrewConfig{}, fmt.Errorf("embedding model: %w", err)
		}
		c.Embedder = &ep
	}
	return c, nil
}

// Assemble builds the full plan: agents in row order, then the crew settings and tasks in row order.
// Missing tables count as empty.
func (b *Builder) Assemble(wb *sheet.Workbook) (*Plan, error) {
	if wb == nil {
		wb = &sheet.Workbook{}
	}
	if wb.Agents.Len() == 0 {
		return nil, fmt.Errorf("%w: sheet %s has no agents", config.ErrConfiguration, tableName(wb.Agents, "Agents"))
	}
	if wb.Tasks.Len() == 0 {
		return nil, fmt.Errorf("%w: sheet %s has no tasks", config.ErrConfiguration, tableName(wb.Tasks, "Tasks"))
	}

	b.stage(StageAgents)
	plan := &Plan{}
	seen := map[string]bool{}
	for i, row := range wb.Agents.Rows {
		a, err := b.Agent(row)
		if err != nil {
			return nil, err
		}
		if seen[a.Role] {
			return nil, fmt.Errorf("%w: duplicate agent role %q in row %d", config.ErrConfiguration, a.Role, row.Num)
		}
		seen[a.Role] = true
		plan.Agents = append(plan.Agents, &a)
		b.log.Print("agent %d/%d created: %s (%s)", i+1, wb.Agents.Len(), a.Role, a.Model.Name)
	}

	b.stage(StageTasks)
	crewRow, _ := wb.Crew.First()
	c, err := b.Crew(crewRow)
	if err != nil {
		return nil, err
	}
	if c.Assignment == "" {
		if first, ok := wb.Tasks.First(); ok {
			c.Assignment = strings.TrimSpace(cell(first, ColAssignment))
		}
	}
	plan.Crew = c

	for _, row := range wb.Tasks.Rows {
		t, err := BuildTask(row, c.Assignment, plan.Agents)
		if err != nil {
			return nil, err
		}
		plan.Tasks = append(plan.Tasks, t)
	}
	b.log.Print("%d tasks created", len(plan.Tasks))

	b.stage(StageCrew)
	b.log.Print("crew created: %s process, memory %s", c.Process, onOff(c.Memory))
	return plan, nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// cell returns the raw cell value, empty when absent.
func tableName(t *sheet.Table, fallback string) string {
	if t == nil || t.Name == "" {
		return fallback
	}
	return t.Name
}

func cell(row sheet.Row, col string) string {
	v, _ := row.Value(col)
	return v
}

// parseWhole parses "15" or "15.0" as an integer.
func parseWhole(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a whole number", v)
	}
	return int(f), nil
}
