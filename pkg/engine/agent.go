package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/umputun/crewsheet/pkg/crew"
	"github.com/umputun/crewsheet/pkg/llm"
	"github.com/umputun/crewsheet/pkg/tools"
)

// maxLoggedToolOutput limits tool output echoed by verbose agents.
const maxLoggedToolOutput = 500

var blankRuns = regexp.MustCompile(`\n{3,}`)

// job is what one agent is asked to do.
type job struct {
	Description    string
	ExpectedOutput string
	Context        string
	Memory         []string
}

// runError marks failures inside a delegated run, which abort the whole run instead of being
// reported back to the delegating agent.
type runError struct{ err error }

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

// runAgent drives the agent loop until a final answer or the iteration cap.
func (r *Runner) runAgent(ctx context.Context, a *crew.AgentSpec, j job, coworkers []*crew.AgentSpec) (string, error) {
	toolset := r.agentTools(a, coworkers)
	defs := make([]llm.ToolDef, 0, len(toolset))
	for _, name := range toolNames(toolset) {
		t := toolset[name]
		defs = append(defs, llm.ToolDef{Name: name, Description: t.Description(), Parameters: t.Schema()})
	}

	primary := r.client(a.Model)
	caller := primary
	if len(defs) > 0 {
		caller = r.client(a.ToolModel)
	}
	separate := caller != primary

	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: r.systemPrompt(a)},
		{Role: llm.RoleUser, Content: r.taskPrompt(j)},
	}
	temp := a.Temperature

	for iter := 1; iter <= a.MaxIter; iter++ {
		resp, err := caller.Chat(ctx, llm.ChatRequest{Messages: msgs, Tools: defs, Temperature: &temp})
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", a.Role, err)
		}
		msg := resp.Message
		r.log.Debug("%s iteration %d: %d tool calls, %d tokens", a.Role, iter, len(msg.ToolCalls), resp.Usage.TotalTokens)

		if len(msg.ToolCalls) == 0 {
			if !separate {
				return strings.TrimSpace(msg.Content), nil
			}
			if msg.Content != "" {
				msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})
			}
			return r.finalAnswer(ctx, a, primary, msgs, j.ExpectedOutput)
		}

		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: msg.Content, ToolCalls: msg.ToolCalls})
		for _, tc := range msg.ToolCalls {
			out, err := r.callTool(ctx, a, toolset, tc)
			if err != nil {
				return "", err
			}
			msgs = append(msgs, llm.Message{Role: llm.RoleTool, ToolCallID: tc.ID, Content: out})
		}
	}

	r.log.Warn("agent %s reached max iterations (%d), forcing a final answer", a.Role, a.MaxIter)
	return r.finalAnswer(ctx, a, primary, msgs, j.ExpectedOutput)
}

// finalAnswer asks the primary model for the answer without offering tools.
func (r *Runner) finalAnswer(ctx context.Context, a *crew.AgentSpec, primary Client, msgs []llm.Message, expected string) (string, error) {
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: fill(r.cfg.Prompts.Final, "{{EXPECTED_OUTPUT}}", expected)})
	temp := a.Temperature
	resp, err := primary.Chat(ctx, llm.ChatRequest{Messages: flattenTools(msgs), Temperature: &temp})
	if err != nil {
		return "", fmt.Errorf("agent %s final answer: %w", a.Role, err)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// callTool runs one tool call. Tool failures are returned to the model as text, only cancellation
// and failed delegated runs are errors.
func (r *Runner) callTool(ctx context.Context, a *crew.AgentSpec, toolset map[string]tools.Tool, tc llm.ToolCall) (string, error) {
	verbose := r.verbose(a)
	if verbose {
		r.log.Print("%s using %s %s", a.Role, tc.Name, compact(tc.Arguments))
	}

	t, ok := toolset[tc.Name]
	if !ok {
		return fmt.Sprintf("Error: tool %q is not available, use one of: %s", tc.Name, strings.Join(toolNames(toolset), ", ")), nil
	}

	out, err := t.Call(ctx, tc.Arguments)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	var re *runError
	if errors.As(err, &re) {
		return "", re.err
	}
	if err != nil {
		r.log.Debug("%s: tool %s failed: %v", a.Role, tc.Name, err)
		out = "Error: " + err.Error()
	}
	if verbose {
		r.log.PrintAligned(shortText(out, maxLoggedToolOutput))
	}
	return out, nil
}

// agentTools returns the tools offered to an agent, delegation tools included when it has coworkers.
func (r *Runner) agentTools(a *crew.AgentSpec, coworkers []*crew.AgentSpec) map[string]tools.Tool {
	res := map[string]tools.Tool{}
	for _, name := range a.Tools {
		if r.cfg.Tools == nil {
			break
		}
		if t, ok := r.cfg.Tools.Get(name); ok {
			res[name] = t
		}
	}
	if a.AllowDelegation && len(coworkers) > 0 {
		for _, t := range newDelegationTools(r, coworkers) {
			res[t.Name()] = t
		}
	}
	return res
}

func (r *Runner) systemPrompt(a *crew.AgentSpec) string {
	return fill(r.cfg.Prompts.Agent, "{{ROLE}}", a.Role, "{{GOAL}}", a.Goal, "{{BACKSTORY}}", a.Backstory)
}

func (r *Runner) taskPrompt(j job) string {
	ctxText := ""
	if j.Context != "" {
		ctxText = "This is the context you're working with:\n" + j.Context
	}
	memText := ""
	if len(j.Memory) > 0 {
		memText = "Relevant results of earlier tasks:\n- " + strings.Join(j.Memory, "\n- ")
	}
	p := fill(r.cfg.Prompts.Task, "{{DESCRIPTION}}", j.Description, "{{EXPECTED_OUTPUT}}", j.ExpectedOutput,
		"{{CONTEXT}}", ctxText, "{{MEMORY}}", memText)
	return blankRuns.ReplaceAllString(p, "\n\n")
}

// flattenTools rewrites tool traffic as plain messages, for calls without tool definitions.
func flattenTools(msgs []llm.Message) []llm.Message {
	res := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == llm.RoleTool:
			res = append(res, llm.Message{Role: llm.RoleUser, Content: "Tool result:\n" + m.Content})
		case len(m.ToolCalls) > 0:
			var b strings.Builder
			b.WriteString(m.Content)
			for _, tc := range m.ToolCalls {
				fmt.Fprintf(&b, "\nCalling tool %s with %s", tc.Name, compact(tc.Arguments))
			}
			res = append(res, llm.Message{Role: llm.RoleAssistant, Content: strings.TrimSpace(b.String())})
		default:
			res = append(res, m)
		}
	}
	return res
}

func toolNames(toolset map[string]tools.Tool) []string {
	names := make([]string, 0, len(toolset))
	for n := range toolset {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func compact(raw json.RawMessage) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if s == "" {
		return "{}"
	}
	return shortText(s, 200)
}

func shortText(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
