// Package main provides crewsheet - run a crew of LLM agents described in a spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/crewsheet/pkg/config"
	"github.com/umputun/crewsheet/pkg/crew"
	"github.com/umputun/crewsheet/pkg/engine"
	"github.com/umputun/crewsheet/pkg/input"
	"github.com/umputun/crewsheet/pkg/llm"
	"github.com/umputun/crewsheet/pkg/model"
	"github.com/umputun/crewsheet/pkg/notify"
	"github.com/umputun/crewsheet/pkg/progress"
	"github.com/umputun/crewsheet/pkg/render"
	"github.com/umputun/crewsheet/pkg/sheet"
	"github.com/umputun/crewsheet/pkg/tools"
)

// opts holds all command-line options.
type opts struct {
	SheetURL string `long:"sheet_url" description:"Google Sheets URL or directory of <table>.csv files"`
	Config   string `long:"config" description:"config directory (default ~/.config/crewsheet)"`
	DryRun   bool   `long:"dry-run" description:"print the resolved plan as YAML, no LLM calls"`
	Debug    bool   `short:"d" long:"debug" description:"enable debug logging"`
	NoColor  bool   `long:"no-color" description:"disable color output"`
	Version  bool   `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

const terminationNotice = "\n\nReceived termination signal. Shutting down gracefully...\n\n"

// stagePhases maps plan assembly stages to progress phases.
var stagePhases = map[crew.Stage]progress.Phase{
	crew.StageAgents: progress.PhaseAgents,
	crew.StageTasks:  progress.PhaseTasks,
	crew.StageCrew:   progress.PhaseCrew,
}

// overviewCell is the cell width of the agents and tasks overview tables.
const overviewCell = 60

// env holds the process dependencies of run, swapped in tests.
type env struct {
	stdout    io.Writer
	collector input.Collector
	logDir    string // progress log directory, empty is the working directory
	factory   engine.ClientFactory
}

func main() {
	fmt.Printf("crewsheet %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	restore := disableCtrlCEcho()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, o, env{stdout: os.Stdout, collector: input.NewTerminalCollector()})
	interrupted := ctx.Err() != nil
	cancel()
	restore()

	if interrupted {
		fmt.Print(terminationNotice)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, e env) error {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	colors := progress.NewColors(cfg.Colors)

	secrets, err := config.LoadSecrets(cfg.EnvFile)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}
	if err := secrets.Require(config.EnvOpenAIKey); err != nil {
		return err
	}

	source := strings.TrimSpace(o.SheetURL)
	if source == "" {
		printIntro(e.stdout, colors)
		if source, err = e.collector.AskLine(ctx, "Please provide the URL of your google sheet: "); err != nil {
			return fmt.Errorf("read sheet url: %w", err)
		}
	}

	log, err := progress.NewLogger(progress.Config{Dir: e.logDir, SheetURL: source, NoColor: o.NoColor, Debug: o.Debug}, colors)
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer log.Close()

	log.SetPhase(progress.PhaseSetup)
	reader := sheet.NewReader(sheet.Names{
		Agents: cfg.SheetAgents, Tasks: cfg.SheetTasks, Crew: cfg.SheetCrew, Models: cfg.SheetModels,
	}, nil)
	wb, err := reader.Read(ctx, source)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	log.Print("sheet loaded: %d agents, %d tasks, %d models", wb.Agents.Len(), wb.Tasks.Len(), wb.Models.Len())
	printOverview(log, wb, o.NoColor)

	catalog, err := model.NewCatalog(wb.Models)
	if err != nil {
		return err
	}
	resolver := model.NewResolver(catalog, secrets, model.Settings{
		OpenAIBaseURL: cfg.OpenAIBaseURL, AzureAPIVersion: cfg.AzureAPIVersion,
	})

	registry := tools.Default(tools.Options{SerperKey: secrets.SerperKey, Root: cfg.ToolsRoot})
	if err := registry.Validate(); err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	builder := crew.NewBuilder(resolver, registry, crew.Defaults{
		Model: cfg.DefaultModel, Temperature: cfg.DefaultTemperature, MaxIter: cfg.DefaultMaxIter,
	}, log)
	builder.OnStage(func(s crew.Stage) { log.SetPhase(stagePhases[s]) })
	plan, err := builder.Assemble(wb)
	if err != nil {
		return err
	}
	log.Print("crew created successfully!")

	manager := managerEndpoint(cfg, resolver, plan, log)

	if o.DryRun {
		data, err := plan.YAML()
		if err != nil {
			return err
		}
		log.Print("dry run, crew not started")
		fmt.Fprint(e.stdout, string(data))
		return nil
	}

	notifier, err := notify.New(cfg.Notify, log)
	if err != nil {
		log.Warn("notifications disabled: %v", err)
	}
	summary := notify.Result{SheetURL: source, Process: string(plan.Crew.Process), Agents: len(plan.Agents), Tasks: len(plan.Tasks)}

	factory := e.factory
	if factory == nil {
		clientOpts := llm.Options{
			Timeout:           time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}
		factory = func(ep model.Endpoint) engine.Client { return llm.New(ep, clientOpts) }
	}

	log.SetPhase(progress.PhaseRun)
	runner := engine.New(engine.Config{
		Plan: plan, Tools: registry, Prompts: cfg.Prompts, Manager: manager, MemoryRecall: cfg.MemoryRecall,
	}, log, factory)
	res, err := runner.Kickoff(ctx)
	summary.Duration = log.Elapsed()
	if err != nil {
		if ctx.Err() == nil {
			summary.Status, summary.Error = notify.StatusFailure, err.Error()
			notifier.Send(ctx, summary)
		}
		return fmt.Errorf("run crew: %w", err)
	}
	log.Print("crew finished %d tasks in %s", len(res.Tasks), res.Elapsed.Round(time.Second))

	table, err := render.ResultTable(res.Output, render.ResultWidth(cfg.ResultMinWidth), o.NoColor)
	if err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	fmt.Fprintln(e.stdout, table)

	summary.Status, summary.Output = notify.StatusSuccess, res.Output
	notifier.Send(ctx, summary)
	return nil
}

// managerEndpoint resolves the hierarchical manager model, nil falls back to the first agent's model.
func managerEndpoint(cfg *config.Config, resolver *model.Resolver, plan *crew.Plan, log *progress.Logger) *model.Endpoint {
	if plan.Crew.Process != crew.Hierarchical || cfg.ManagerModel == "" {
		return nil
	}
	ep, err := resolver.Endpoint(cfg.ManagerModel)
	if err != nil {
		log.Warn("manager model %q not usable, using %s: %v", cfg.ManagerModel, plan.Agents[0].Model.Name, err)
		return nil
	}
	return &ep
}

func printIntro(w io.Writer, colors *progress.Colors) {
	intro := `
Welcome to crewsheet!

Describe your crew in a spreadsheet with these tabs:
  Agents  - Agent Role, Goal, Backstory, Tools, Model Name, Temperature, Max_iter, ...
  Tasks   - Instructions, Expected Output, Agent, Assignment
  Crew    - Process, Memory, Verbose, Embedding model, Assignment
  Models  - Model, Provider, base_url, Deployment, Context size (local only)

Share the Google sheet as "anyone with the link can view", or point to a directory of CSV files.
`
	fmt.Fprint(w, colors.Info().Sprint(intro)+"\n")
}

// printOverview prints the agents and tasks read from the sheet.
func printOverview(log *progress.Logger, wb *sheet.Workbook, noColor bool) {
	agents := make([][]string, 0, wb.Agents.Len())
	for _, r := range wb.Agents.Rows {
		agents = append(agents, []string{r.Get(crew.ColRole), r.Get(crew.ColGoal), r.Get(crew.ColTools), r.Get(crew.ColModelName)})
	}
	log.PrintRaw("%s\n", render.Overview("Agents", []string{"Role", "Goal", "Tools", "Model"}, agents, overviewCell, noColor))

	tasks := make([][]string, 0, wb.Tasks.Len())
	for _, r := range wb.Tasks.Rows {
		tasks = append(tasks, []string{r.Get(crew.ColAgent), r.Get(crew.ColInstructions), r.Get(crew.ColExpectedOutput)})
	}
	log.PrintRaw("%s\n", render.Overview("Tasks", []string{"Agent", "Instructions", "Expected Output"}, tasks, overviewCell, noColor))
}
