package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/viewkit/internal/engine"
	"github.com/roach88/viewkit/internal/harness"
	"github.com/roach88/viewkit/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	RunID    string
	IDs      string
}

// RunSummary is the outcome of a recorded run.
type RunSummary struct {
	RunID    string   `json:"run_id"`
	Scenario string   `json:"scenario"`
	Database string   `json:"database"`
	Pass     bool     `json:"pass"`
	Entries  int      `json:"entries"`
	Errors   []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run a scenario and persist its journal",
		Long: `Run one scenario and write its journal to a SQLite database.

Each invocation starts a new run. Without --run the id is a fresh UUIDv7.
View ids are sequential (view1, view2, ...) unless --ids uuid or the ids
config key asks for UUIDv7 ids. Inspect the result with "viewkit trace".

Example:
  viewkit run ./scenarios/guestbook.yaml --db ./viewkit.db
  viewkit run ./scenarios/dismiss.yaml --run dismiss-1 --verbose
  viewkit run ./scenarios/guestbook.yaml --ids uuid`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioToStore(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default: generated)")
	cmd.Flags().StringVar(&opts.IDs, "ids", "", "view id scheme: sequential or uuid (default from config)")

	return cmd
}

func runScenarioToStore(opts *RunOptions, file string, cmd *cobra.Command) error {
	cfg, err := opts.resolve()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	db := opts.Database
	if db == "" {
		db = cfg.JournalPath
	}
	scheme := opts.IDs
	if scheme == "" {
		scheme = cfg.IDs
	}
	ids, err := engine.NewIDGenerator(scheme)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --ids", err)
	}
	logger := opts.logger(cmd.ErrOrStderr())
	ctx := cmd.Context()

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	logger.Debug("opening journal", "path", db)
	st, err := journal.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	runID, err := st.BeginRun(ctx, opts.RunID, scenario.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to begin run", err)
	}
	logger.Info("run started", "run", runID, "scenario", scenario.Name)

	result, err := harness.Run(ctx, scenario,
		harness.WithRecorder(st),
		harness.WithRunID(runID),
		harness.WithLogger(logger),
		harness.WithIDGenerator(ids),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}
	logger.Info("run finished", "run", runID, "entries", len(result.Journal), "pass", result.Pass)

	summary := RunSummary{
		RunID:    runID,
		Scenario: scenario.Name,
		Database: db,
		Pass:     result.Pass,
		Entries:  len(result.Journal),
		Errors:   result.Errors,
	}
	if err := printRunSummary(opts.formatter(cmd), summary); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func printRunSummary(out *OutputFormatter, s RunSummary) error {
	if out.JSON() {
		resp := CLIResponse{Status: "ok", Data: s, RunID: s.RunID}
		if !s.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_SCENARIO_FAILED", Message: "assertions failed", Details: s.Errors}
		}
		return out.Respond(resp)
	}

	w := out.Writer
	mark := "✓"
	if !s.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, s.Scenario)
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	fmt.Fprintf(w, "Run %s: %d entries written to %s\n", s.RunID, s.Entries, s.Database)
	return nil
}
