package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/viewkit/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	View     string // optional - filter to one view id
	Kind     string // optional - filter to one entry kind
	List     bool
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string          `json:"run_id"`
	Timeline []journal.Entry `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEntries int            `json:"total_entries"`
	Views        int            `json:"views"`
	ByKind       map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a recorded run",
		Long: `Show the journal timeline of a run recorded with "viewkit run".

Without --run the most recent run is shown. --list prints every run
instead.

Examples:
  viewkit trace --db ./viewkit.db
  viewkit trace --db ./viewkit.db --run dismiss-1 --view view1
  viewkit trace --db ./viewkit.db --kind event.dispatched --format json
  viewkit trace --db ./viewkit.db --list`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default: latest)")
	cmd.Flags().StringVar(&opts.View, "view", "", "filter to a view id")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to an entry kind")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list runs instead of showing one")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := opts.resolve()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	db := opts.Database
	if db == "" {
		db = cfg.JournalPath
	}

	var kind journal.Kind
	if opts.Kind != "" {
		if kind, err = journal.ParseKind(opts.Kind); err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
	}

	st, err := journal.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := opts.formatter(cmd)

	if opts.List {
		runs, err := st.Runs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputRuns(out, runs)
	}

	runID := opts.RunID
	if runID == "" {
		if runID, err = st.LatestRun(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to find latest run", err)
		}
		if runID == "" {
			return NewExitError(ExitCommandError, "no runs recorded in "+db)
		}
	}

	var entries []journal.Entry
	if opts.View != "" {
		entries, err = st.ViewEntries(ctx, runID, opts.View)
	} else {
		entries, err = st.Entries(ctx, runID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := buildTrace(runID, entries, kind)

	if out.JSON() {
		return out.Respond(CLIResponse{Status: "ok", Data: result, RunID: runID})
	}
	return outputTraceText(out, result)
}

// buildTrace filters entries by kind and computes statistics over the
// entries that remain.
func buildTrace(runID string, entries []journal.Entry, kind journal.Kind) TraceResult {
	result := TraceResult{
		RunID:    runID,
		Timeline: []journal.Entry{},
		Stats:    TraceStats{ByKind: make(map[string]int)},
	}
	views := make(map[string]bool)
	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		result.Timeline = append(result.Timeline, e)
		result.Stats.ByKind[string(e.Kind)]++
		if e.View != "" {
			views[e.View] = true
		}
	}
	result.Stats.TotalEntries = len(result.Timeline)
	result.Stats.Views = len(views)
	return result
}

func outputTraceText(out *OutputFormatter, result TraceResult) error {
	w := out.Writer
	if len(result.Timeline) == 0 {
		fmt.Fprintf(w, "No entries found for run: %s\n", result.RunID)
		return nil
	}

	fmt.Fprintf(w, "Run: %s\n\n", result.RunID)
	for _, e := range result.Timeline {
		fmt.Fprintln(w, e.String())
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Entries: %d, views: %d\n", result.Stats.TotalEntries, result.Stats.Views)
	if out.Verbose {
		kinds := make([]string, 0, len(result.Stats.ByKind))
		for k := range result.Stats.ByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-18s %d\n", k, result.Stats.ByKind[k])
		}
	}
	return nil
}

func outputRuns(out *OutputFormatter, runs []journal.Run) error {
	if runs == nil {
		runs = []journal.Run{}
	}
	if out.JSON() {
		return out.Respond(CLIResponse{Status: "ok", Data: runs})
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out.Writer, "%s  %-24s %d entries\n", r.ID, r.Name, r.Entries)
	}
	return nil
}
