package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/view"
)

// SpecResult describes one parsed event spec.
type SpecResult struct {
	Input     string `json:"input"`
	Canonical string `json:"canonical,omitempty"`
	Event     string `json:"event,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Target    string `json:"target,omitempty"`
	Once      bool   `json:"once,omitempty"`
	Delegated bool   `json:"delegated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events <spec>...",
		Short: "Parse event spec strings",
		Long: `Parse event specs the way views bind them and print their parts.

A spec is ["one:"]event[" "selector]. A selector of "window" or
"document" binds to that global; any other selector delegates.

Examples:
  viewkit events "submit form" "one:click .entryList li" "resize window"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runEvents(opts *RootOptions, specs []string, cmd *cobra.Command) error {
	results := make([]SpecResult, 0, len(specs))
	invalid := 0
	for _, s := range specs {
		res := parseEventSpec(s)
		if res.Error != "" {
			invalid++
		}
		results = append(results, res)
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		resp := CLIResponse{Status: "ok", Data: results}
		if invalid > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_INVALID_SPEC", Message: fmt.Sprintf("%d invalid spec(s)", invalid)}
		}
		if err := out.Respond(resp); err != nil {
			return err
		}
	} else {
		w := out.Writer
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(w, "✗ %q: %s\n", r.Input, r.Error)
				continue
			}
			fmt.Fprintf(w, "✓ %-28s event=%s", r.Canonical, r.Event)
			if r.Target != "" {
				fmt.Fprintf(w, " target=%s", r.Target)
			}
			if r.Selector != "" {
				fmt.Fprintf(w, " selector=%q", r.Selector)
			}
			if r.Once {
				fmt.Fprint(w, " once")
			}
			fmt.Fprintln(w)
		}
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid spec(s)", invalid))
	}
	return nil
}

func parseEventSpec(s string) SpecResult {
	sp, err := view.ParseSpec(s)
	if err != nil {
		return SpecResult{Input: s, Error: err.Error()}
	}
	if sp.Selector != "" {
		if err := dom.NewDocument().CheckSelector(sp.Selector); err != nil {
			return SpecResult{Input: s, Error: err.Error()}
		}
	}
	return SpecResult{
		Input:     s,
		Canonical: sp.String(),
		Event:     sp.Event,
		Selector:  sp.Selector,
		Target:    string(sp.Target),
		Once:      sp.Once,
		Delegated: sp.Delegated(),
	}
}
