package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/viewkit/internal/props"
)

// PropsResult is the outcome of validating one data file.
type PropsResult struct {
	Valid  bool               `json:"valid"`
	Fields []string           `json:"fields"`
	Data   map[string]any     `json:"data,omitempty"`
	Errors []props.FieldError `json:"errors,omitempty"`
}

// NewPropsCommand creates the props command.
func NewPropsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "props <schema.cue> [data.yaml]",
		Short: "Validate props against a CUE schema",
		Long: `Validate a YAML props file against a CUE prop schema and print the
resulting fields with defaults applied.

Every top-level CUE field is a prop. "name!:" makes it required.
Without a data file the defaults alone are shown.

Examples:
  viewkit props ./schema.cue ./props.yaml
  viewkit props ./schema.cue --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := ""
			if len(args) == 2 {
				data = args[1]
			}
			return runProps(rootOpts, args[0], data, cmd)
		},
	}
	return cmd
}

func runProps(opts *RootOptions, schemaPath, dataPath string, cmd *cobra.Command) error {
	src, err := os.ReadFile(schemaPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read schema", err)
	}
	schema, err := props.ParseSchema(string(src))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile schema", err)
	}

	data := map[string]any{}
	if dataPath != "" {
		raw, err := os.ReadFile(dataPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read data", err)
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return WrapExitError(ExitCommandError, "failed to parse data", err)
		}
		if data == nil {
			data = map[string]any{}
		}
	}

	res := props.NewValidator().Validate(schema, data, nil)
	result := PropsResult{
		Valid:  !res.HasErrors,
		Fields: schema.Names(),
		Data:   res.Data,
		Errors: res.Errors,
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_INVALID_PROPS", Message: fmt.Sprintf("%d invalid field(s)", len(result.Errors))}
		}
		if err := out.Respond(resp); err != nil {
			return err
		}
	} else {
		printProps(out, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid field(s)", len(result.Errors)))
	}
	return nil
}

func printProps(out *OutputFormatter, r PropsResult) {
	w := out.Writer
	if !r.Valid {
		fmt.Fprintf(w, "✗ %d invalid field(s)\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
		return
	}
	fmt.Fprintln(w, "✓ props valid")
	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %v\n", k, r.Data[k])
	}
	out.VerboseLog("schema fields: %v", r.Fields)
}
