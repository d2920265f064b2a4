package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mithi83/Applied-Energistics-2/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Nodes    int                        `json:"nodes"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <netdef-dir>",
		Short: "Validate a network definition",
		Long: `Compile and validate the CUE network definition in a directory.

Reports every rule violation (empty providers, duplicate patterns, bad CPU
sizes, ...) and warns about recipe cycles. Cycles do not fail validation;
the planner only rejects a request that actually has to recurse through one.

Exit codes:
  0 - valid (warnings allowed)
  1 - validation errors
  2 - the directory could not be loaded

Example:
  craftd validate ./networks/basic`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	net, err := loadNetworkOrExit(f, dir)
	if err != nil {
		return err
	}
	f.VerboseLog("Compiled %d node(s) from %s", len(net.NodeNames()), dir)

	result := ValidationResult{
		Nodes:    len(net.NodeNames()),
		Errors:   compiler.Validate(net),
		Warnings: compiler.AnalyzeCycles(net),
	}
	result.Valid = len(result.Errors) == 0

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		outputValidationText(f, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidationText(f *OutputFormatter, result ValidationResult) {
	w := f.Writer
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warn.Message)
	}
	if result.Valid {
		fmt.Fprintf(w, "✓ Network valid (%d nodes)\n", result.Nodes)
		return
	}

	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
}
