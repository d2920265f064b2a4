package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/engine"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/nodes"
	"github.com/Mithi83/Applied-Energistics-2/internal/planner"
)

// cliSource is the action source of requests typed on the command line.
var cliSource = grid.Player("cli")

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Key      string
	Amount   int64
	Strategy string
}

// PlanView is the printable form of a plan.
type PlanView struct {
	Request    string           `json:"request"`
	Amount     int64            `json:"amount"`
	Bytes      int64            `json:"bytes"`
	Simulation bool             `json:"simulation"`
	Digest     string           `json:"digest"`
	Steps      []PlanStepView   `json:"steps"`
	Used       map[string]int64 `json:"used,omitempty"`
	Emitted    map[string]int64 `json:"emitted,omitempty"`
	Missing    map[string]int64 `json:"missing,omitempty"`
}

// PlanStepView is one pattern of a plan.
type PlanStepView struct {
	Pattern string `json:"pattern"`
	Output  string `json:"output"`
	Times   int64  `json:"times"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <netdef-dir>",
		Short: "Calculate one crafting plan",
		Long: `Calculate a plan for one request against a network definition and
print it. Nothing is submitted.

With --strategy report_missing_items a request whose ingredients are not
all available yields a simulation plan listing what is missing; with
craft_less it fails with MISSING_INGREDIENTS.

Example:
  craftd plan ./networks/basic --key item:iron_gear --amount 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "key to craft, e.g. item:iron_gear (required)")
	_ = cmd.MarkFlagRequired("key")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 1, "amount to craft")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", string(ir.ReportMissingItems), "report_missing_items or craft_less")

	return cmd
}

func runPlan(opts *PlanOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	req, err := parseRequest(opts.Key, opts.Amount, opts.Strategy)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid request", err)
	}
	net, err := loadNetworkOrExit(f, dir)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := nodes.Build(net, nodes.WithLogger(logger))
	svc := crafting.New(engine.NewTickClock(),
		crafting.WithLogger(logger),
		crafting.WithCalculator(planner.New()),
		crafting.WithStock(g.Inventory),
	)
	g.Attach(svc)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := svc.BeginCalculation(ctx, req).Wait(ctx)
	if err != nil {
		code := string(calc.CodeOf(err))
		if code == "" {
			code = ErrCodeGeneric
		}
		_ = f.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "calculation failed", err)
	}

	view, err := newPlanView(plan)
	if err != nil {
		return WrapExitError(ExitFailure, "render plan", err)
	}
	if f.JSON() {
		return f.Success(view)
	}
	outputPlanText(f.Writer, view)
	return nil
}

// parseRequest builds a calculation request from command-line values.
func parseRequest(key string, amount int64, strategy string) (*calc.Request, error) {
	k, err := ir.ParseKey(key)
	if err != nil {
		return nil, err
	}
	req := &calc.Request{What: k, Amount: amount, Strategy: ir.Strategy(strategy), Source: cliSource}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func newPlanView(p *ir.Plan) (PlanView, error) {
	digest, err := ir.PlanDigest(p)
	if err != nil {
		return PlanView{}, err
	}
	v := PlanView{
		Request:    p.Request.What.String(),
		Amount:     p.Request.Amount,
		Bytes:      p.Bytes,
		Simulation: p.Simulation,
		Digest:     digest,
		Steps:      make([]PlanStepView, 0, len(p.Steps)),
		Used:       stackMap(p.Used),
		Emitted:    stackMap(p.Emitted),
		Missing:    stackMap(p.Missing),
	}
	for _, st := range p.Steps {
		v.Steps = append(v.Steps, PlanStepView{
			Pattern: st.Pattern.Name(),
			Output:  st.Pattern.PrimaryOutput().String(),
			Times:   st.Times,
		})
	}
	return v, nil
}

func stackMap(stacks []ir.Stack) map[string]int64 {
	if len(stacks) == 0 {
		return nil
	}
	m := make(map[string]int64, len(stacks))
	for _, s := range stacks {
		m[s.What.String()] = s.Amount
	}
	return m
}

func outputPlanText(w io.Writer, v PlanView) {
	fmt.Fprintf(w, "Plan for %dx%s (%d bytes)\n", v.Amount, v.Request, v.Bytes)
	if v.Simulation {
		fmt.Fprintln(w, "SIMULATION: ingredients are missing, the plan cannot be submitted")
	}
	fmt.Fprintln(w, "Steps:")
	for _, st := range v.Steps {
		fmt.Fprintf(w, "  %-16s %s x%d\n", st.Pattern, st.Output, st.Times)
	}
	printStacks(w, "Used", v.Used)
	printStacks(w, "Emitted", v.Emitted)
	printStacks(w, "Missing", v.Missing)
}

func printStacks(w io.Writer, title string, m map[string]int64) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(w, "  %dx%s\n", m[k], k)
	}
}
