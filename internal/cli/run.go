package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/compiler"
	"github.com/Mithi83/Applied-Energistics-2/internal/config"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/engine"
	"github.com/Mithi83/Applied-Energistics-2/internal/eventlog"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/metrics"
	"github.com/Mithi83/Applied-Energistics-2/internal/nodes"
	"github.com/Mithi83/Applied-Energistics-2/internal/planner"
	"github.com/Mithi83/Applied-Energistics-2/internal/store"
	"github.com/Mithi83/Applied-Energistics-2/internal/transport/ws"
)

const shutdownTimeout = 5 * time.Second

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config    string
	Database  string
	Ticks     int64
	Requests  []string
	Requester string
}

// RequestOutcome is what happened to one --request.
type RequestOutcome struct {
	Request string `json:"request"`
	Code    string `json:"code"`
	CPU     string `json:"cpu,omitempty"`
	JobID   string `json:"job_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunSummary is printed when the engine stops.
type RunSummary struct {
	Ticks     int64            `json:"ticks"`
	Requests  []RequestOutcome `json:"requests"`
	Craftable int              `json:"craftable"`
	Crafting  []string         `json:"crafting"`
	OpenJobs  int              `json:"open_jobs"`
	Stock     map[string]int64 `json:"stock"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <netdef-dir>",
		Short: "Run the crafting service",
		Long: `Build the network from a CUE definition and run the crafting service
on the single-writer tick loop.

Tuning comes from --config (defaults apply when the file is missing).
With --db, jobs are journaled and the running jobs of every requester are
restored on start. /metrics and /ws are served when metrics_addr and
ws_addr are set; event_log_dir enables the compressed event log.

--request key=amount (repeatable) calculates and submits a job once the
loop is running, on behalf of --requester if given.

Examples:
  craftd run ./networks/basic --db ./jobs.db
  craftd run ./networks/basic --ticks 100 --request item:iron_gear=4 --requester assembler`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", config.DefaultFile, "path to service tuning file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite job journal")
	cmd.Flags().Int64Var(&opts.Ticks, "ticks", 0, "stop after N ticks (0 runs until interrupted)")
	cmd.Flags().StringArrayVar(&opts.Requests, "request", nil, "submit key=amount once running (repeatable)")
	cmd.Flags().StringVar(&opts.Requester, "requester", "", "requester node that waits for --request jobs")

	return cmd
}

func runService(opts *RunOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), level)

	requests := make([]*calc.Request, 0, len(opts.Requests))
	for _, raw := range opts.Requests {
		req, err := parseRequestFlag(raw)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --request", err)
		}
		requests = append(requests, req)
	}

	net, err := loadNetworkOrExit(f, dir)
	if err != nil {
		return err
	}
	if errs := compiler.Validate(net); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("invalid network", "code", e.Code, "field", e.Field, "message", e.Message)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("network has %d validation error(s)", len(errs)))
	}
	for _, w := range compiler.AnalyzeCycles(net) {
		logger.Warn(w.Message, "path", w.Path)
	}

	g := nodes.Build(net, nodes.WithLogger(logger))
	var requester *nodes.Requester
	if opts.Requester != "" {
		if requester, err = g.Requester(opts.Requester); err != nil {
			return WrapExitError(ExitCommandError, "invalid --requester", err)
		}
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	reg := prometheus.NewRegistry()
	collectors := metrics.New(reg)
	clock := engine.NewTickClock()
	pool := calc.NewPool(
		calc.WithTimeout(cfg.CalcTimeout()),
		calc.WithPoolLogger(logger),
		calc.WithObserver(collectors.CalcObserver()),
	)
	svcOpts := []crafting.Option{
		crafting.WithConfig(cfg.Service()),
		crafting.WithLogger(logger),
		crafting.WithPool(pool),
		crafting.WithCalculator(planner.New()),
		crafting.WithStock(g.Inventory),
		crafting.WithRecorder(collectors),
		crafting.WithInterestOptions(interest.WithFailureHook(collectors.WatcherFailure())),
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		if err := restoreRequesters(ctx, st, g, logger); err != nil {
			return WrapExitError(ExitCommandError, "failed to restore jobs", err)
		}
		svcOpts = append(svcOpts, crafting.WithJournal(store.NewJournal(st, store.DefaultJournalTimeout, logger)))
	}

	if cfg.EventLogDir != "" {
		sink := eventlog.NewSink(eventlog.NewWriter(cfg.EventLogDir, "events"), 0, logger)
		defer func() {
			if closeErr := sink.Close(); closeErr != nil {
				logger.Error("error closing event log", "error", closeErr)
			}
			if n := sink.Dropped(); n > 0 {
				logger.Warn("event log dropped events", "count", n)
			}
		}()
		svcOpts = append(svcOpts, crafting.WithEvents(sink))
	}

	svc := crafting.New(clock, svcOpts...)

	muxes := make(map[string]*http.ServeMux)
	mux := func(addr string) *http.ServeMux {
		if m, ok := muxes[addr]; ok {
			return m
		}
		m := http.NewServeMux()
		muxes[addr] = m
		return m
	}
	if cfg.MetricsAddr != "" {
		mux(cfg.MetricsAddr).Handle("/metrics", metrics.Handler(reg))
	}
	if cfg.WSAddr != "" {
		bridge := ws.NewBridge(clock, logger)
		svc.AddNode(grid.NewNode("ws").With(grid.CapWatcher, crafting.WatcherNode(bridge)))
		mux(cfg.WSAddr).Handle("/ws", ws.NewServer(bridge, logger).Handler())
	}
	g.Attach(svc)

	for addr, m := range muxes {
		srv := &http.Server{Addr: addr, Handler: m, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("http listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", "addr", addr, "error", err)
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	eng := engine.New(svc, clock,
		engine.WithTickRate(cfg.TickRateHz),
		engine.WithMaxTicks(opts.Ticks),
		engine.WithLogger(logger),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var (
		wg       sync.WaitGroup
		outcomes []RequestOutcome
	)
	if len(requests) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes = submitRequests(ctx, eng, requests, requester, logger)
		}()
	}

	if !f.JSON() {
		fmt.Fprintln(f.Writer, "Engine started. Press Ctrl-C to stop.")
	}
	runErr := eng.Run(ctx)
	cancel()
	wg.Wait()
	pool.Close()

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}
	logger.Info("engine stopped gracefully", "tick", clock.Current())

	summary := summarize(svc, g, clock.Current(), outcomes)
	if f.JSON() {
		return f.Success(summary)
	}
	outputRunText(f.Writer, summary)
	return nil
}

// parseRequestFlag parses key=amount. A bare key means amount 1.
func parseRequestFlag(raw string) (*calc.Request, error) {
	key, amountStr, found := strings.Cut(raw, "=")
	amount := int64(1)
	if found {
		n, err := strconv.ParseInt(amountStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: amount: %w", raw, err)
		}
		amount = n
	}
	return parseRequest(key, amount, string(ir.ReportMissingItems))
}

// restoreRequesters gives every requester back the running jobs journaled
// under its name. Links whose CPU end does not come back are canceled
// after the grace period.
func restoreRequesters(ctx context.Context, st *store.Store, g *nodes.Grid, logger *slog.Logger) error {
	for name, r := range g.Requesters {
		jobs, err := st.JobsForRequester(ctx, name)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			continue
		}
		ids := make([]ir.JobID, len(jobs))
		for i, j := range jobs {
			ids[i] = j.ID
		}
		r.Restore(ids...)
		logger.Info("restored jobs", "requester", name, "count", len(ids))
	}
	return nil
}

// submitRequests calculates and submits each request in turn. The
// calculation is started and the job submitted on the tick goroutine; the
// wait in between happens here.
func submitRequests(ctx context.Context, eng *engine.Engine, requests []*calc.Request, requester *nodes.Requester, logger *slog.Logger) []RequestOutcome {
	outcomes := make([]RequestOutcome, 0, len(requests))
	for _, req := range requests {
		if requester != nil {
			req.Source = requester.Source()
		}
		out := RequestOutcome{Request: req.String()}

		var future *calc.Future
		err := eng.Do(ctx, func(svc *crafting.Service) error {
			future = svc.BeginCalculation(ctx, req)
			return nil
		})
		var plan *ir.Plan
		if err == nil {
			plan, err = future.Wait(ctx)
		}
		if err != nil {
			out.Code = string(calc.CodeOf(err))
			out.Error = err.Error()
			logger.Warn("request failed", "request", out.Request, "error", err)
			outcomes = append(outcomes, out)
			continue
		}

		var res crafting.SubmitResult
		err = eng.Do(ctx, func(svc *crafting.Service) error {
			if requester != nil {
				res = requester.Submit(svc, plan)
			} else {
				res = svc.SubmitJob(plan, crafting.SubmitRequest{Source: req.Source})
			}
			return nil
		})
		if err != nil {
			out.Error = err.Error()
			outcomes = append(outcomes, out)
			continue
		}
		out.Code = string(res.Code)
		if res.Cluster != nil {
			out.CPU = res.Cluster.Name()
		}
		if res.Link != nil {
			out.JobID = res.Link.ID().String()
		}
		logger.Info("request submitted", "request", out.Request, "code", out.Code, "cpu", out.CPU, "job_id", out.JobID)
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// summarize reads the stopped service. It must not run while the engine
// is ticking.
func summarize(svc *crafting.Service, g *nodes.Grid, tick int64, outcomes []RequestOutcome) RunSummary {
	s := RunSummary{
		Ticks:     tick,
		Requests:  outcomes,
		Craftable: len(svc.CurrentlyCraftable()),
		Crafting:  []string{},
		OpenJobs:  svc.Tracker().Len(),
		Stock:     stackMap(g.Stock()),
	}
	if s.Requests == nil {
		s.Requests = []RequestOutcome{}
	}
	for _, k := range svc.CurrentlyCrafting() {
		s.Crafting = append(s.Crafting, k.String())
	}
	return s
}

func outputRunText(w io.Writer, s RunSummary) {
	fmt.Fprintf(w, "Stopped after %d ticks\n", s.Ticks)
	if len(s.Requests) > 0 {
		fmt.Fprintln(w, "Requests:")
		for _, r := range s.Requests {
			if r.Error != "" {
				fmt.Fprintf(w, "  %s  %s  %s\n", r.Request, r.Code, r.Error)
				continue
			}
			fmt.Fprintf(w, "  %s  %s  cpu=%s job=%s\n", r.Request, r.Code, r.CPU, r.JobID)
		}
	}
	fmt.Fprintf(w, "Craftable keys: %d\n", s.Craftable)
	fmt.Fprintf(w, "Open jobs: %d\n", s.OpenJobs)
	printStacks(w, "Stock", s.Stock)
}
