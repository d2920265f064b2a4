package crafting

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
	"github.com/Mithi83/Applied-Energistics-2/internal/registry"
)

// WatcherNode is the watcher capability of a node. UpdateWatcher hands the
// node its registration so it can declare keys.
type WatcherNode interface {
	interest.Host
	UpdateWatcher(w *interest.Watch)
}

// Service is the crafting service of one network.
type Service struct {
	clock TickSource

	providers *registry.Providers
	interests *interest.Index
	tracker   *link.Tracker

	nodes      map[grid.NodeID]*grid.Node
	watchers   map[grid.NodeID]*interest.Watch
	requesters map[link.Requester]grid.NodeID
	cpuNodes   map[grid.NodeID]cpu.Cluster
	clusters   []cpu.Cluster
	updateList bool

	// Jobs without a requester have no nexus; they are watched here until
	// their link reports an outcome.
	unlinked map[uuid.UUID]*link.Link

	crafting          interest.SetTracker
	craftable         interest.SetTracker
	lastCraftingTick  int64
	lastCraftableTick int64

	interestOpts []interest.Option

	topo       calc.TopologyCache
	pool       *calc.Pool
	calculator calc.Calculator
	stock      Stock

	cfg      Config
	logger   *slog.Logger
	jobIDs   JobIDGenerator
	recorder Recorder
	events   EventSink
	journal  Journal
}

// Config holds the service's tuning knobs.
type Config struct {
	// CraftableRefreshTicks is the minimum number of ticks between two
	// craftable-set recomputations.
	CraftableRefreshTicks int64
	// CraftingRefreshTicks is the same for the currently-crafting set.
	CraftingRefreshTicks int64
	// LinkGraceTicks is how long a job link survives with a missing end.
	LinkGraceTicks int64
}

// DefaultConfig recomputes both sets every tick and keeps orphaned links
// for 60 ticks.
func DefaultConfig() Config {
	return Config{
		CraftableRefreshTicks: 1,
		CraftingRefreshTicks:  1,
		LinkGraceTicks:        link.DefaultGraceTicks,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets tuning knobs.
func WithConfig(c Config) Option {
	return func(s *Service) { s.cfg = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPool sets the calculation pool.
func WithPool(p *calc.Pool) Option {
	return func(s *Service) { s.pool = p }
}

// WithCalculator sets the planning algorithm.
func WithCalculator(c calc.Calculator) Option {
	return func(s *Service) { s.calculator = c }
}

// WithStock sets the stock reported to calculations.
func WithStock(st Stock) Option {
	return func(s *Service) { s.stock = st }
}

// WithJobIDs sets the job id generator.
func WithJobIDs(g JobIDGenerator) Option {
	return func(s *Service) { s.jobIDs = g }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithEvents sets the audit event sink.
func WithEvents(e EventSink) Option {
	return func(s *Service) { s.events = e }
}

// WithJournal sets the job journal.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithInterestOptions passes options to the watcher index.
func WithInterestOptions(opts ...interest.Option) Option {
	return func(s *Service) { s.interestOpts = append(s.interestOpts, opts...) }
}

type uuidV7 struct{}

func (uuidV7) NewJobID() uuid.UUID { return uuid.Must(uuid.NewV7()) }

// New creates a service reading ticks from clock. A calculator must be
// supplied before BeginCalculation is used.
func New(clock TickSource, opts ...Option) *Service {
	s := &Service{
		clock:      clock,
		providers:  registry.New(),
		nodes:      make(map[grid.NodeID]*grid.Node),
		watchers:   make(map[grid.NodeID]*interest.Watch),
		requesters: make(map[link.Requester]grid.NodeID),
		cpuNodes:   make(map[grid.NodeID]cpu.Cluster),
		unlinked:   make(map[uuid.UUID]*link.Link),
		cfg:        DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.pool == nil {
		s.pool = calc.NewPool(calc.WithPoolLogger(s.logger))
	}
	if s.jobIDs == nil {
		s.jobIDs = uuidV7{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.cfg.CraftableRefreshTicks < 1 {
		s.cfg.CraftableRefreshTicks = 1
	}
	if s.cfg.CraftingRefreshTicks < 1 {
		s.cfg.CraftingRefreshTicks = 1
	}

	s.interests = interest.NewIndex(append([]interest.Option{interest.WithLogger(s.logger)}, s.interestOpts...)...)
	s.tracker = link.NewTracker(s.cfg.LinkGraceTicks, s.logger)
	s.lastCraftingTick = clock.Current()
	s.lastCraftableTick = clock.Current()
	return s
}

// Providers exposes the provider registry for read access.
func (s *Service) Providers() *registry.Providers { return s.providers }

// Interests exposes the watcher index.
func (s *Service) Interests() *interest.Index { return s.interests }

// Tracker exposes the link tracker.
func (s *Service) Tracker() *link.Tracker { return s.tracker }

// Pool exposes the calculation pool.
func (s *Service) Pool() *calc.Pool { return s.pool }

func (s *Service) emit(ev Event) {
	if s.events == nil {
		return
	}
	ev.Tick = s.clock.Current()
	s.events.Record(ev)
}
