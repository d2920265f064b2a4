package crafting

import (
	"bytes"
	"slices"
	"time"

	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Tick runs one maintenance pass. It is the only entry point the tick
// driver calls.
func (s *Service) Tick() {
	start := time.Now()
	now := s.clock.Current()

	if s.updateList {
		s.updateList = false
		s.rebuildClusters()
		s.crafting.Invalidate()
	}

	for _, n := range s.tracker.Prune(linkEnv{s}) {
		state := JobDone
		if n.Canceled() {
			state = JobCanceled
		}
		s.finishJob(n.ID(), state, now)
	}

	env := cpu.Env{Tick: now, Mediums: s.providers.Mediums}
	var latest int64
	for _, c := range s.clusters {
		c.Tick(env)
		latest = max(latest, c.LastModified())
	}
	s.sweepUnlinked(now)

	if s.crafting.Stale(latest) && s.due(now, s.lastCraftingTick, s.cfg.CraftingRefreshTicks) {
		s.crafting.Mark(latest)
		s.lastCraftingTick = now
		s.refreshCrafting()
	}

	if stamp := s.providers.LastModified(); s.craftable.Stale(stamp) && s.due(now, s.lastCraftableTick, s.cfg.CraftableRefreshTicks) {
		s.craftable.Mark(stamp)
		s.lastCraftableTick = now
		s.refreshCraftable()
	}

	s.recorder.SetGauges(s.gauges())
	s.recorder.TickCompleted(time.Since(start))
}

func (s *Service) due(now, last, every int64) bool {
	return every <= 1 || now-last >= every
}

func (s *Service) refreshCrafting() {
	next := make(ir.KeySet)
	for _, c := range s.clusters {
		c.WaitingFor(next)
	}
	changed := s.crafting.Replace(next)
	s.broadcast(interest.Crafting, changed)
}

func (s *Service) refreshCraftable() {
	if s.craftable.Empty() && s.providers.Empty() {
		return
	}
	changed := s.craftable.Replace(s.providers.Craftables(nil))
	s.broadcast(interest.Craftable, changed)
}

// broadcast notifies watchers of changed keys. Nothing is delivered, and
// no events are logged, when no watcher is registered.
func (s *Service) broadcast(ch interest.Channel, changed []ir.Key) {
	if len(changed) == 0 || s.interests.Empty() {
		return
	}
	delivered := s.interests.Broadcast(ch, changed)
	s.recorder.Broadcast(ch, len(changed), delivered)

	kind := EventCraftableChanged
	if ch == interest.Crafting {
		kind = EventCraftingChanged
	}
	for _, k := range changed {
		s.emit(Event{Kind: kind, Key: k.String()})
	}
}

// sweepUnlinked finishes requester-less jobs whose link reported an
// outcome or whose cluster dropped them.
func (s *Service) sweepUnlinked(now int64) {
	if len(s.unlinked) == 0 {
		return
	}
	ids := make([]ir.JobID, 0, len(s.unlinked))
	for id := range s.unlinked {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ir.JobID) int { return bytes.Compare(a[:], b[:]) })
	for _, id := range ids {
		l := s.unlinked[id]
		state := JobState("")
		switch {
		case l.Done():
			state = JobDone
		case l.Canceled():
			state = JobCanceled
		default:
			c, ok := l.Owner().(cpu.Cluster)
			if !ok || !s.HasCPU(c) || c.LastLink() != l {
				state = JobCanceled
			}
		}
		if state != "" {
			delete(s.unlinked, id)
			s.finishJob(id, state, now)
		}
	}
}

func (s *Service) finishJob(id ir.JobID, state JobState, now int64) {
	s.recorder.JobFinished(state)
	s.emit(Event{Kind: EventJobFinished, JobID: id.String(), Code: string(state)})
	if s.journal != nil {
		if err := s.journal.JobFinished(id, state, now); err != nil {
			s.logger.Error("journal job finish failed", "job_id", id.String(), "error", err)
		}
	}
}

func (s *Service) gauges() Gauges {
	g := Gauges{
		Clusters:      len(s.clusters),
		Links:         s.tracker.Len() + len(s.unlinked),
		Watchers:      s.interests.Len(),
		CraftableKeys: s.craftable.Len(),
		CraftingKeys:  s.crafting.Len(),
	}
	for _, c := range s.clusters {
		if c.Busy() {
			g.BusyClusters++
		}
	}
	return g
}
