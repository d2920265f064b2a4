package crafting

import (
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
	"github.com/Mithi83/Applied-Energistics-2/internal/registry"
)

// AddNode attaches n. Attaching an id that is already attached replaces
// the earlier node.
//
// A provider may have been mounted for n before it attached, so any
// existing provider registration for n is dropped before remounting.
// A provider already mounted elsewhere panics before anything changes.
func (s *Service) AddNode(n *grid.Node) {
	if n == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "nil node")
	}
	id := n.ID()
	if p, ok := grid.Lookup[registry.Provider](n, grid.CapProvider); ok {
		s.providers.CheckUnique(id, p)
	}
	if _, ok := s.nodes[id]; ok {
		s.RemoveNode(id)
	}
	s.nodes[id] = n

	s.providers.RemoveNodeProvider(id)
	if p, ok := grid.Lookup[registry.Provider](n, grid.CapProvider); ok {
		s.providers.AddNodeProvider(id, p)
	}

	if host, ok := grid.Lookup[WatcherNode](n, grid.CapWatcher); ok {
		w := s.interests.Subscribe(string(id), host)
		s.watchers[id] = w
		host.UpdateWatcher(w)
	}

	if r, ok := grid.Lookup[link.Requester](n, grid.CapRequester); ok {
		s.requesters[r] = id
		for _, l := range r.RequestedJobs() {
			s.tracker.Attach(l)
		}
	}

	if c, ok := grid.Lookup[cpu.Cluster](n, grid.CapCPU); ok {
		s.cpuNodes[id] = c
		s.updateList = true
	}

	s.logger.Debug("node attached", "node", string(id), "capabilities", n.Capabilities().Tags())
	s.emit(Event{Kind: EventNodeAttached, Node: string(id)})
}

// RemoveNode detaches the node with id. Unknown ids are ignored.
func (s *Service) RemoveNode(id grid.NodeID) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)

	if w, ok := s.watchers[id]; ok {
		w.Destroy()
		delete(s.watchers, id)
	}

	if r, ok := grid.Lookup[link.Requester](n, grid.CapRequester); ok {
		s.tracker.DetachRequester(r)
		delete(s.requesters, r)
	}

	s.providers.RemoveNodeProvider(id)

	if _, ok := s.cpuNodes[id]; ok {
		delete(s.cpuNodes, id)
		s.updateList = true
	}

	s.logger.Debug("node detached", "node", string(id))
	s.emit(Event{Kind: EventNodeDetached, Node: string(id)})
}

// Node returns the attached node with id.
func (s *Service) Node(id grid.NodeID) (*grid.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// RefreshNodeProvider remounts the provider of an attached node with a
// fresh snapshot of its patterns.
func (s *Service) RefreshNodeProvider(id grid.NodeID) {
	n, ok := s.nodes[id]
	if !ok {
		ir.Violation(ir.ErrCodeUnknownNode, "refresh provider of unattached node %s", id)
	}
	s.providers.RemoveNodeProvider(id)
	if p, ok := grid.Lookup[registry.Provider](n, grid.CapProvider); ok {
		s.providers.AddNodeProvider(id, p)
	}
}

// AddGlobalProvider mounts a provider that has no node.
func (s *Service) AddGlobalProvider(p registry.Provider) {
	s.providers.AddGlobalProvider(p)
}

// RemoveGlobalProvider unmounts a global provider.
func (s *Service) RemoveGlobalProvider(p registry.Provider) {
	s.providers.RemoveGlobalProvider(p)
}

// RefreshGlobalProvider remounts a global provider.
func (s *Service) RefreshGlobalProvider(p registry.Provider) {
	s.providers.RemoveGlobalProvider(p)
	s.providers.AddGlobalProvider(p)
}

// rebuildClusters replaces the live cluster list from the attached CPU
// nodes, in node id order, and re-ties every running job's CPU link.
func (s *Service) rebuildClusters() {
	ids := make([]grid.NodeID, 0, len(s.cpuNodes))
	for id := range s.cpuNodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	s.clusters = s.clusters[:0]
	for _, id := range ids {
		c := s.cpuNodes[id]
		s.clusters = append(s.clusters, c)
		if l := c.LastLink(); l != nil {
			s.tracker.Attach(l)
		}
	}
	s.logger.Debug("cpu clusters rebuilt", "count", len(s.clusters))
}

// HasCPU reports whether c is in the live cluster list.
func (s *Service) HasCPU(c cpu.Cluster) bool {
	return slices.Contains(s.clusters, c)
}

// linkEnv answers link liveness questions for the tracker.
type linkEnv struct{ s *Service }

func (e linkEnv) HasCPU(l *link.Link) bool {
	c, ok := l.Owner().(cpu.Cluster)
	return ok && e.s.HasCPU(c)
}

func (e linkEnv) HasRequester(l *link.Link) bool {
	r := l.Requester()
	if r == nil {
		return false
	}
	_, ok := e.s.requesters[r]
	return ok
}
