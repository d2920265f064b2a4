package crafting

import (
	"context"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
)

// SubmitResult is the outcome of SubmitJob.
type SubmitResult = cpu.SubmitResult

// BeginCalculation starts calculating a plan for req off the tick
// goroutine and returns its future.
//
// A nil ctx or req, or a malformed req, is a contract violation and
// panics. The calculation reads a snapshot taken now; later topology
// changes do not affect it.
func (s *Service) BeginCalculation(ctx context.Context, req *calc.Request) *calc.Future {
	if ctx == nil || req == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "invalid crafting job request")
	}
	if err := req.Validate(); err != nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "%v", err)
	}
	if s.calculator == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "no calculator configured")
	}
	var stock map[ir.Key]int64
	if s.stock != nil {
		stock = s.stock.Available()
	}
	snap := calc.NewSnapshot(s.topo.Get(s.providers), stock)
	return s.pool.Submit(ctx, s.calculator, snap, *req)
}

// SubmitRequest carries the optional parts of a submission.
type SubmitRequest struct {
	// Requester waits for the job. Nil submits a job nobody waits for.
	Requester link.Requester
	// Target bypasses CPU selection.
	Target cpu.Cluster
	// PrioritizePower prefers clusters with more co-processors.
	PrioritizePower bool
	// Source identifies who asked; CPU policies are keyed by it.
	Source grid.ActionSource
	// Name labels the requester in the journal.
	Name string
}

// SubmitJob dispatches plan to a cluster.
//
// Simulation plans are rejected with INCOMPLETE_PLAN. Without a target,
// a cluster is selected; NO_CPU_FOUND means there are no clusters at all,
// NO_SUITABLE_CPU_FOUND carries the reasons every cluster was rejected.
// On success the result's Link is the requester end of the job (the CPU
// end for requester-less jobs), already tied to its nexus.
func (s *Service) SubmitJob(plan *ir.Plan, req SubmitRequest) SubmitResult {
	if plan == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "nil plan")
	}
	res := s.submit(plan, req)
	s.recorder.JobSubmitted(res.Code)
	if !res.Successful() {
		s.logger.Info("job rejected",
			"request", plan.Request.String(),
			"code", string(res.Code),
			"detail", res.String())
		s.emit(Event{Kind: EventJobRejected, Key: plan.Request.What.String(), Code: string(res.Code)})
	}
	return res
}

func (s *Service) submit(plan *ir.Plan, req SubmitRequest) SubmitResult {
	if plan.Simulation {
		return cpu.Rejected(cpu.SubmitIncompletePlan)
	}

	target := req.Target
	if target == nil {
		var unsuitable *cpu.UnsuitableCPUs
		target, unsuitable = cpu.FindSuitable(s.clusters, plan, req.PrioritizePower, req.Source)
		if target == nil {
			if unsuitable == nil {
				return cpu.Rejected(cpu.SubmitNoCPUFound)
			}
			return SubmitResult{Code: cpu.SubmitNoSuitableCPU, Unsuitable: unsuitable}
		}
	}

	id := s.jobIDs.NewJobID()
	res := target.SubmitJob(cpu.Job{ID: id, Plan: plan, Source: req.Source, Requester: req.Requester})
	if !res.Successful() {
		return res
	}
	if res.Cluster == nil {
		res.Cluster = target
	}

	cpuLink := res.Link
	if req.Requester != nil {
		s.tracker.Attach(cpuLink)
		reqLink := link.NewRequesterLink(id, req.Requester)
		s.tracker.Attach(reqLink)
		res.Link = reqLink
	} else {
		s.unlinked[id] = cpuLink
	}

	now := s.clock.Current()
	s.logger.Info("job submitted",
		"job_id", id.String(),
		"cpu", target.Name(),
		"request", plan.Request.String(),
		"bytes", plan.Bytes,
		"source", req.Source.String())
	s.emit(Event{Kind: EventJobSubmitted, JobID: id.String(), CPU: target.Name(), Key: plan.Request.What.String()})
	if s.journal != nil {
		digest, err := ir.PlanDigest(plan)
		if err != nil {
			s.logger.Warn("plan digest failed", "job_id", id.String(), "error", err)
		}
		err = s.journal.JobSubmitted(JobRecord{
			ID:         id,
			Tick:       now,
			CPU:        target.Name(),
			Source:     req.Source.String(),
			Request:    plan.Request,
			Bytes:      plan.Bytes,
			Requester:  req.Name,
			PlanDigest: digest,
		})
		if err != nil {
			s.logger.Error("journal job submit failed", "job_id", id.String(), "error", err)
		}
	}
	return res
}
