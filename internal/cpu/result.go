package cpu

import (
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
)

// SubmitCode classifies the outcome of a job submission.
type SubmitCode string

const (
	SubmitOK             SubmitCode = "OK"
	SubmitIncompletePlan SubmitCode = "INCOMPLETE_PLAN"
	SubmitNoCPUFound     SubmitCode = "NO_CPU_FOUND"
	SubmitNoSuitableCPU  SubmitCode = "NO_SUITABLE_CPU_FOUND"
	SubmitCPUBusy        SubmitCode = "CPU_BUSY"
	SubmitCPUOffline     SubmitCode = "CPU_OFFLINE"
	SubmitCPUTooSmall    SubmitCode = "CPU_TOO_SMALL"
	SubmitMissingInput   SubmitCode = "MISSING_INGREDIENT"
)

// UnsuitableCPUs counts why clusters were rejected during selection.
type UnsuitableCPUs struct {
	Offline  int `json:"offline"`
	Busy     int `json:"busy"`
	TooSmall int `json:"too_small"`
	Excluded int `json:"excluded"`
}

// Any reports whether any cluster was rejected.
func (u UnsuitableCPUs) Any() bool {
	return u.Offline > 0 || u.Busy > 0 || u.TooSmall > 0 || u.Excluded > 0
}

func (u UnsuitableCPUs) String() string {
	return fmt.Sprintf("offline=%d busy=%d too_small=%d excluded=%d", u.Offline, u.Busy, u.TooSmall, u.Excluded)
}

// SubmitResult is the outcome of a submission. It is a value, not an
// error: failing to find a CPU is normal operation.
type SubmitResult struct {
	Code SubmitCode
	// Link is the job's link when Code is SubmitOK. Clusters return their
	// own end; the service hands the requester end back to its caller.
	Link *link.Link
	// Cluster is the cluster that accepted the job.
	Cluster Cluster
	// Unsuitable is set for SubmitNoSuitableCPU.
	Unsuitable *UnsuitableCPUs
	// Missing is set for SubmitMissingInput.
	Missing *ir.Stack
}

// Successful reports whether the job was accepted.
func (r SubmitResult) Successful() bool { return r.Code == SubmitOK }

func (r SubmitResult) String() string {
	switch {
	case r.Unsuitable != nil:
		return fmt.Sprintf("%s (%s)", r.Code, r.Unsuitable)
	case r.Missing != nil:
		return fmt.Sprintf("%s (%s)", r.Code, r.Missing)
	}
	return string(r.Code)
}

// Accepted builds a successful result.
func Accepted(c Cluster, l *link.Link) SubmitResult {
	return SubmitResult{Code: SubmitOK, Cluster: c, Link: l}
}

// Rejected builds a result with no extra payload.
func Rejected(code SubmitCode) SubmitResult {
	return SubmitResult{Code: code}
}
