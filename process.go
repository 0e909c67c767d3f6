package launchd

import (
	"context"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo describes the live process behind a running job
type ProcessInfo struct {
	PID        int       `json:"pid"`
	Name       string    `json:"name"`
	Cmdline    string    `json:"cmdline"`
	RSS        uint64    `json:"rss_bytes"`
	CPUPercent float64   `json:"cpu_percent"`
	StartedAt  time.Time `json:"started_at"`
}

// LookupProcess returns details for pid. Fields the OS refuses to report
// are left zero.
func LookupProcess(ctx context.Context, pid int) (*ProcessInfo, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, newOpError(OpDetail, strconv.Itoa(pid), ErrNotFound, err)
	}

	info := &ProcessInfo{PID: pid}
	if name, err := p.NameWithContext(ctx); err == nil {
		info.Name = name
	}
	if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
		info.Cmdline = cmdline
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		info.RSS = mem.RSS
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		info.CPUPercent = cpu
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil {
		info.StartedAt = time.UnixMilli(ms)
	}
	return info, nil
}

// ProcessInfo returns process details for a running job, or nil when the
// job has no pid
func (j *Job) ProcessInfo(ctx context.Context) (*ProcessInfo, error) {
	if j.PID == nil {
		return nil, nil
	}
	return LookupProcess(ctx, *j.PID)
}
