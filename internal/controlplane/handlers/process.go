package handlers

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo describes the running companion process.
type ProcessInfo struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	Goroutines int     `json:"goroutines"`
	StartedAt  string  `json:"startedAt,omitempty"`
	UptimeSecs int64   `json:"uptimeSecs"`
}

// selfProcess samples the current process. Figures the platform cannot
// provide are left at zero.
func selfProcess(now time.Time) *ProcessInfo {
	info := &ProcessInfo{
		PID:        int32(os.Getpid()),
		Goroutines: runtime.NumGoroutine(),
	}

	p, err := process.NewProcess(info.PID)
	if err != nil {
		return info
	}

	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		info.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		info.CPUPercent = cpu
	}
	if createdMs, err := p.CreateTime(); err == nil && createdMs > 0 {
		started := time.UnixMilli(createdMs)
		info.StartedAt = started.UTC().Format(time.RFC3339)
		if up := now.Sub(started); up > 0 {
			info.UptimeSecs = int64(up.Seconds())
		}
	}
	return info
}
