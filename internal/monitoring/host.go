package monitoring

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a point-in-time view of the machine the API runs on.
type HostStats struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	CPUs          int     `json:"cpus"`
	MemoryUsedPct float64 `json:"memoryUsedPercent"`
	MemoryTotal   uint64  `json:"memoryTotalBytes"`
	Goroutines    int     `json:"goroutines"`
}

// SampleHost collects host statistics. Fields the platform cannot report are
// left zero; only a failure of every probe is returned as an error.
func SampleHost(ctx context.Context) (HostStats, error) {
	stats := HostStats{
		OS:         runtime.GOOS,
		Goroutines: runtime.NumGoroutine(),
	}

	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}
	failures := 0

	if info, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = info.Hostname
		stats.UptimeSeconds = info.Uptime
	} else {
		keep(err)
		failures++
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryUsedPct = vm.UsedPercent
		stats.MemoryTotal = vm.Total
	} else {
		keep(err)
		failures++
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPUs = n
	} else {
		stats.CPUs = runtime.NumCPU()
		keep(err)
		failures++
	}

	if failures == 3 {
		return stats, firstErr
	}
	return stats, nil
}
