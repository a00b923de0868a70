package stats

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Host telemetry keys, namespaced to keep them apart from console
// readings in the merged mapping.
const (
	KeyHostCPU  = "host_cpu"
	KeyHostMem  = "host_mem"
	KeyHostLoad = "host_load"
)

// HostProvider reports telemetry for the machine running the engine.
// Useful when the engine runs on a media PC whose health the same
// dashboards want to see.
type HostProvider struct{}

func NewHostProvider() *HostProvider {
	return &HostProvider{}
}

func (p *HostProvider) Name() string { return "host" }

func (p *HostProvider) Poll(ctx context.Context) (map[string]string, error) {
	values := map[string]string{
		KeyHostCPU:  ValueUnavailable,
		KeyHostMem:  ValueUnavailable,
		KeyHostLoad: ValueUnavailable,
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		values[KeyHostCPU] = fmt.Sprintf("%.1f%%", percents[0])
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		values[KeyHostMem] = fmt.Sprintf("%.1f%%", vm.UsedPercent)
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		values[KeyHostLoad] = fmt.Sprintf("%.2f", avg.Load1)
	}

	return values, nil
}
