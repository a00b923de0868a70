package stats

import (
	"context"
	"log"
	"time"

	"github.com/consolewatch/backend/internal/dispatch"
)

const defaultPollInterval = 10 * time.Second

// Poller runs the configured providers on a fixed cadence and pushes
// the merged mapping into the dispatcher. Each push triggers a fresh
// snapshot dispatch even when no title transition occurred.
type Poller struct {
	providers  []Provider
	dispatcher *dispatch.Dispatcher
	interval   time.Duration
}

func NewPoller(dispatcher *dispatch.Dispatcher, interval time.Duration, providers ...Provider) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		providers:  providers,
		dispatcher: dispatcher,
		interval:   interval,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	if len(p.providers) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	merged := make(map[string]string)
	for _, provider := range p.providers {
		values, err := provider.Poll(ctx)
		if err != nil {
			log.Printf("[stats] %s: %v", provider.Name(), err)
			continue
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	if ctx.Err() != nil {
		return
	}
	p.dispatcher.UpdateStats(merged)
}
