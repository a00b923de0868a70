package ws

import (
	"github.com/consolewatch/backend/internal/activity"
)

// The Broadcaster plugs straight into the dispatcher as a sink.

func (b *Broadcaster) Name() string { return "websocket" }

func (b *Broadcaster) OnUpdate(snap activity.Snapshot) error {
	b.Publish(snap)
	return nil
}

func (b *Broadcaster) Close() error {
	b.closeAll()
	return nil
}
