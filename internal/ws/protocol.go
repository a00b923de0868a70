package ws

import (
	"github.com/consolewatch/backend/internal/activity"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgUpdate   MessageType = "update"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Snapshot activity.Snapshot `json:"snapshot"`
}
