package entity

import (
	"fmt"
	"time"
)

// SnapshotMode tells how a snapshot entry holds its value.
type SnapshotMode string

const (
	// SnapshotLive entries hold a reference to the live object.
	SnapshotLive SnapshotMode = "live"
	// SnapshotJSON entries hold a JSON rendering and are persisted to disk.
	SnapshotJSON SnapshotMode = "json"
)

// SnapshotEntry is a named value kept by the snapshot store.
type SnapshotEntry struct {
	Name       string       `json:"name" zap:"name"`
	TypeName   string       `json:"type" zap:"type"`
	Mode       SnapshotMode `json:"mode" zap:"mode"`
	Timestamp  time.Time    `json:"timestamp" zap:"timestamp"`
	ApproxSize int64        `json:"approxSize" zap:"approxSize"`
	Value      any          `json:"-" zap:"-"`
	Payload    string       `json:"-" zap:"-"`
}

// TSV renders the entry as one snapshot-list row.
func (e *SnapshotEntry) TSV() string {
	return fmt.Sprintf("%s\t%s\t%s\t%d\t%d", e.Name, e.TypeName, e.Mode, e.Timestamp.UnixMilli(), e.ApproxSize)
}

// Info renders a human readable description of the entry.
func (e *SnapshotEntry) Info() string {
	return fmt.Sprintf("name=%s\ntype=%s\nmode=%s\ntimestamp=%s\nsize=%d",
		e.Name, e.TypeName, e.Mode, e.Timestamp.UTC().Format(time.RFC3339), e.ApproxSize)
}
