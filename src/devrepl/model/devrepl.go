package model

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber/devrepl/src/devrepl/entity"
)

// Session is the repository layer model for an evaluation session.
type Session struct {
	UUID         uuid.UUID
	ConnectionID uuid.UUID
	Engine       entity.Engine
	CreatedAt    time.Time
}

// SnapshotEntry is the repository layer model for a snapshot store entry.
type SnapshotEntry struct {
	Name       string
	TypeName   string
	Mode       string
	Timestamp  time.Time
	ApproxSize int64
	Value      any
	Payload    string
}
