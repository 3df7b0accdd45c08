package factory

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
)

var _requestID atomic.Int64

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// Request is a factory for a wire request with a fresh id. kv holds alternating keys and values.
func Request(op string, kv ...string) wire.Message {
	msg := wire.Message{
		"op": op,
		"id": strconv.FormatInt(_requestID.Add(1), 10),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		msg[kv[i]] = kv[i+1]
	}
	return msg
}

// Session is a factory for a session entity owned by the given connection.
func Session(connection uuid.UUID, engine entity.Engine) *entity.Session {
	return &entity.Session{
		UUID:         UUID(),
		ConnectionID: connection,
		Engine:       engine,
		CreatedAt:    time.Now(),
	}
}

// LiveSnapshot is a factory for a live snapshot entry.
func LiveSnapshot(name string, value any) *entity.SnapshotEntry {
	return &entity.SnapshotEntry{
		Name:      name,
		TypeName:  "string",
		Mode:      entity.SnapshotLive,
		Timestamp: time.Now(),
		Value:     value,
	}
}
