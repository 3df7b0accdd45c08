package mapper

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/model"
)

// SessionToModel maps a Session entity to its model equivalent.
func SessionToModel(s *entity.Session) *model.Session {
	return &model.Session{
		UUID:         s.UUID,
		ConnectionID: s.ConnectionID,
		Engine:       s.Engine,
		CreatedAt:    s.CreatedAt,
	}
}

// ModelToSession maps a model Session to its entity equivalent.
func ModelToSession(s *model.Session) (*entity.Session, error) {
	return &entity.Session{
		UUID:         s.UUID,
		ConnectionID: s.ConnectionID,
		Engine:       s.Engine,
		CreatedAt:    s.CreatedAt,
	}, nil
}

// SnapshotToModel maps a SnapshotEntry entity to its model equivalent.
func SnapshotToModel(e *entity.SnapshotEntry) *model.SnapshotEntry {
	return &model.SnapshotEntry{
		Name:       e.Name,
		TypeName:   e.TypeName,
		Mode:       string(e.Mode),
		Timestamp:  e.Timestamp,
		ApproxSize: e.ApproxSize,
		Value:      e.Value,
		Payload:    e.Payload,
	}
}

// ModelToSnapshot maps a model SnapshotEntry to its entity equivalent.
func ModelToSnapshot(e *model.SnapshotEntry) *entity.SnapshotEntry {
	return &entity.SnapshotEntry{
		Name:       e.Name,
		TypeName:   e.TypeName,
		Mode:       entity.SnapshotMode(e.Mode),
		Timestamp:  e.Timestamp,
		ApproxSize: e.ApproxSize,
		Value:      e.Value,
		Payload:    e.Payload,
	}
}

// ContextWithConnection returns a context carrying the connection UUID.
func ContextWithConnection(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, entity.ConnectionContextKey, id)
}

// ContextWithSession returns a context carrying the session UUID.
func ContextWithSession(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, entity.SessionContextKey, id)
}

// ContextToSessionUUID extracts the session UUID from a context.
func ContextToSessionUUID(ctx context.Context) (uuid.UUID, error) {
	s, ok := ctx.Value(entity.SessionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.NoSessionOnWireError
	}
	return s, nil
}

// ContextToConnectionUUID extracts the connection UUID from a context.
func ContextToConnectionUUID(ctx context.Context) (uuid.UUID, error) {
	c, ok := ctx.Value(entity.ConnectionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("no connection in context")
	}
	return c, nil
}
