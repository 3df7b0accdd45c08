package errors

import (
	stderr "errors"
	"fmt"

	"github.com/gofrs/uuid"
)

// UUIDNotFoundError is a service domain error for not found.
type UUIDNotFoundError struct {
	UUID uuid.UUID
}

// Error is an implementation of the error interface.
func (n *UUIDNotFoundError) Error() string {
	return fmt.Sprintf("UUID %q not found", n.UUID)
}

// NotFoundUUID returns an UUID and true if UUIDNotFoundError is part of the
// error chain.
func NotFoundUUID(e error) (_ uuid.UUID, ok bool) {
	var nf *UUIDNotFoundError
	if !stderr.As(e, &nf) {
		return uuid.Nil, false
	}
	return nf.UUID, true
}

// SessionNotFoundError indicates that the session id given on the wire is unknown to the connection.
type SessionNotFoundError struct {
	Session string
}

// Error is an implementation of the error interface.
func (n *SessionNotFoundError) Error() string {
	return fmt.Sprintf("unknown session %q", n.Session)
}

// SnapshotNotFoundError indicates that no snapshot exists under the given name.
type SnapshotNotFoundError struct {
	Name string
}

// Error is an implementation of the error interface.
func (n *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("No such snapshot: %s", n.Name)
}

// TypeNotFoundError indicates that a type is not loaded in the type space.
type TypeNotFoundError struct {
	Name string
}

// Error is an implementation of the error interface.
func (n *TypeNotFoundError) Error() string {
	return fmt.Sprintf("type %q is not loaded", n.Name)
}

// ComponentNotFoundError indicates that a container has no component or import under the given name.
type ComponentNotFoundError struct {
	Name string
}

// Error is an implementation of the error interface.
func (n *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("no component named %q", n.Name)
}

// IsNotFound reports whether any not-found error is part of the error chain.
func IsNotFound(e error) bool {
	var (
		u *UUIDNotFoundError
		s *SessionNotFoundError
		n *SnapshotNotFoundError
		t *TypeNotFoundError
		c *ComponentNotFoundError
	)
	return stderr.As(e, &u) || stderr.As(e, &s) || stderr.As(e, &n) || stderr.As(e, &t) || stderr.As(e, &c)
}
