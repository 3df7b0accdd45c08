package errors

import (
	"fmt"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsBadRequest(t *testing.T) {
	nb := New("not bad request")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "no session on wire",
			err:  NoSessionOnWireError,
			want: true,
		},
		{
			name: "no code on wire",
			err:  fmt.Errorf("eval: %w", NoCodeOnWireError),
			want: true,
		},
		{
			name: "no expr on wire",
			err:  NoExprOnWireError,
			want: true,
		},
		{
			name: "no type on wire",
			err:  fmt.Errorf("materialize: %w", NoTypeOnWireError),
			want: true,
		},
		{
			name: "no context bound",
			err:  ErrNoContextBound,
			want: false,
		},
		{
			name: "no name on wire",
			err:  NoNameOnWireError,
			want: true,
		},
		{
			name: "not bad request",
			err:  nb,
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsBadRequest(tt.err))
		})
	}
}

func TestCustomErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{name: "uuid not found", err: &UUIDNotFoundError{}, notFound: true},
		{name: "session not found", err: &SessionNotFoundError{Session: "abc"}, notFound: true},
		{name: "snapshot not found", err: &SnapshotNotFoundError{Name: "snap"}, notFound: true},
		{name: "type not found", err: &TypeNotFoundError{Name: "billing.Invoice"}, notFound: true},
		{name: "component not found", err: &ComponentNotFoundError{Name: "db"}, notFound: true},
		{name: "frame", err: &FrameError{Offset: 3, Reason: "bad"}},
		{name: "frame size", err: &FrameSizeLimitError{Size: 10, Limit: 5}},
		{name: "capability", err: &CapabilityError{Capability: "Loader", TypeName: "x"}},
		{name: "incompatible change", err: &IncompatibleChangeError{TypeName: "a.B", Detail: "field removed"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.err)
			assert.True(t, len(tt.err.Error()) > 0)
			assert.Equal(t, tt.notFound, IsNotFound(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestNotFoundUUID(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	got, ok := NotFoundUUID(fmt.Errorf("lookup: %w", &UUIDNotFoundError{UUID: id}))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	got, ok = NotFoundUUID(New("other"))
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, got)
}

func TestSnapshotNotFoundMessage(t *testing.T) {
	assert.Equal(t, "No such snapshot: orders", (&SnapshotNotFoundError{Name: "orders"}).Error())
}
