package session

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"go.uber.org/goleak"
)

func TestSessionRepository(t *testing.T) {
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))
	t.Run("should Set and Get successfully", func(t *testing.T) {
		id := uuid.Must(uuid.NewV4())
		s := &entity.Session{
			UUID: id,
		}

		repository := New(testScope)

		err := repository.Set(context.Background(), s)
		require.NoError(t, err)
		val, err := repository.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, val.UUID)
	})

	t.Run("should fail to get something that was not Set", func(t *testing.T) {
		repository := New(testScope)

		id := uuid.Must(uuid.NewV4())
		_, err := repository.Get(context.Background(), id)
		require.Error(t, err)
		var nf *errors.UUIDNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, id, nf.UUID)
	})

	t.Run("should refuse nil", func(t *testing.T) {
		repository := New(testScope)
		assert.Error(t, repository.Set(context.Background(), nil))
	})
}

func TestGetFromContext(t *testing.T) {
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))
	t.Run("should get when uuid is in context", func(t *testing.T) {
		id := uuid.Must(uuid.NewV4())
		repository := New(testScope)
		ctx := context.WithValue(context.Background(), entity.SessionContextKey, id)
		require.NoError(t, repository.Set(ctx, &entity.Session{UUID: id}))
		val, err := repository.GetFromContext(ctx)
		assert.NoError(t, err)
		assert.Equal(t, id, val.UUID)
	})

	t.Run("should fail when uuid is missing from context", func(t *testing.T) {
		repository := New(testScope)

		_, err := repository.GetFromContext(context.Background())
		require.Error(t, err)
	})

	t.Run("should fail if context is not set in repository", func(t *testing.T) {
		repository := New(testScope)
		ctx := context.WithValue(context.Background(), entity.SessionContextKey, uuid.Must(uuid.NewV4()))
		_, err := repository.GetFromContext(ctx)
		assert.Error(t, err)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))
	repository := New(testScope)

	session1 := &entity.Session{
		UUID: uuid.Must(uuid.NewV4()),
	}
	session2 := &entity.Session{
		UUID: uuid.Must(uuid.NewV4()),
	}

	require.NoError(t, repository.Set(ctx, session1))
	require.NoError(t, repository.Set(ctx, session2))

	// First deletion is successful. Multiple deletions return no error.
	assert.NoError(t, repository.Delete(ctx, session2.UUID))
	assert.NoError(t, repository.Delete(ctx, session2.UUID))
	_, err := repository.Get(ctx, session2.UUID)
	assert.Error(t, err)

	// Other session unaffected.
	result, err := repository.Get(ctx, session1.UUID)
	assert.NoError(t, err)
	assert.Equal(t, session1, result)
}

func TestSessionCountAndGauge(t *testing.T) {
	ctx := context.Background()
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))
	repository := New(testScope)

	count, err := repository.SessionCount(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	s1 := &entity.Session{UUID: uuid.Must(uuid.NewV4())}
	s2 := &entity.Session{UUID: uuid.Must(uuid.NewV4())}
	require.NoError(t, repository.Set(ctx, s1))
	require.NoError(t, repository.Set(ctx, s2))

	count, _ = repository.SessionCount(ctx)
	assert.Equal(t, 2, count)
	gauge, ok := testScope.Snapshot().Gauges()["testing.active_sessions+"]
	require.True(t, ok)
	assert.Equal(t, float64(2), gauge.Value())

	require.NoError(t, repository.Delete(ctx, s2.UUID))
	count, _ = repository.SessionCount(ctx)
	assert.Equal(t, 1, count)
}

func TestGetAllFromConnection(t *testing.T) {
	ctx := context.Background()
	testScope := tally.NewTestScope("testing", make(map[string]string, 0))
	repository := New(testScope)

	conn1 := uuid.Must(uuid.NewV4())
	conn2 := uuid.Must(uuid.NewV4())
	now := time.Now()
	session1 := &entity.Session{UUID: uuid.Must(uuid.NewV4()), ConnectionID: conn1, CreatedAt: now}
	session2 := &entity.Session{UUID: uuid.Must(uuid.NewV4()), ConnectionID: conn2, CreatedAt: now}
	session3 := &entity.Session{UUID: uuid.Must(uuid.NewV4()), ConnectionID: conn1, CreatedAt: now.Add(time.Second)}

	require.NoError(t, repository.Set(ctx, session3))
	require.NoError(t, repository.Set(ctx, session1))
	require.NoError(t, repository.Set(ctx, session2))

	sessions, err := repository.GetAllFromConnection(ctx, conn1)
	assert.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, session1, sessions[0])
	assert.Equal(t, session3, sessions[1])

	sessions, err = repository.GetAllFromConnection(ctx, uuid.Must(uuid.NewV4()))
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
