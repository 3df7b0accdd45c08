package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/clock"
	"github.com/uber/devrepl/src/devrepl/internal/clock/clockmock"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/fs/fsmock"
	"go.uber.org/config"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type cart struct {
	Items int    `json:"items"`
	Owner string `json:"owner"`
}

func newRepository(t *testing.T, dir string, scope tally.Scope) Repository {
	t.Helper()
	cfg, err := config.NewStaticProvider(map[string]any{
		"snapshots": map[string]any{"dir": dir},
	})
	require.NoError(t, err)
	r, err := New(Params{Config: cfg, Clock: clock.New(), FS: fs.New(), Logger: zap.NewNop().Sugar(), Stats: scope})
	require.NoError(t, err)
	return r
}

func TestTimestampsFollowClock(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clockmock.NewMockClock(ctrl)
	clk.EXPECT().Now().Return(now).Times(2)

	cfg, err := config.NewStaticProvider(map[string]any{
		"snapshots": map[string]any{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	r, err := New(Params{Config: cfg, Clock: clk, FS: fs.New(), Logger: zap.NewNop().Sugar(), Stats: tally.NoopScope})
	require.NoError(t, err)

	e, err := r.Pin(ctx, "live", &cart{Items: 1})
	require.NoError(t, err)
	assert.Equal(t, now, e.Timestamp)

	e, err = r.SaveJSON(ctx, "saved", &cart{Items: 1})
	require.NoError(t, err)
	assert.Equal(t, now, e.Timestamp)
}

func TestPinAndGet(t *testing.T) {
	ctx := context.Background()
	r := newRepository(t, t.TempDir(), tally.NoopScope)

	c := &cart{Items: 2, Owner: "ada"}
	e, err := r.Pin(ctx, "c1", c)
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotLive, e.Mode)
	assert.Equal(t, "snapshot.cart", e.TypeName)
	assert.Positive(t, e.ApproxSize)

	got, err := r.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Same(t, c, got.Value, "live entries keep the reference")

	_, err = r.Get(ctx, "missing")
	var nf *errors.SnapshotNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "No such snapshot: missing", err.Error())
}

func TestSaveJSONPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := newRepository(t, dir, tally.NoopScope)

	e, err := r.SaveJSON(ctx, "c2", &cart{Items: 3, Owner: "grace"})
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotJSON, e.Mode)
	assert.Nil(t, e.Value)
	assert.Contains(t, e.Payload, `"items": 3`)

	typ, err := os.ReadFile(filepath.Join(dir, "c2.type"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot.cart", string(typ))

	reloaded := newRepository(t, dir, tally.NoopScope)
	got, err := reloaded.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotJSON, got.Mode)
	assert.Equal(t, "snapshot.cart", got.TypeName)
	assert.JSONEq(t, `{"items":3,"owner":"grace"}`, got.Payload)
}

func TestModesEvictEachOther(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := newRepository(t, dir, tally.NoopScope)

	_, err := r.SaveJSON(ctx, "x", cart{Items: 1})
	require.NoError(t, err)
	_, err = r.Pin(ctx, "x", cart{Items: 2})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "x.json"))
	assert.True(t, os.IsNotExist(err), "pinning removes the persisted pair")
	_, err = os.Stat(filepath.Join(dir, "x.type"))
	assert.True(t, os.IsNotExist(err))

	got, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotLive, got.Mode)

	_, err = r.SaveJSON(ctx, "x", cart{Items: 3})
	require.NoError(t, err)
	got, err = r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotJSON, got.Mode)
	assert.Nil(t, got.Value)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	scope := tally.NewTestScope("testing", nil)
	r := newRepository(t, t.TempDir(), scope)

	for _, name := range []string{"cart-b", "user", "cart-a"} {
		_, err := r.Pin(ctx, name, name)
		require.NoError(t, err)
	}

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, e := range all {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"cart-a", "cart-b", "user"}, names)

	carts, err := r.List(ctx, "cart-*")
	require.NoError(t, err)
	assert.Len(t, carts, 2)
	assert.Equal(t, "cart-a\tstring\tlive", carts[0].TSV()[:len("cart-a\tstring\tlive")])

	_, err = r.List(ctx, "[")
	assert.Error(t, err)

	assert.Equal(t, float64(3), scope.Snapshot().Gauges()["testing.snapshot_entries+"].Value())

	require.NoError(t, r.Delete(ctx, "user"))
	require.NoError(t, r.Delete(ctx, "user"))
	_, err = r.Get(ctx, "user")
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, float64(2), scope.Snapshot().Gauges()["testing.snapshot_entries+"].Value())
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	r := newRepository(t, t.TempDir(), tally.NoopScope)

	for _, name := range []string{"", "  ", "a/b", `a\b`, "../x", ".hidden"} {
		_, err := r.Pin(ctx, name, 1)
		assert.Error(t, err, name)
		_, err = r.SaveJSON(ctx, name, 1)
		assert.Error(t, err, name)
	}
	_, err := r.Pin(ctx, "", 1)
	assert.ErrorIs(t, err, errors.NoNameOnWireError)
}

func TestSaveJSONUnencodable(t *testing.T) {
	r := newRepository(t, t.TempDir(), tally.NoopScope)
	_, err := r.SaveJSON(context.Background(), "fn", func() {})
	assert.Error(t, err)
}

func TestLoadSkipsIncompletePairs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.json"), []byte(`{"a":1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"a":`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.type"), []byte(`x`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.json"), []byte(`{"a":1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.type"), []byte("shop.Cart\n"), 0644))

	r := newRepository(t, dir, tally.NoopScope)
	all, err := r.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ok", all[0].Name)
	assert.Equal(t, "shop.Cart", all[0].TypeName)
}

func TestNewErrors(t *testing.T) {
	cfg, err := config.NewStaticProvider(map[string]any{})
	require.NoError(t, err)

	t.Run("cache dir fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockDevreplFS(ctrl)
		fsMock.EXPECT().UserCacheDir().Return("", assert.AnError)

		_, err := New(Params{Config: cfg, FS: fsMock, Logger: zap.NewNop().Sugar(), Stats: tally.NoopScope})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("mkdir fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockDevreplFS(ctrl)
		fsMock.EXPECT().UserCacheDir().Return("/cache", nil)
		fsMock.EXPECT().MkdirAll("/cache/devrepl/snapshots").Return(assert.AnError)

		_, err := New(Params{Config: cfg, FS: fsMock, Logger: zap.NewNop().Sugar(), Stats: tally.NoopScope})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("read dir fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockDevreplFS(ctrl)
		fsMock.EXPECT().UserCacheDir().Return("/cache", nil)
		fsMock.EXPECT().MkdirAll(gomock.Any()).Return(nil)
		fsMock.EXPECT().ReadDir("/cache/devrepl/snapshots").Return(nil, assert.AnError)

		_, err := New(Params{Config: cfg, FS: fsMock, Logger: zap.NewNop().Sugar(), Stats: tally.NoopScope})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("dir accessor", func(t *testing.T) {
		dir := t.TempDir()
		assert.Equal(t, dir, newRepository(t, dir, tally.NoopScope).Dir())
	})
}
