package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/devrepl/src/devrepl/controller/hotpatch/hotpatchmock"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/fs/fsmock"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const _cartSource = `namespace "shop"
class "Cart" { fields = { "items" } }
function Cart:count() return #self.items end
`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newProvider(t *testing.T, watch bool, manifest string) config.Provider {
	provider, err := config.NewStaticProvider(map[string]any{
		"typespace": map[string]any{"watch": watch, "manifest": manifest},
	})
	require.NoError(t, err)
	return provider
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		watch    bool
		manifest string
		wantDir  string
	}{
		{name: "disabled", manifest: "/srv/types/manifest.yaml"},
		{name: "no manifest", watch: true},
		{name: "enabled", watch: true, manifest: "/srv/types/manifest.yaml", wantDir: "/srv/types"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			w, err := New(Params{
				Config:    newProvider(t, tt.watch, tt.manifest),
				FS:        fsmock.NewMockDevreplFS(ctrl),
				HotPatch:  hotpatchmock.NewMockController(ctrl),
				Lifecycle: fxtest.NewLifecycle(t),
				Logger:    zap.NewNop().Sugar(),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, w.Dir())

			if impl := w.(*watcher); impl.fsw != nil {
				require.NoError(t, impl.fsw.Close())
			}
		})
	}

	t.Run("invalid config", func(t *testing.T) {
		provider, err := config.NewStaticProvider(map[string]any{"typespace": map[string]any{"watch": "often"}})
		require.NoError(t, err)
		_, err = New(Params{Config: provider})
		assert.ErrorContains(t, err, `getting config field "typespace.watch"`)
	})
}

func TestWatchHotPatchesChangedScripts(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := t.TempDir()

	patched := make(chan string, 1)
	hp := hotpatchmock.NewMockController(ctrl)
	hp.EXPECT().HotPatch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, src string) *entity.HotPatchResult {
		if src == _cartSource {
			select {
			case patched <- src:
			default:
			}
		}
		return &entity.HotPatchResult{Success: true, Updated: []string{"shop.Cart"}}
	}).MinTimes(1)

	lc := fxtest.NewLifecycle(t)
	w, err := New(Params{
		Config:    newProvider(t, true, filepath.Join(dir, "manifest.yaml")),
		FS:        fs.New(),
		HotPatch:  hp,
		Lifecycle: lc,
		Logger:    zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	w.(*watcher).debounce = 50 * time.Millisecond

	lc.RequireStart()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.lua"), []byte(_cartSource), 0o644))

	select {
	case src := <-patched:
		assert.Equal(t, _cartSource, src)
	case <-time.After(5 * time.Second):
		t.Fatal("script change was not hot-patched")
	}
	lc.RequireStop()
}

func TestHandleDebounce(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockDevreplFS(ctrl)
	hp := hotpatchmock.NewMockController(ctrl)

	done := make(chan struct{})
	fsMock.EXPECT().ReadFile("/srv/types/cart.lua").Return([]byte(_cartSource), nil).Times(1)
	hp.EXPECT().HotPatch(gomock.Any(), _cartSource).DoAndReturn(func(context.Context, string) *entity.HotPatchResult {
		close(done)
		return &entity.HotPatchResult{Error: "Types not loaded yet: shop.Cart", Skipped: []string{"shop.Cart"}}
	}).Times(1)

	w := &watcher{
		fs:             fsMock,
		hotpatch:       hp,
		logger:         zap.NewNop().Sugar(),
		debounce:       20 * time.Millisecond,
		debounceTimers: make(map[string]*time.Timer),
	}

	// A burst of writes collapses into one reload; other files are ignored.
	for i := 0; i < 5; i++ {
		w.handleDebounce(fsnotify.Event{Name: "/srv/types/cart.lua", Op: fsnotify.Write})
	}
	w.handleDebounce(fsnotify.Event{Name: "/srv/types/manifest.yaml", Op: fsnotify.Write})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("debounced reload did not run")
	}
	w.pending.Wait()
}

func TestReloadReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockDevreplFS(ctrl)
	fsMock.EXPECT().ReadFile(gomock.Any()).Return(nil, errors.New("gone"))

	w := &watcher{fs: fsMock, hotpatch: hotpatchmock.NewMockController(ctrl), logger: zap.NewNop().Sugar()}
	assert.Nil(t, w.reload("/srv/types/cart.lua"))
}
