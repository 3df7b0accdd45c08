package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nreplclient "github.com/uber/devrepl/src/devrepl/gateway/nrepl-client"
	"github.com/uber/devrepl/src/devrepl/host"
	"github.com/uber/devrepl/src/devrepl/internal/nreplfx"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

const _cartScript = `namespace "shop"

class "Cart" {
  fields = {"items", "owner"},
}

function Cart:count()
  return #self.items
end
`

const _cartPatched = `namespace "shop"

class "Cart" {
  fields = {"items", "owner"},
}

function Cart:count()
  return #self.items + 100
end
`

// writeServiceConfig lays out a complete config directory under a temp dir and points the config
// loader at it.
func writeServiceConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	types := filepath.Join(dir, "types")
	require.NoError(t, os.MkdirAll(types, 0o755))

	files := map[string]string{
		"meta.yaml": "files:\n  - base.yaml\n",
		"base.yaml": fmt.Sprintf(`
logging:
  level: info
  encoding: json
  outputPaths:
    - %[1]s/logs/devrepl.log
serverInfoFilePath: %[1]s/server-info.json
nrepl:
  address: 127.0.0.1:0
eval:
  timeoutMillis: 5000
  defaultImports:
    - import json
discovery:
  enabled: true
  attempts: 3
  intervalMillis: 20
hotpatch:
  redefinitionEnabled: true
snapshots:
  dir: %[1]s/snapshots
typespace:
  manifest: %[1]s/types/manifest.yaml
  watch: false
transcript:
  enabled: false
host:
  pushContext: false
`, dir),
		"types/manifest.yaml": "types:\n  - script: cart.lua\n",
		"types/cart.lua":      _cartScript,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Setenv("DEVREPL_CONFIG_DIR", dir)
	return dir
}

func TestApplicationServesSessions(t *testing.T) {
	dir := writeServiceConfig(t)

	var server nreplfx.NREPLModule
	app := fxtest.New(t, Module, host.Module, fx.Populate(&server))
	app.RequireStart()
	defer app.RequireStop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := nreplclient.Dial(ctx, server.Addr().String(), zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	do := func(msg wire.Message) []wire.Message {
		t.Helper()
		resps, err := client.Do(ctx, msg)
		require.NoError(t, err)
		return resps
	}

	_, err = client.Clone(ctx)
	require.NoError(t, err)

	t.Run("describe lists the operations", func(t *testing.T) {
		resps := do(wire.Message{"op": "describe"})
		assert.Contains(t, nreplclient.Collect(resps, "ops"), "hot-patch")
	})

	t.Run("evaluation keeps session state", func(t *testing.T) {
		do(wire.Message{"op": "eval", "code": "function f(x) return x + 1 end"})
		resps := do(wire.Message{"op": "eval", "code": "f(41)"})
		assert.Equal(t, "42", nreplclient.Collect(resps, "value"))
		assert.Empty(t, nreplclient.Collect(resps, "err"))
	})

	t.Run("binds the host container", func(t *testing.T) {
		resps := do(wire.Message{"op": "bind-context"})
		assert.Equal(t, "true", nreplclient.Collect(resps, "value"))

		resps = do(wire.Message{"op": "eval", "code": "component('greeter'):Greet('Ada')"})
		assert.Equal(t, "Hello, Ada!", nreplclient.Collect(resps, "value"))
	})

	t.Run("hot-patch redefines loaded types", func(t *testing.T) {
		resps := do(wire.Message{"op": "eval", "code": "import shop.Cart\nc = Cart.new{items = {1, 2}, owner = 'ada'}\nc:count()"})
		assert.Empty(t, nreplclient.Collect(resps, "err"))
		assert.Contains(t, nreplclient.Collect(resps, "value"), "2")

		resps = do(wire.Message{"op": "hot-patch", "code": _cartPatched})
		assert.Contains(t, nreplclient.Collect(resps, "value"), "Reloaded types: shop.Cart")
		assert.Empty(t, nreplclient.Collect(resps, "err"))

		resps = do(wire.Message{"op": "eval", "code": "c:count()"})
		assert.Equal(t, "102", nreplclient.Collect(resps, "value"))
	})

	t.Run("snapshots outlive the session", func(t *testing.T) {
		resps := do(wire.Message{"op": "snapshot-save", "name": "answer", "expr": "f(41)"})
		assert.Contains(t, nreplclient.Collect(resps, "value"), "Saved: answer")

		resps = do(wire.Message{"op": "snapshot-list"})
		assert.Contains(t, nreplclient.Collect(resps, "value"), "answer")

		other, err := nreplclient.Dial(ctx, server.Addr().String(), zap.NewNop())
		require.NoError(t, err)
		defer other.Close()
		_, err = other.Clone(ctx)
		require.NoError(t, err)

		resps, err = other.Do(ctx, wire.Message{"op": "snapshot-load", "name": "answer", "var": "restored"})
		require.NoError(t, err)
		assert.Equal(t, "Loaded: restored", nreplclient.Collect(resps, "value"))

		resps, err = other.Do(ctx, wire.Message{"op": "eval", "code": "restored"})
		require.NoError(t, err)
		assert.Equal(t, "42", nreplclient.Collect(resps, "value"))
	})

	t.Run("snapshots materialize into host types", func(t *testing.T) {
		resps := do(wire.Message{"op": "snapshot-save", "name": "greeting", "expr": "{Prefix = 'Hi'}"})
		assert.Empty(t, nreplclient.Collect(resps, "err"))

		resps = do(wire.Message{"op": "snapshot-materialize", "name": "greeting", "type": "host.Greeter", "target": "hi"})
		assert.Equal(t, "true", nreplclient.Collect(resps, "value"))

		resps = do(wire.Message{"op": "snapshot-load", "name": "hi", "var": "g"})
		assert.Equal(t, "Loaded: g", nreplclient.Collect(resps, "value"))

		resps = do(wire.Message{"op": "eval", "code": "g:Greet('Bo')"})
		assert.Equal(t, "Hi, Bo!", nreplclient.Collect(resps, "value"))
	})

	t.Run("server info file publishes the address", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "server-info.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), server.Addr().String())
	})
}
