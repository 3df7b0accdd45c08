package app

import (
	"context"
	"time"

	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/handler"
	"github.com/uber/devrepl/src/devrepl/internal/clock"
	"github.com/uber/devrepl/src/devrepl/internal/core"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/hostctx"
	"github.com/uber/devrepl/src/devrepl/internal/nreplfx"
	"github.com/uber/devrepl/src/devrepl/internal/serverinfofile"
	"github.com/uber/devrepl/src/devrepl/internal/typespace"
	"github.com/uber/devrepl/src/devrepl/internal/watcher"
	"go.uber.org/fx"
)

// Module defines the devrepl application module. The host process supplies its own container
// components on top of it.
var Module = fx.Options(
	handler.Module, // inbounds
	nreplfx.Module,
	fs.Module,
	clock.Module,
	serverinfofile.Module,
	hostctx.Module,
	typespace.Module,
	watcher.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle, env Context) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service":     "devrepl",
				"environment": env.Environment,
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)
