package host

import (
	"context"
	"fmt"

	"github.com/uber/devrepl/src/devrepl/internal/hostctx"
	"github.com/uber/devrepl/src/devrepl/internal/typespace"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyPushContext = "host.pushContext"

	// BootstrapType exposes the container through its Current accessor.
	BootstrapType = "host.Bootstrap"
	// LiveViewType keeps every container of the process in its containers static.
	LiveViewType = "host.LiveView"
	// GreeterType lets snapshots be materialized into live Greeter values.
	GreeterType = "host.Greeter"
)

// BootstrapParams are the inbound parameters of RegisterBootstrap.
type BootstrapParams struct {
	fx.In

	Config    config.Provider
	Container *Container
	Space     *typespace.Space
	Registry  hostctx.Registry
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

// RegisterBootstrap loads the native bootstrap types into the type space so that context
// discovery can find the container. When host.pushContext is set, the container is also bound
// directly on start.
func RegisterBootstrap(p BootstrapParams) error {
	var push bool
	if err := p.Config.Get(_configKeyPushContext).Populate(&push); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyPushContext, err)
	}

	if err := p.Space.RegisterNative(BootstrapType, typespace.NativeType{
		Accessors: map[string]func() (any, error){
			"Current": func() (any, error) { return p.Container, nil },
		},
	}); err != nil {
		return err
	}
	if err := p.Space.RegisterNative(LiveViewType, typespace.NativeType{
		Statics: map[string]any{"containers": []any{p.Container}},
	}); err != nil {
		return err
	}
	if err := p.Space.RegisterNative(GreeterType, typespace.NativeType{
		Constructor: func() any { return &Greeter{} },
	}); err != nil {
		return err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if push {
				p.Registry.Set(p.Container)
			}
			p.Logger.Infow("host bootstrap registered",
				"types", []string{BootstrapType, LiveViewType, GreeterType},
				"components", p.Container.ComponentNames(),
				"pushed", push,
			)
			return nil
		},
	})
	return nil
}
