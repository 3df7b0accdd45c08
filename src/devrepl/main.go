package main

import (
	"github.com/uber/devrepl/src/devrepl/app"
	"github.com/uber/devrepl/src/devrepl/host"
	"go.uber.org/fx"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
		host.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
