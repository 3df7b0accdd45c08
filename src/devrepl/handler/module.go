package handler

import (
	controller "github.com/uber/devrepl/src/devrepl/controller"
	devreplctrl "github.com/uber/devrepl/src/devrepl/controller/devrepl"
	"github.com/uber/devrepl/src/devrepl/controller/discovery"
	handler "github.com/uber/devrepl/src/devrepl/handler/devrepl"
	"github.com/uber/devrepl/src/devrepl/repository/session"
	"github.com/uber/devrepl/src/devrepl/repository/snapshot"
	"go.uber.org/fx"
)

// Module provides the devrepl protocol server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(session.New),
	fx.Provide(snapshot.New),
	fx.Provide(handler.New),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m devreplctrl.Controller) {}),
	fx.Invoke(func(m discovery.Controller) {}),
)
