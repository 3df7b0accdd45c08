package controller

import (
	"github.com/uber/devrepl/src/devrepl/controller/devrepl"
	"github.com/uber/devrepl/src/devrepl/controller/discovery"
	"github.com/uber/devrepl/src/devrepl/controller/evaluator"
	"github.com/uber/devrepl/src/devrepl/controller/hotpatch"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(devrepl.New),
	fx.Provide(evaluator.New),
	fx.Provide(hotpatch.New),
	fx.Provide(discovery.New),
)
