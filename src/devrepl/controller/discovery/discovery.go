// Package discovery locates the host's dependency-injection container and binds it into the
// process-wide context registry.
package discovery

import (
	"context"
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/controller/evaluator"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/clock"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/hostctx"
	"github.com/uber/devrepl/src/devrepl/internal/luart"
	"github.com/uber/devrepl/src/devrepl/internal/typespace"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKey = "discovery"

	_strategyRegistry   = "registry"
	_strategyBootstrap  = "bootstrap-accessor"
	_strategyLegacy     = "legacy-registry"
	_strategyStaticScan = "static-scan"
	_strategyManagement = "management-probe"
	_strategyExpression = "expression"

	_counterBound = "discovery_bound"
)

// Config is the discovery section of the service configuration.
type Config struct {
	Enabled            bool     `yaml:"enabled"`
	Attempts           int      `yaml:"attempts"`
	IntervalMillis     int      `yaml:"intervalMillis"`
	BootstrapType      string   `yaml:"bootstrapType"`
	BootstrapAccessor  string   `yaml:"bootstrapAccessor"`
	LegacyType         string   `yaml:"legacyType"`
	LegacyField        string   `yaml:"legacyField"`
	AccessorNames      []string `yaml:"accessorNames"`
	ContainerTypeNames []string `yaml:"containerTypeNames"`
	ExcludeTypes       []string `yaml:"excludeTypes"`
}

func defaultConfig() Config {
	return Config{
		Enabled:            true,
		Attempts:           30,
		IntervalMillis:     1000,
		BootstrapType:      "host.Bootstrap",
		BootstrapAccessor:  "Current",
		LegacyType:         "host.LiveView",
		LegacyField:        "containers",
		AccessorNames:      []string{"Current", "Instance", "Get"},
		ContainerTypeNames: []string{"Container", "ApplicationContext"},
	}
}

// Controller finds and binds the host container.
type Controller interface {
	// TryBindOnce runs the strategy chain unless a container is already bound.
	TryBindOnce(ctx context.Context) *entity.BindResult
	// BindExpression evaluates expr as a one-shot evaluation and binds its value.
	BindExpression(ctx context.Context, expr string) *entity.BindResult
	// ScheduleBackground starts the retry loop. It is a no-op when the loop is already running.
	ScheduleBackground()
}

// Params are inbound parameters to initialize a new discovery controller.
type Params struct {
	fx.In

	Config    config.Provider
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Registry  hostctx.Registry
	Space     *typespace.Space
	Evaluator evaluator.Evaluator
	Clock     clock.Clock
	Lifecycle fx.Lifecycle
}

type strategy struct {
	name string
	find func(ctx context.Context) any
}

type controller struct {
	cfg       Config
	logger    *zap.SugaredLogger
	stats     tally.Scope
	registry  hostctx.Registry
	space     *typespace.Space
	evaluator evaluator.Evaluator
	clock     clock.Clock

	strategies []strategy

	// bindMu serializes strategy runs so a slow chain is never run twice concurrently.
	bindMu sync.Mutex

	loopMu  sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates the discovery controller and registers its background loop with the lifecycle.
func New(p Params) (Controller, error) {
	cfg := defaultConfig()
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}
	for _, pattern := range cfg.ExcludeTypes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	c := &controller{
		cfg:       cfg,
		logger:    p.Logger,
		stats:     p.Stats,
		registry:  p.Registry,
		space:     p.Space,
		evaluator: p.Evaluator,
		clock:     p.Clock,
	}
	c.strategies = []strategy{
		{name: _strategyBootstrap, find: c.bootstrapAccessor},
		{name: _strategyLegacy, find: c.legacyRegistry},
		{name: _strategyStaticScan, find: c.staticScan},
		{name: _strategyManagement, find: c.managementProbe},
	}

	if cfg.Enabled {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				c.ScheduleBackground()
				return nil
			},
			OnStop: c.stop,
		})
	}
	return c, nil
}

func (c *controller) TryBindOnce(ctx context.Context) *entity.BindResult {
	if c.registry.Bound() {
		return &entity.BindResult{Bound: true, Strategy: _strategyRegistry, Message: "Context already bound: " + hostctx.TypeName(c.registry.Get())}
	}

	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	if c.registry.Bound() {
		return &entity.BindResult{Bound: true, Strategy: _strategyRegistry, Message: "Context already bound: " + hostctx.TypeName(c.registry.Get())}
	}

	for _, s := range c.strategies {
		v := c.run(ctx, s)
		if v == nil {
			continue
		}
		c.registry.Set(v)
		c.stats.Tagged(map[string]string{"strategy": s.name}).Counter(_counterBound).Inc(1)
		c.logger.Infow("context bound", "strategy", s.name, "type", hostctx.TypeName(v))
		return &entity.BindResult{
			Bound:    true,
			Strategy: s.name,
			Message:  fmt.Sprintf("Context bound via %s: %s", s.name, hostctx.TypeName(v)),
		}
	}
	return &entity.BindResult{Message: "No context found"}
}

// run executes one strategy. Panics count as not found.
func (c *controller) run(ctx context.Context, s strategy) (found any) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warnw("discovery strategy panicked", "strategy", s.name, "panic", r)
			found = nil
		}
	}()
	return s.find(ctx)
}

func (c *controller) bootstrapAccessor(context.Context) any {
	if c.cfg.BootstrapType == "" || c.cfg.BootstrapAccessor == "" {
		return nil
	}
	t, ok := c.space.Lookup(c.cfg.BootstrapType)
	if !ok {
		return nil
	}
	if fn, ok := t.Accessor(c.cfg.BootstrapAccessor); ok {
		return c.callAccessor(t.Name(), c.cfg.BootstrapAccessor, fn)
	}
	if v, ok := t.Static(c.cfg.BootstrapAccessor); ok {
		return unwrap(v)
	}
	return nil
}

func (c *controller) legacyRegistry(context.Context) any {
	if c.cfg.LegacyType == "" || c.cfg.LegacyField == "" {
		return nil
	}
	t, ok := c.space.Lookup(c.cfg.LegacyType)
	if !ok {
		return nil
	}
	v, ok := t.Static(c.cfg.LegacyField)
	if !ok {
		return nil
	}
	return firstElement(unwrap(v))
}

func (c *controller) staticScan(context.Context) any {
	for _, info := range c.space.LoadedTypes() {
		if c.excluded(info.Name) {
			continue
		}
		t, ok := c.space.Lookup(info.Name)
		if !ok {
			continue
		}
		for _, name := range t.StaticNames() {
			v, _ := t.Static(name)
			if v = unwrap(v); hostctx.IsContainerLike(v, c.cfg.ContainerTypeNames) {
				return v
			}
		}
		for _, name := range c.cfg.AccessorNames {
			fn, ok := t.Accessor(name)
			if !ok {
				continue
			}
			if v := c.callAccessor(info.Name, name, fn); hostctx.IsContainerLike(v, c.cfg.ContainerTypeNames) {
				return v
			}
		}
	}
	return nil
}

func (c *controller) managementProbe(context.Context) any {
	count := 0
	expvar.Do(func(expvar.KeyValue) { count++ })
	c.logger.Infow("management registry probed", "variables", count)
	return nil
}

func (c *controller) excluded(typeName string) bool {
	for _, pattern := range c.cfg.ExcludeTypes {
		if ok, _ := doublestar.Match(pattern, typeName); ok {
			return true
		}
	}
	return false
}

func (c *controller) callAccessor(typeName, name string, fn func() (any, error)) any {
	v, err := fn()
	if err != nil {
		c.logger.Warnw("accessor failed", "type", typeName, "accessor", name, zap.Error(err))
		return nil
	}
	return unwrap(v)
}

func (c *controller) BindExpression(ctx context.Context, expr string) *entity.BindResult {
	if expr == "" {
		return &entity.BindResult{Message: errors.NoExprOnWireError.Error()}
	}
	res := c.evaluator.EvaluateOnce(ctx, expr)
	if !res.OK() {
		return &entity.BindResult{Message: res.Diagnostic}
	}
	if res.Value == nil {
		return &entity.BindResult{Message: "Expression returned nil"}
	}

	c.registry.Set(res.Value)
	c.stats.Tagged(map[string]string{"strategy": _strategyExpression}).Counter(_counterBound).Inc(1)
	c.logger.Infow("context bound", "strategy", _strategyExpression, "type", hostctx.TypeName(res.Value))
	return &entity.BindResult{
		Bound:    true,
		Strategy: _strategyExpression,
		Message:  "Context bound: " + hostctx.TypeName(res.Value),
	}
}

func (c *controller) ScheduleBackground() {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.running = true
	c.cancel = cancel
	c.done = done
	go func() {
		defer close(done)
		defer c.finish(done)
		c.loop(ctx)
	}()
}

// finish marks the loop identified by done as no longer running.
func (c *controller) finish(done chan struct{}) {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	if c.done == done {
		c.cancel()
		c.running = false
	}
}

func (c *controller) loop(ctx context.Context) {
	interval := time.Duration(c.cfg.IntervalMillis) * time.Millisecond
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		if res := c.TryBindOnce(ctx); res.Bound {
			c.logger.Infow("context discovery finished", "attempt", attempt, "strategy", res.Strategy)
			return
		}
		if attempt == c.cfg.Attempts {
			break
		}
		if err := c.clock.Sleep(ctx, interval); err != nil {
			return
		}
	}
	c.logger.Warnw("context discovery gave up", "attempts", c.cfg.Attempts)
}

func (c *controller) stop(context.Context) error {
	c.loopMu.Lock()
	if !c.running {
		c.loopMu.Unlock()
		return nil
	}
	cancel, done := c.cancel, c.done
	c.loopMu.Unlock()

	cancel()
	<-done
	return nil
}

func unwrap(v any) any {
	if lv, ok := v.(lua.LValue); ok {
		return luart.ToGo(lv)
	}
	return v
}

// firstElement returns the first element of a slice or array, or nil.
func firstElement(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	if rv.Len() == 0 {
		return nil
	}
	return rv.Index(0).Interface()
}
