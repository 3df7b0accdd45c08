// Package hotpatch replaces the methods of already-loaded types in place.
package hotpatch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/typespace"
	"github.com/uber/devrepl/src/devrepl/mapper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_errNoSource    = "no source"
	_errNoClass     = "no class declaration found"
	_errNotLoaded   = "Types not loaded yet: %s"
	_msgReloaded    = "Reloaded types: %s"
	_msgSkipped     = "Skipped (type not loaded yet): %s"
	_msgCompileFail = "compilation failed"

	_counterSuccess = "hotpatch_success"
	_counterFailure = "hotpatch_failure"
	_timerLatency   = "hotpatch_latency"
)

// Controller hot-patches loaded types.
type Controller interface {
	// HotPatch compiles source and redefines every declared type that is already loaded. Types
	// that are not loaded are reported as skipped.
	HotPatch(ctx context.Context, source string) *entity.HotPatchResult
}

// Params are inbound parameters to initialize a new hot-patch controller.
type Params struct {
	fx.In

	Facility typespace.Facility
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
}

type controller struct {
	// mu serializes hot-patch requests process-wide.
	mu       sync.Mutex
	facility typespace.Facility
	logger   *zap.SugaredLogger
	stats    tally.Scope
}

// New constructs the hot-patch controller.
func New(p Params) Controller {
	return &controller{
		facility: p.Facility,
		logger:   p.Logger,
		stats:    p.Stats,
	}
}

func (c *controller) HotPatch(ctx context.Context, source string) *entity.HotPatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.stats.Timer(_timerLatency).Start().Stop()

	res := c.hotPatch(ctx, source)
	if res.Success {
		c.stats.Counter(_counterSuccess).Inc(1)
		c.logger.Infow("hot-patch applied", "types", res.Updated, "skipped", res.Skipped)
	} else {
		c.stats.Counter(_counterFailure).Inc(1)
		c.logger.Warnw("hot-patch failed", "error", res.Error, "skipped", res.Skipped)
	}
	return res
}

func (c *controller) hotPatch(ctx context.Context, source string) *entity.HotPatchResult {
	if strings.TrimSpace(source) == "" {
		return &entity.HotPatchResult{Error: _errNoSource}
	}
	primary, ok := typespace.PrimaryName(source)
	if !ok {
		return &entity.HotPatchResult{Error: _errNoClass}
	}

	artifacts, err := typespace.Compile(ctx, primary, source)
	if err != nil {
		return &entity.HotPatchResult{Message: _msgCompileFail, Error: err.Error()}
	}

	var (
		targets []typespace.Artifact
		updated []string
		deltas  []string
		skipped []string
	)
	for _, a := range artifacts {
		t, ok := c.facility.Lookup(a.Name)
		if !ok {
			skipped = append(skipped, a.Name)
			continue
		}
		targets = append(targets, a)
		updated = append(updated, a.Name)
		deltas = append(deltas, fmt.Sprintf("%s (%s)", a.Name, mapper.LineDeltaToString(mapper.LineDelta(t.Source(), a.Source))))
	}

	if len(targets) == 0 {
		return &entity.HotPatchResult{
			Error:   fmt.Sprintf(_errNotLoaded, strings.Join(skipped, ", ")),
			Skipped: skipped,
		}
	}
	if !c.facility.RedefinitionSupported() {
		return &entity.HotPatchResult{Error: errors.ErrRedefinitionUnsupported.Error(), Skipped: skipped}
	}
	if err := c.facility.Redefine(targets); err != nil {
		return &entity.HotPatchResult{Error: err.Error(), Skipped: skipped}
	}

	msg := fmt.Sprintf(_msgReloaded, strings.Join(deltas, ", "))
	if len(skipped) > 0 {
		msg += "\n" + fmt.Sprintf(_msgSkipped, strings.Join(skipped, ", "))
	}
	return &entity.HotPatchResult{
		Success: true,
		Message: msg,
		Updated: updated,
		Skipped: skipped,
	}
}
