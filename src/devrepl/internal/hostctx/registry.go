// Package hostctx holds the process-wide reference to the host's dependency-injection container
// and the reflective helpers used to talk to it without compile-time knowledge of its type.
package hostctx

import (
	"sync/atomic"

	"go.uber.org/fx"
)

// Module provides the single Registry of the process.
var Module = fx.Provide(NewRegistry)

// Registry stores the bound container. Writes are last-writer-wins and visible to every session.
type Registry interface {
	Get() any
	Set(container any)
	Bound() bool
}

type slot struct {
	value any
}

type registry struct {
	current atomic.Pointer[slot]
}

// NewRegistry returns an empty Registry.
func NewRegistry() Registry {
	return &registry{}
}

func (r *registry) Get() any {
	s := r.current.Load()
	if s == nil {
		return nil
	}
	return s.value
}

func (r *registry) Set(container any) {
	if container == nil {
		r.current.Store(nil)
		return
	}
	r.current.Store(&slot{value: container})
}

func (r *registry) Bound() bool {
	return r.Get() != nil
}
