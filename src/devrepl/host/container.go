// Package host is a small reference host application: a named-component container built by fx,
// plus the bootstrap types through which the bridge finds it.
package host

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"go.uber.org/fx"
)

// ImportPrefix is the import path prefix under which the container loader publishes components.
const ImportPrefix = "app."

// Component is a named value managed by the Container.
type Component struct {
	Name  string
	Value any
}

// ComponentOut contributes a Component to the container's value group.
type ComponentOut struct {
	fx.Out

	Component Component `group:"components"`
}

// ContainerParams are the inbound parameters of NewContainer.
type ContainerParams struct {
	fx.In

	Components []Component `group:"components"`
}

// Container holds the named components of the host.
type Container struct {
	mu         sync.RWMutex
	components map[string]any
	types      map[string]string
}

// NewContainer builds a Container from the components value group. Duplicate names fail.
func NewContainer(p ContainerParams) (*Container, error) {
	c := &Container{
		components: make(map[string]any, len(p.Components)),
		types:      make(map[string]string, len(p.Components)),
	}
	for _, comp := range p.Components {
		if err := c.Register(comp.Name, comp.Value); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a component.
func (c *Container) Register(name string, value any) error {
	if name == "" {
		return errors.New("component name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.components[name]; ok {
		return fmt.Errorf("component %q is already registered", name)
	}
	c.components[name] = value
	c.types[name] = fmt.Sprintf("%T", value)
	return nil
}

// ComponentNames lists the registered component names, sorted.
func (c *Container) ComponentNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.components))
	for n := range c.components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Component returns the component registered under name.
func (c *Container) Component(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.components[name]
	if !ok {
		return nil, &errors.ComponentNotFoundError{Name: name}
	}
	return v, nil
}

// ComponentType returns the Go type of the component registered under name.
func (c *Container) ComponentType(name string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[name]
	if !ok {
		return "", &errors.ComponentNotFoundError{Name: name}
	}
	return t, nil
}

// Loader returns the import resolver of the container.
func (c *Container) Loader() *Loader {
	return &Loader{container: c}
}

// Loader resolves import paths of the form "app.<component>".
type Loader struct {
	container *Container
}

// Resolve returns the component published under path.
func (l *Loader) Resolve(path string) (any, bool) {
	name, ok := strings.CutPrefix(path, ImportPrefix)
	if !ok || name == "" {
		return nil, false
	}
	v, err := l.container.Component(name)
	if err != nil {
		return nil, false
	}
	return v, true
}
