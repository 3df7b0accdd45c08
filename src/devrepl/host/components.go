package host

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uber/devrepl/src/devrepl/internal/clock"
)

// Inventory tracks stock levels per SKU.
type Inventory struct {
	mu    sync.Mutex
	stock map[string]int
}

// NewInventory returns an Inventory seeded with stock.
func NewInventory(stock map[string]int) *Inventory {
	inv := &Inventory{stock: make(map[string]int, len(stock))}
	for k, v := range stock {
		inv.stock[k] = v
	}
	return inv
}

// Stock returns the quantity on hand for sku.
func (i *Inventory) Stock(sku string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stock[sku]
}

// Restock adds qty units of sku and returns the new quantity. Negative quantities remove stock
// and fail when the result would drop below zero.
func (i *Inventory) Restock(sku string, qty int) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	next := i.stock[sku] + qty
	if next < 0 {
		return i.stock[sku], fmt.Errorf("insufficient stock for %s: have %d, need %d", sku, i.stock[sku], -qty)
	}
	i.stock[sku] = next
	return next, nil
}

// SKUs lists the known SKUs, sorted.
func (i *Inventory) SKUs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, 0, len(i.stock))
	for k := range i.stock {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Greeter builds greetings. Prefix is exported so that sessions can change it live.
type Greeter struct {
	Prefix string
}

// Greet returns a greeting for name.
func (g *Greeter) Greet(name string) string {
	return fmt.Sprintf("%s, %s!", g.Prefix, name)
}

// Uptime reports how long the host has been running.
type Uptime struct {
	started time.Time
	clock   clock.Clock
}

// Seconds returns the elapsed seconds since start.
func (u *Uptime) Seconds() float64 {
	return u.clock.Now().Sub(u.started).Seconds()
}

func provideInventory() ComponentOut {
	return ComponentOut{Component: Component{
		Name:  "inventory",
		Value: NewInventory(map[string]int{"apple": 12, "pear": 4}),
	}}
}

func provideGreeter() ComponentOut {
	return ComponentOut{Component: Component{
		Name:  "greeter",
		Value: &Greeter{Prefix: "Hello"},
	}}
}

func provideUptime(c clock.Clock) ComponentOut {
	return ComponentOut{Component: Component{
		Name:  "uptime",
		Value: &Uptime{started: c.Now(), clock: c},
	}}
}
