package port

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vitaminmoo/pmd/internal/module"
)

// Snapshot is a consistent copy of one port taken between polls.
type Snapshot struct {
	module.Record
	State        State
	DOMRequested bool
}

// Registry owns the configured ports and polls them in a stable order.
type Registry struct {
	mu    sync.RWMutex
	ports map[string]*Port
	names []string
}

func NewRegistry() *Registry {
	return &Registry{ports: make(map[string]*Port)}
}

// Add configures a port.
func (r *Registry) Add(p *Port) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ports[p.name]; ok {
		return fmt.Errorf("port %s already configured", p.name)
	}
	r.ports[p.name] = p
	r.names = append(r.names, p.name)
	sort.Slice(r.names, func(i, j int) bool { return portLess(r.names[i], r.names[j]) })
	return nil
}

// Remove deconfigures a port and drops its record.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ports[name]; !ok {
		return false
	}
	delete(r.ports, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	forgetMetrics(name)
	return true
}

// Names returns the configured port names in poll order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// SetEnable changes the administrative state of a port.
func (r *Registry) SetEnable(name string, e Enable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.ports[name]
	if ok {
		p.SetEnable(e)
	}
	return ok
}

// Tick polls every port once.
func (r *Registry) Tick() {
	start := time.Now()
	r.mu.Lock()
	for _, name := range r.names {
		r.ports[name].Poll()
	}
	r.mu.Unlock()
	tickDuration.Observe(time.Since(start).Seconds())
}

// Snapshot returns a copy of one port.
func (r *Registry) Snapshot(name string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.ports[name]
	if !ok {
		return Snapshot{}, false
	}
	return p.snapshot(), true
}

// Snapshots returns a copy of every port in poll order.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.ports[name].snapshot())
	}
	return out
}

func (p *Port) snapshot() Snapshot {
	return Snapshot{Record: p.Record(), State: p.state, DOMRequested: p.domRequested}
}

// Run ticks every interval until ctx is done, calling after with the fresh
// snapshots after each tick. The first tick runs immediately.
func (r *Registry) Run(ctx context.Context, interval time.Duration, after func([]Snapshot)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.Tick()
		if after != nil {
			after(r.Snapshots())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// portLess orders numeric port names numerically ("2" before "10") and
// everything else lexically after them.
func portLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
