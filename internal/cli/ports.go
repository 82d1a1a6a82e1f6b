package cli

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/vitaminmoo/pmd/internal/bus"
	"github.com/vitaminmoo/pmd/internal/config"
	"github.com/vitaminmoo/pmd/internal/port"
)

// builder turns port descriptions into ports. Real slots share one set of
// open I2C buses.
type builder struct {
	buses   bus.Opener
	retries int
	log     *zap.Logger

	// fixtures holds the access of every simulated port by name. It is
	// shared by reloads and the simulation endpoint.
	mu       sync.Mutex
	fixtures map[string]*bus.Fixture
}

func newBuilder(buses bus.Opener, retries int, log *zap.Logger) *builder {
	return &builder{buses: buses, retries: retries, log: log, fixtures: make(map[string]*bus.Fixture)}
}

func enableOf(p *config.Port) *port.Enable {
	return &port.Enable{Enabled: p.Enable, Split: p.Split, Subports: p.Subports}
}

func (b *builder) access(p *config.Port) (bus.Access, error) {
	if p.Simulated() {
		f := bus.NewFixture()
		if p.Fixture != "" {
			if err := f.InsertFile(p.Fixture); err != nil {
				return nil, err
			}
		}
		b.mu.Lock()
		b.fixtures[p.Name] = f
		b.mu.Unlock()
		return f, nil
	}
	return bus.NewI2C(b.buses, p.Slot())
}

// fixture returns the slot of a simulated port.
func (b *builder) fixture(name string) (*bus.Fixture, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.fixtures[name]
	return f, ok
}

func (b *builder) dropFixture(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.fixtures, name)
}

func (b *builder) build(p *config.Port) (*port.Port, error) {
	acc, err := b.access(p)
	if err != nil {
		return nil, fmt.Errorf("port %s: %w", p.Name, err)
	}
	return port.New(p.Name, p.Connector, acc, port.Options{
		Retries: b.retries,
		Enable:  enableOf(p),
		Log:     b.log,
	}), nil
}

// buildRegistry configures every port of cfg. A slot that cannot be opened
// is logged and left out; the other ports still run.
func buildRegistry(cfg *config.Config, b *builder) *port.Registry {
	reg := port.NewRegistry()
	for _, p := range cfg.Ports {
		pp, err := b.build(p)
		if err != nil {
			b.log.Error("error configuring port", zap.Error(err))
			continue
		}
		if err := reg.Add(pp); err != nil {
			b.log.Error("error configuring port", zap.Error(err))
		}
	}
	return reg
}

// hardwareEqual compares the parts of a port description that require a new
// port when they change.
func hardwareEqual(a, b *config.Port) bool {
	x, y := *a, *b
	x.Enable, x.Split, x.Subports = false, false, nil
	y.Enable, y.Split, y.Subports = false, false, nil
	return reflect.DeepEqual(x, y)
}

// reconcile moves reg from the ports of prev to the ports of next: removed
// ports are deconfigured, new or rewired ports are built, and enable changes
// are applied in place.
func reconcile(reg *port.Registry, prev, next *config.Config, b *builder) {
	old := make(map[string]*config.Port, len(prev.Ports))
	for _, p := range prev.Ports {
		old[p.Name] = p
	}
	wanted := make(map[string]bool, len(next.Ports))
	for _, p := range next.Ports {
		wanted[p.Name] = true
	}

	for name := range old {
		if !wanted[name] && reg.Remove(name) {
			b.dropFixture(name)
			b.log.Info("port deconfigured", zap.String("port", name))
		}
	}

	for _, p := range next.Ports {
		o, existed := old[p.Name]
		_, running := reg.Snapshot(p.Name)
		switch {
		case existed && running && hardwareEqual(o, p):
			if !reflect.DeepEqual(enableOf(o), enableOf(p)) {
				reg.SetEnable(p.Name, *enableOf(p))
				b.log.Info("port enable changed", zap.String("port", p.Name), zap.Bool("enable", p.Enable))
			}
			continue
		case running:
			reg.Remove(p.Name)
			b.dropFixture(p.Name)
			b.log.Info("port reconfigured", zap.String("port", p.Name))
		}
		pp, err := b.build(p)
		if err != nil {
			b.log.Error("error configuring port", zap.Error(err))
			continue
		}
		if err := reg.Add(pp); err != nil {
			b.log.Error("error configuring port", zap.Error(err))
		}
	}
}
