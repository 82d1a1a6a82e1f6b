// Package publish delivers flattened port records to an external store,
// sending a port only when its fields changed since the last delivery.
package publish

import (
	"fmt"
	"maps"
	"sort"

	"go.uber.org/zap"

	"github.com/vitaminmoo/pmd/internal/port"
)

// Sink is the external state store.
type Sink interface {
	// Set replaces the fields of one port.
	Set(port string, fields map[string]string) error
	// Delete drops a deconfigured port.
	Delete(port string) error
}

// Publisher tracks what was last delivered to a Sink.
type Publisher struct {
	sink Sink
	log  *zap.Logger
	last map[string]map[string]string
}

func NewPublisher(sink Sink, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{sink: sink, log: log, last: make(map[string]map[string]string)}
}

// Publish delivers the snapshots that changed and deletes ports that are no
// longer present in snaps. A failed delivery is retried on the next call.
func (p *Publisher) Publish(snaps []port.Snapshot) error {
	var errs []error
	seen := make(map[string]bool, len(snaps))
	for _, s := range snaps {
		seen[s.Port] = true
		fields := s.Fields()
		if prev, ok := p.last[s.Port]; ok && maps.Equal(prev, fields) {
			continue
		}
		if err := p.sink.Set(s.Port, fields); err != nil {
			errs = append(errs, fmt.Errorf("set %s: %w", s.Port, err))
			continue
		}
		p.last[s.Port] = fields
	}

	for _, name := range p.stale(seen) {
		if err := p.sink.Delete(name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		delete(p.last, name)
	}

	for _, err := range errs {
		p.log.Warn("publish failed", zap.Error(err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d port updates failed: %w", len(errs), len(snaps), errs[0])
	}
	return nil
}

func (p *Publisher) stale(seen map[string]bool) []string {
	var out []string
	for name := range p.last {
		if !seen[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// LogSink writes deliveries to a logger. It backs `pmd run` when no
// external store is configured.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Set(port string, fields map[string]string) error {
	s.Log.Info("port updated",
		zap.String("port", port),
		zap.String("connector", fields["connector"]),
		zap.String("status", fields["connector_status"]),
		zap.Any("fields", fields))
	return nil
}

func (s LogSink) Delete(port string) error {
	s.Log.Info("port removed", zap.String("port", port))
	return nil
}
