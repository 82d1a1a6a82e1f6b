// Package config loads the daemon configuration: polling parameters, the
// metrics endpoint and the hardware description of every module slot.
package config

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitaminmoo/pmd/internal/bus"
)

type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Retries      int           `yaml:"retries"`
	Listen       string        `yaml:"listen"`
	MetricsPath  string        `yaml:"metrics_path"`
	Ports        []*Port       `yaml:"ports"`
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		Retries:      2,
		Listen:       ":9778",
		MetricsPath:  "/metrics",
	}
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig()

	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	return c.validate()
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	seen := make(map[string]bool, len(c.Ports))
	for i, p := range c.Ports {
		if p.Name == "" {
			return fmt.Errorf("ports[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("ports[%d]: duplicate port %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Bus == "" && !p.Simulated() {
			return fmt.Errorf("port %s: bus is required unless simulate or fixture is set", p.Name)
		}
	}
	return nil
}

// Port is the hardware description of one module slot. Connector is kept as
// written; an unknown value is reported on the port rather than rejected.
type Port struct {
	Name      string  `yaml:"name"`
	Connector string  `yaml:"connector"`
	Bus       string  `yaml:"bus"`
	EEPROM    uint16  `yaml:"eeprom_address"`
	DOM       uint16  `yaml:"dom_address"`
	Presence  *Signal `yaml:"presence"`
	Reset     *Signal `yaml:"reset"`
	TxDisable *Signal `yaml:"tx_disable"`

	Enable   bool   `yaml:"enable"`
	Split    bool   `yaml:"split"`
	Subports []bool `yaml:"subports"`

	Simulate bool   `yaml:"simulate"`
	Fixture  string `yaml:"fixture"`
}

func DefaultPort() Port {
	return Port{
		EEPROM: bus.AddrEEPROM,
		DOM:    bus.AddrDiagnostics,
		Enable: true,
	}
}

func (p *Port) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*p = DefaultPort()

	type plain Port
	return unmarshal((*plain)(p))
}

// Simulated reports whether the port is served by an in-memory fixture.
func (p *Port) Simulated() bool {
	return p.Simulate || p.Fixture != ""
}

// Slot converts the description to the bus layout.
func (p *Port) Slot() bus.Slot {
	return bus.Slot{
		Bus:         p.Bus,
		EEPROM:      p.EEPROM,
		Diagnostics: p.DOM,
		Presence:    p.Presence.signal(),
		Reset:       p.Reset.signal(),
		TxDisable:   p.TxDisable.signal(),
	}
}

// Signal is a register bit, usually in a CPLD. An empty bus means the
// port's own bus.
type Signal struct {
	Bus       string `yaml:"bus"`
	Address   uint16 `yaml:"address"`
	Register  uint8  `yaml:"register"`
	Mask      uint8  `yaml:"mask"`
	ActiveLow bool   `yaml:"active_low"`
}

func (s *Signal) signal() *bus.Signal {
	if s == nil {
		return nil
	}
	return &bus.Signal{
		Bus:       s.Bus,
		Addr:      s.Address,
		Register:  s.Register,
		Mask:      s.Mask,
		ActiveLow: s.ActiveLow,
	}
}

// Parse decodes a configuration document. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &c, nil
}
