package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `
poll_interval: 2s
listen: ":9100"
ports:
  - name: "1"
    connector: SFP_PLUS
    bus: /dev/i2c-2
    presence: {bus: /dev/i2c-0, address: 0x74, register: 0x10, mask: 0x01, active_low: true}
    tx_disable: {address: 0x74, register: 0x30, mask: 0x01}
  - name: "49"
    connector: QSFP_PLUS
    bus: /dev/i2c-3
    reset: {address: 0x75, register: 0x20, mask: 0x04}
    enable: false
    split: true
    subports: [true, false, true, true]
  - name: "50"
    connector: QSFP28
    fixture: testdata/qsfp28.bin
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}

	if c.PollInterval != 2*time.Second || c.Listen != ":9100" {
		t.Errorf("poll_interval=%s listen=%s", c.PollInterval, c.Listen)
	}
	if c.Retries != 2 || c.MetricsPath != "/metrics" {
		t.Errorf("defaults not applied: retries=%d metrics_path=%s", c.Retries, c.MetricsPath)
	}
	if len(c.Ports) != 3 {
		t.Fatalf("ports = %d, want 3", len(c.Ports))
	}

	p := c.Ports[0]
	if p.EEPROM != 0x50 || p.DOM != 0x51 || !p.Enable {
		t.Errorf("port defaults not applied: %+v", p)
	}
	slot := p.Slot()
	if slot.Presence == nil || slot.Presence.Addr != 0x74 || !slot.Presence.ActiveLow || slot.Presence.Bus != "/dev/i2c-0" {
		t.Errorf("presence = %+v", slot.Presence)
	}
	if slot.Reset != nil {
		t.Errorf("reset = %+v, want nil", slot.Reset)
	}

	q := c.Ports[1]
	if q.Enable || !q.Split || len(q.Subports) != 4 || q.Subports[1] {
		t.Errorf("enable config = %+v", q)
	}
	if !c.Ports[2].Simulated() || c.Ports[0].Simulated() {
		t.Error("Simulated()")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "poll_intervall: 1s\n"},
		{"unknown port key", "ports:\n  - name: a\n    bus: x\n    colour: red\n"},
		{"missing name", "ports:\n  - bus: x\n"},
		{"duplicate", "ports:\n  - {name: a, bus: x}\n  - {name: a, bus: y}\n"},
		{"no bus", "ports:\n  - {name: a, connector: SFP_PLUS}\n"},
		{"negative retries", "retries: -1\n"},
		{"zero interval", "poll_interval: 0s\n"},
	}
	for _, tt := range tests {
		if _, err := Parse(strings.NewReader(tt.doc)); err == nil {
			t.Errorf("%s: Parse() succeeded", tt.name)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.PollInterval != 5*time.Second || len(c.Ports) != 0 {
		t.Errorf("Parse(empty) = %+v", c)
	}
}

func TestSafeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmd.yml")
	if err := os.WriteFile(path, []byte("retries: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sc := New(path)
	if sc.Get().Retries != 2 {
		t.Error("New() did not start from defaults")
	}
	if err := sc.LoadConfig(); err != nil {
		t.Fatal(err)
	}
	if sc.Get().Retries != 4 {
		t.Errorf("retries = %d, want 4", sc.Get().Retries)
	}

	if err := os.WriteFile(path, []byte("retries: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := sc.LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted a broken file")
	}
	if sc.Get().Retries != 4 {
		t.Error("broken reload replaced the config")
	}

	if err := New("").LoadConfig(); err != nil {
		t.Errorf("LoadConfig(no file) error = %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(-1) {
		t.Error("verbose logger does not log debug")
	}
}
