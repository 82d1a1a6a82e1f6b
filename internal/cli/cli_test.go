package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/vitaminmoo/pmd/internal/config"
	"github.com/vitaminmoo/pmd/internal/module"
	"github.com/vitaminmoo/pmd/internal/module/moduletest"
)

func writeImage(t *testing.T) string {
	t.Helper()
	image := make([]byte, 512)
	copy(image, moduletest.SFPSR())
	copy(image[256:], moduletest.SFPDiagnostics())
	path := filepath.Join(t.TempDir(), "sfp-sr.bin")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func simulated(name, connector string, enable bool) *config.Port {
	p := config.DefaultPort()
	p.Name, p.Connector, p.Simulate, p.Enable = name, connector, true, enable
	return &p
}

func TestBuildRegistry(t *testing.T) {
	missing := simulated("bad", "SFP_PLUS", true)
	missing.Fixture = filepath.Join(t.TempDir(), "missing.bin")
	good := simulated("good", "SFP_PLUS", true)
	good.Simulate = false
	good.Fixture = writeImage(t)

	cfg := &config.Config{Retries: 2, Ports: []*config.Port{missing, good}}
	reg := buildRegistry(cfg, newBuilder(nil, cfg.Retries, zap.NewNop()))

	if got := reg.Names(); !reflect.DeepEqual(got, []string{"good"}) {
		t.Fatalf("Names() = %v", got)
	}
	reg.Tick()
	s, _ := reg.Snapshot("good")
	if s.Connector != module.SFPSR || s.DOM == nil {
		t.Errorf("fixture port: connector=%v dom=%v", s.Connector, s.DOM)
	}
}

func TestReconcile(t *testing.T) {
	prev := &config.Config{Ports: []*config.Port{
		simulated("1", "SFP_PLUS", true),
		simulated("2", "SFP_PLUS", true),
		simulated("3", "SFP_PLUS", true),
	}}
	b := newBuilder(nil, 2, zap.NewNop())
	reg := buildRegistry(prev, b)
	enabled := b.fixtures["1"]
	rewired := b.fixtures["3"]

	next := &config.Config{Ports: []*config.Port{
		simulated("1", "SFP_PLUS", false),
		simulated("3", "QSFP28", true),
		simulated("4", "SFP_PLUS", true),
	}}
	reconcile(reg, prev, next, b)

	if got := reg.Names(); !reflect.DeepEqual(got, []string{"1", "3", "4"}) {
		t.Errorf("Names() = %v", got)
	}
	if b.fixtures["1"] != enabled {
		t.Error("enable change rebuilt the port")
	}
	if got := enabled.TxDisable; !reflect.DeepEqual(got, []bool{false, true}) {
		t.Errorf("tx disable = %v", got)
	}
	if b.fixtures["3"] == rewired {
		t.Error("connector change did not rebuild the port")
	}
	if s, _ := reg.Snapshot("3"); s.Family != module.FamilyQSFP28 {
		t.Errorf("port 3 family = %v", s.Family)
	}
	if _, ok := b.fixtures["2"]; ok {
		t.Error("deconfigured port kept its fixture")
	}

	// Unchanged configuration is a no-op.
	reconcile(reg, next, next, b)
	if got := enabled.TxDisable; len(got) != 2 {
		t.Errorf("no-op reconcile rewrote tx disable: %v", got)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	var c CLI
	parser, err := kong.New(&c, kong.Name("pmd"), kong.Exit(func(int) { t.Fatal("exited") }))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Run(&c); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestDecodeCommand(t *testing.T) {
	out := run(t, "decode", "--connector", "SFP_PLUS", "--hex", writeImage(t))
	for _, want := range []string{"Read 512 bytes", "AFBR-703SDZ-HP1", "SFP_SR", "3.3072 V", "|....AVAGO"} {
		if !strings.Contains(out, want) {
			t.Errorf("decode output missing %q", want)
		}
	}
}

func TestDumpCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := "ports:\n" +
		"  - name: \"1\"\n    connector: SFP_PLUS\n    fixture: " + writeImage(t) + "\n" +
		"  - name: \"2\"\n    connector: QSFP28\n    simulate: true\n"
	path := filepath.Join(dir, "pmd.yml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out := run(t, "--config", path, "dump", "--format", "yaml")
	for _, want := range []string{"vendor_name: AVAGO", "connector: SFP_SR", "connector: absent", "rx_power_low_alarm: \"true\""} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml dump missing %q:\n%s", want, out)
		}
	}

	out = run(t, "--config", path, "dump", "1", "--raw")
	if !strings.Contains(out, "vendor_serial_number:") || !strings.Contains(out, "Diagnostics Page") {
		t.Errorf("port dump:\n%s", out)
	}
}
