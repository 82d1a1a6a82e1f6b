// Package cli defines the pmd command line.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitaminmoo/pmd/internal/bus"
	"github.com/vitaminmoo/pmd/internal/config"
	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/metrics"
	"github.com/vitaminmoo/pmd/internal/module"
	"github.com/vitaminmoo/pmd/internal/port"
	"github.com/vitaminmoo/pmd/internal/publish"
	"github.com/vitaminmoo/pmd/internal/render"
	"github.com/vitaminmoo/pmd/internal/tui"
)

var stdout io.Writer = os.Stdout

// CLI is the root command structure for pmd.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable verbose debug output"`
	Config  string `short:"c" type:"path" env:"PMD_CONFIG" help:"Configuration file"`

	Run    RunCmd    `cmd:"" default:"1" help:"Poll ports, publish records and serve metrics (default)"`
	Dump   DumpCmd   `cmd:"" help:"Poll once and print port records"`
	Watch  WatchCmd  `cmd:"" help:"Launch the interactive port monitor"`
	Decode DecodeCmd `cmd:"" help:"Decode an EEPROM image file"`
	Sim    SimCmd    `cmd:"" help:"Insert or remove a module on a simulated port of a running daemon"`
}

// env is what every command that touches ports needs.
type env struct {
	log   *zap.Logger
	sc    *config.SafeConfig
	buses *bus.Buses
	b     *builder
	reg   *port.Registry
}

func (c *CLI) setup() (*env, error) {
	log, err := config.NewLogger(c.Verbose)
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	sc := config.New(c.Config)
	if err := sc.LoadConfig(); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	cfg := sc.Get()

	buses := bus.NewBuses()
	b := newBuilder(buses, cfg.Retries, log)
	return &env{log: log, sc: sc, buses: buses, b: b, reg: buildRegistry(cfg, b)}, nil
}

func (e *env) close() {
	if err := e.buses.Close(); err != nil {
		e.log.Warn("error closing buses", zap.Error(err))
	}
	_ = e.log.Sync()
}

// --- Run Command ---

type RunCmd struct{}

func (c *RunCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	defer e.close()

	log := e.log
	cfg := e.sc.Get()
	log.Info("starting pmd", zap.Int("ports", len(e.reg.Names())), zap.Duration("poll_interval", cfg.PollInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// setup config reload
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	reloadRequest := make(chan chan error)
	go func() {
		for {
			var result chan error
			select {
			case <-ctx.Done():
				return
			case <-hup:
				log.Debug("config reload triggered by SIGHUP")
			case result = <-reloadRequest:
				log.Debug("config reload triggered by API")
			}
			err := e.reload()
			if err != nil {
				log.Error("error reloading config", zap.Error(err))
			} else {
				log.Info("reloaded config file")
			}
			if result != nil {
				result <- err
			}
		}
	}()

	mux := http.NewServeMux()
	collectors := append(port.Collectors(), config.Collectors()...)
	mux.Handle(cfg.MetricsPath, metrics.Handler(e.reg, collectors...))
	mux.HandleFunc("/-/reload", reloadHandler(ctx, reloadRequest))
	mux.HandleFunc("/-/sim", simHandler(e.b))
	server := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		log.Info("starting http server", zap.String("metrics_path", cfg.MetricsPath), zap.String("listen", cfg.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting http server", zap.Error(err))
			stop()
		}
	}()

	publisher := publish.NewPublisher(publish.LogSink{Log: log.Named("publish")}, log)
	e.reg.Run(ctx, cfg.PollInterval, func(snaps []port.Snapshot) {
		_ = publisher.Publish(snaps)
	})

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (e *env) reload() error {
	prev := e.sc.Get()
	if err := e.sc.LoadConfig(); err != nil {
		return err
	}
	next := e.sc.Get()
	if next.PollInterval != prev.PollInterval || next.Listen != prev.Listen || next.MetricsPath != prev.MetricsPath {
		e.log.Warn("poll_interval, listen and metrics_path changes take effect on restart")
	}
	e.b.retries = next.Retries
	reconcile(e.reg, prev, next, e.b)
	return nil
}

// --- Dump Command ---

type DumpCmd struct {
	Port   string `arg:"" optional:"" help:"Port to show in full (default: summary of all ports)"`
	Format string `short:"f" enum:"table,yaml" default:"table" help:"Output format (table, yaml)"`
	Raw    bool   `help:"Include a hex dump of the pages read from the module"`
}

func (c *DumpCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	defer e.close()

	e.reg.Tick()

	snaps := e.reg.Snapshots()
	if c.Port != "" {
		s, ok := e.reg.Snapshot(c.Port)
		if !ok {
			return fmt.Errorf("port not configured: %s", c.Port)
		}
		snaps = []port.Snapshot{s}
	}

	switch {
	case c.Format == "yaml":
		out := make(map[string]map[string]string, len(snaps))
		for _, s := range snaps {
			out[s.Port] = s.Fields()
		}
		data, err := yaml.Marshal(out)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case c.Port != "":
		if err := render.Fields(stdout, snaps[0]); err != nil {
			return err
		}
	default:
		fmt.Fprintln(stdout, render.Table(snaps))
	}

	if c.Raw {
		for _, s := range snaps {
			render.Raw(stdout, s)
		}
	}
	return nil
}

// --- Watch Command ---

type WatchCmd struct {
	Interval time.Duration `short:"i" help:"Poll interval (default: from config)"`
}

func (c *WatchCmd) Run(globals *CLI) error {
	e, err := globals.setup()
	if err != nil {
		return err
	}
	defer e.close()

	interval := c.Interval
	if interval <= 0 {
		interval = e.sc.Get().PollInterval
	}
	return tui.Run(e.reg, interval)
}

// --- Decode Command ---

type DecodeCmd struct {
	Connector string `short:"t" required:"" enum:"SFP_PLUS,QSFP_PLUS,QSFP28" help:"Connector type of the cage the image was read from"`
	File      string `arg:"" type:"existingfile" help:"EEPROM binary file to decode"`
	Hex       bool   `help:"Include a hex dump of the image"`
}

func (c *DecodeCmd) Run(globals *CLI) error {
	f, err := module.ParseFamily(c.Connector)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	fmt.Fprintf(stdout, "Read %d bytes from %s\n", len(data), c.File)
	if err := render.Decode(stdout, f, data); err != nil {
		return err
	}
	if c.Hex {
		fmt.Fprintln(stdout)
		eeprom.HexDump(stdout, data)
	}
	return nil
}

// --- Sim Command ---

type SimCmd struct {
	Port   string `arg:"" help:"Simulated port"`
	Action string `arg:"" enum:"insert,remove" help:"Action (insert, remove)"`
	File   string `arg:"" optional:"" type:"existingfile" help:"EEPROM image to insert"`
	URL    string `default:"http://localhost:9778" help:"Address of the running daemon"`
}

func (c *SimCmd) Run(globals *CLI) error {
	var image []byte
	if c.Action == "insert" {
		if c.File == "" {
			return fmt.Errorf("insert needs an EEPROM image file")
		}
		data, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		image = data
	}

	q := url.Values{"port": {c.Port}, "action": {c.Action}}
	resp, err := http.Post(c.URL+"/-/sim?"+q.Encode(), "application/octet-stream", bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("error contacting pmd: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	fmt.Fprintf(stdout, "port %s: %s ok\n", c.Port, c.Action)
	return nil
}
