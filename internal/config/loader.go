package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	configReloadSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pmd",
		Name:      "config_last_reload_successful",
		Help:      "Pluggable module daemon config loaded successfully.",
	})

	configReloadSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pmd",
		Name:      "config_last_reload_success_timestamp_seconds",
		Help:      "Timestamp of the last successful configuration reload.",
	})
)

// Collectors returns the config reload gauges for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{configReloadSuccess, configReloadSeconds}
}

type SafeConfig struct {
	sync.RWMutex
	configFile string
	c          *Config
}

func New(configFile string) *SafeConfig {
	c := DefaultConfig()
	return &SafeConfig{
		c:          &c,
		configFile: configFile,
	}
}

func (sc *SafeConfig) Get() *Config {
	sc.RLock()
	defer sc.RUnlock()
	return sc.c
}

// LoadConfig reads the config file and replaces the current config if it
// parses. An empty file name keeps the defaults.
func (sc *SafeConfig) LoadConfig() (err error) {
	defer func() {
		if err != nil {
			configReloadSuccess.Set(0)
		} else {
			configReloadSuccess.Set(1)
			configReloadSeconds.SetToCurrentTime()
		}
	}()

	if sc.configFile == "" {
		return nil
	}
	yamlReader, err := os.Open(sc.configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	defer yamlReader.Close()

	c, err := Parse(yamlReader)
	if err != nil {
		return err
	}

	sc.Lock()
	sc.c = c
	sc.Unlock()

	return nil
}
