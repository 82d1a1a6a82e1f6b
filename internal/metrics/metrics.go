// Package metrics exports port snapshots to prometheus. Module gauges are
// rebuilt on every scrape from the registry's snapshots, so a removed module
// or port disappears from the next scrape.
package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitaminmoo/pmd/internal/eeprom"
	"github.com/vitaminmoo/pmd/internal/module"
	"github.com/vitaminmoo/pmd/internal/port"
)

// Source provides snapshots to export.
type Source interface {
	Snapshots() []port.Snapshot
}

// Handler serves the module gauges of src along with the static collectors.
func Handler(src Source, static ...prometheus.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registry := prometheus.NewRegistry()
		registry.MustRegister(static...)
		AddMetricsModules(prometheus.WrapRegistererWithPrefix("pmd_", registry), src.Snapshots())

		h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		h.ServeHTTP(w, r)
	})
}

// AddMetricsModules registers one set of gauges describing snaps.
func AddMetricsModules(registry prometheus.Registerer, snaps []port.Snapshot) {
	addMetricsPorts(registry, snaps)
	addMetricsDOM(prometheus.WrapRegistererWithPrefix("module_", registry), snaps)
}

func addMetricsPorts(registry prometheus.Registerer, snaps []port.Snapshot) {
	presentGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "module_present",
		Help: "Whether a module is seated in the port.",
	}, []string{"port"})
	registry.MustRegister(presentGaugeVec)

	infoGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "module_info",
		Help: "Classification and identity of the seated module.",
	}, []string{"port", "family", "connector", "status", "vendor", "part_number", "serial_number", "revision"})
	registry.MustRegister(infoGaugeVec)

	speedGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "module_max_speed_mbps",
		Help: "Highest speed supported by the seated module.",
	}, []string{"port"})
	registry.MustRegister(speedGaugeVec)

	cableGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "module_cable_length_meters",
		Help: "Length of a direct attach cable.",
	}, []string{"port", "technology"})
	registry.MustRegister(cableGaugeVec)

	stateGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "port_state",
		Help: "Acquisition state of the port, 1 for the current state.",
	}, []string{"port", "state"})
	registry.MustRegister(stateGaugeVec)

	for _, s := range snaps {
		for _, st := range []port.State{port.StateAbsent, port.StateIdentityPending, port.StateIdentityAcquired} {
			stateGaugeVec.WithLabelValues(s.Port, st.String()).Set(boolValue(s.State == st))
		}

		presentGaugeVec.WithLabelValues(s.Port).Set(boolValue(s.State != port.StateAbsent))
		if s.State == port.StateAbsent {
			continue
		}

		var vendor, pn, sn, rev string
		if s.Identity != nil {
			vendor, pn, sn, rev = labelValue(s.Identity.VendorName), labelValue(s.Identity.VendorPN), labelValue(s.Identity.VendorSN), labelValue(s.Identity.VendorRevision)
		}
		infoGaugeVec.WithLabelValues(s.Port, s.Family.String(), s.Connector.String(), s.Status.String(), vendor, pn, sn, rev).Set(1)

		if s.Status != module.StatusSupported {
			continue
		}
		speedGaugeVec.WithLabelValues(s.Port).Set(float64(s.Speeds.Max()))
		if s.Cable != module.CableNone {
			cableGaugeVec.WithLabelValues(s.Port, s.Cable.String()).Set(float64(s.CableLength))
		}
	}
}

func addMetricsDOM(registry prometheus.Registerer, snaps []port.Snapshot) {
	temperatureGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "temperature_celsius",
		Help: "Internal module temperature.",
	}, []string{"port"})
	registry.MustRegister(temperatureGaugeVec)

	vccGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "supply_voltage_volts",
		Help: "Module supply voltage.",
	}, []string{"port"})
	registry.MustRegister(vccGaugeVec)

	biasGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tx_bias_milliamperes",
		Help: "Laser bias current per lane.",
	}, []string{"port", "lane"})
	registry.MustRegister(biasGaugeVec)

	txPowerGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tx_power_dbm",
		Help: "Transmit optical power per lane.",
	}, []string{"port", "lane"})
	registry.MustRegister(txPowerGaugeVec)

	rxPowerGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rx_power_dbm",
		Help: "Receive optical power per lane.",
	}, []string{"port", "lane"})
	registry.MustRegister(rxPowerGaugeVec)

	flagGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dom_flag",
		Help: "Alarm and warning flags raised by the module.",
	}, []string{"port", "sensor", "lane", "flag"})
	registry.MustRegister(flagGaugeVec)

	thresholdGaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dom_threshold",
		Help: "Alarm and warning thresholds programmed into the module, in the sensor's unit.",
	}, []string{"port", "sensor", "threshold"})
	registry.MustRegister(thresholdGaugeVec)

	for _, s := range snaps {
		if s.DOM == nil {
			continue
		}
		d := s.DOM
		temperatureGaugeVec.WithLabelValues(s.Port).Set(d.Temperature.Value)
		vccGaugeVec.WithLabelValues(s.Port).Set(d.Vcc.Value)

		sensors := []struct {
			name  string
			lanes []module.Metric
			gauge *prometheus.GaugeVec
			dbm   bool
		}{
			{"temperature", []module.Metric{d.Temperature}, nil, false},
			{"vcc", []module.Metric{d.Vcc}, nil, false},
			{"tx_bias", d.TxBias, biasGaugeVec, false},
			{"tx_power", d.TxPower, txPowerGaugeVec, true},
			{"rx_power", d.RxPower, rxPowerGaugeVec, true},
		}
		for _, sensor := range sensors {
			for i, m := range sensor.lanes {
				lane := strconv.Itoa(i + 1)
				if sensor.gauge != nil {
					v := m.Value
					if sensor.dbm {
						v = eeprom.DBm(v)
					}
					sensor.gauge.WithLabelValues(s.Port, lane).Set(v)
				}
				flagGaugeVec.WithLabelValues(s.Port, sensor.name, lane, "high_alarm").Set(boolValue(m.Flags.HighAlarm))
				flagGaugeVec.WithLabelValues(s.Port, sensor.name, lane, "low_alarm").Set(boolValue(m.Flags.LowAlarm))
				flagGaugeVec.WithLabelValues(s.Port, sensor.name, lane, "high_warning").Set(boolValue(m.Flags.HighWarning))
				flagGaugeVec.WithLabelValues(s.Port, sensor.name, lane, "low_warning").Set(boolValue(m.Flags.LowWarning))

				if t := m.Thresholds; t != nil && i == 0 {
					thresholdGaugeVec.WithLabelValues(s.Port, sensor.name, "high_alarm").Set(t.HighAlarm)
					thresholdGaugeVec.WithLabelValues(s.Port, sensor.name, "low_alarm").Set(t.LowAlarm)
					thresholdGaugeVec.WithLabelValues(s.Port, sensor.name, "high_warning").Set(t.HighWarning)
					thresholdGaugeVec.WithLabelValues(s.Port, sensor.name, "low_warning").Set(t.LowWarning)
				}
			}
		}
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// labelValue replaces everything outside printable ASCII, including invalid
// UTF-8, with '?'. Vendor fields are raw EEPROM bytes.
func labelValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}
