package module

import (
	"fmt"
	"strconv"
)

// Record is everything known about the module in one port.
type Record struct {
	Port   string
	Family Family

	Status Status
	Classification

	// Identity is nil until an identity page has been parsed.
	Identity *Identity
	// Raw is the identity page as read, kept even when it did not classify.
	Raw []byte

	// DOM is nil until a diagnostics page has been decoded.
	DOM            *DOM
	RawDiagnostics []byte
}

// NewRecord returns the record of a configured port before its first poll.
func NewRecord(port string, f Family) Record {
	return Record{Port: port, Family: f}
}

// Clear drops everything decoded from the module, keeping the port
// configuration.
func (r *Record) Clear() {
	*r = NewRecord(r.Port, r.Family)
}

// SetAbsent clears the record for an empty port.
func (r *Record) SetAbsent() {
	r.Clear()
	r.Connector = ConnectorAbsent
	r.Status = StatusAbsent
}

// SetUnknown clears the record for a module that could not be read.
func (r *Record) SetUnknown() {
	r.Clear()
	r.Connector = ConnectorUnknown
	r.Status = StatusUnknown
}

// Parse replaces the decoded identity fields of r from a validated identity
// page. Diagnostics are dropped; they belong to the previous module.
func (r *Record) Parse(id []byte) error {
	c, err := Classify(r.Family, id)
	if err != nil {
		r.SetUnknown()
		r.Raw = append([]byte(nil), id...)
		return err
	}
	ident := ExtractIdentity(r.Family, id)

	r.Clear()
	r.Classification = c
	r.Status = StatusSupported
	if !c.Known() {
		r.Status = StatusUnsupported
	}
	r.Identity = &ident
	r.Raw = append([]byte(nil), id...)
	return nil
}

// SetDOM stores a decoded diagnostics page.
func (r *Record) SetDOM(page []byte) {
	dom := DecodeDOM(r.Family, page)
	r.DOM = &dom
	r.RawDiagnostics = append([]byte(nil), page...)
}

// Clone returns a deep copy that shares no memory with r.
func (r Record) Clone() Record {
	c := r
	c.Speeds = append(Speeds(nil), r.Speeds...)
	c.Raw = append([]byte(nil), r.Raw...)
	c.RawDiagnostics = append([]byte(nil), r.RawDiagnostics...)
	if r.Identity != nil {
		ident := *r.Identity
		c.Identity = &ident
	}
	if r.DOM != nil {
		dom := DOM{
			Temperature: cloneMetric(r.DOM.Temperature),
			Vcc:         cloneMetric(r.DOM.Vcc),
			TxBias:      cloneMetrics(r.DOM.TxBias),
			RxPower:     cloneMetrics(r.DOM.RxPower),
			TxPower:     cloneMetrics(r.DOM.TxPower),
		}
		c.DOM = &dom
	}
	return c
}

func cloneMetric(m Metric) Metric {
	if m.Thresholds != nil {
		t := *m.Thresholds
		m.Thresholds = &t
	}
	return m
}

func cloneMetrics(ms []Metric) []Metric {
	if ms == nil {
		return nil
	}
	out := make([]Metric, len(ms))
	for i, m := range ms {
		out[i] = cloneMetric(m)
	}
	return out
}

// Fields flattens the record into the key/value form published for the port.
// Keys that do not apply to the current state are omitted.
func (r Record) Fields() map[string]string {
	f := map[string]string{
		"connector":        r.Connector.String(),
		"connector_status": r.Status.String(),
	}
	if r.Status != StatusSupported && r.Status != StatusUnsupported {
		return f
	}

	f["max_speed"] = strconv.Itoa(r.Speeds.Max())
	f["supported_speeds"] = r.Speeds.String()
	if r.Cable != CableNone {
		f["cable_technology"] = r.Cable.String()
		f["cable_length"] = strconv.Itoa(r.CableLength)
	}
	if r.Identity != nil {
		f["vendor_name"] = r.Identity.VendorName
		f["vendor_oui"] = r.Identity.VendorOUI
		f["vendor_part_number"] = r.Identity.VendorPN
		f["vendor_revision"] = r.Identity.VendorRevision
		f["vendor_serial_number"] = r.Identity.VendorSN
		f["vendor_date_code"] = r.Identity.DateCode
		f["media_connector"] = r.Identity.MediaConnector
		f["encoding"] = r.Identity.Encoding
		f["identity_hash"] = r.Identity.Hash
	}
	if r.DOM != nil {
		addMetric(f, "temperature", r.DOM.Temperature)
		addMetric(f, "vcc", r.DOM.Vcc)
		addLanes(f, "tx%s_bias", r.DOM.TxBias)
		addLanes(f, "rx%s_power", r.DOM.RxPower)
		addLanes(f, "tx%s_power", r.DOM.TxPower)
	}
	return f
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func addMetric(f map[string]string, key string, m Metric) {
	f[key] = formatFloat(m.Value)
	f[key+"_high_alarm"] = strconv.FormatBool(m.Flags.HighAlarm)
	f[key+"_low_alarm"] = strconv.FormatBool(m.Flags.LowAlarm)
	f[key+"_high_warning"] = strconv.FormatBool(m.Flags.HighWarning)
	f[key+"_low_warning"] = strconv.FormatBool(m.Flags.LowWarning)
	if t := m.Thresholds; t != nil {
		f[key+"_high_alarm_threshold"] = formatFloat(t.HighAlarm)
		f[key+"_low_alarm_threshold"] = formatFloat(t.LowAlarm)
		f[key+"_high_warning_threshold"] = formatFloat(t.HighWarning)
		f[key+"_low_warning_threshold"] = formatFloat(t.LowWarning)
	}
}

// addLanes names single-lane values without a lane number ("tx_bias") and
// multi-lane values from 1 ("tx1_bias").
func addLanes(f map[string]string, pattern string, lanes []Metric) {
	for i, m := range lanes {
		lane := ""
		if len(lanes) > 1 {
			lane = strconv.Itoa(i + 1)
		}
		addMetric(f, fmt.Sprintf(pattern, lane), m)
	}
}
