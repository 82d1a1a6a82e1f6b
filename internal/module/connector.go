package module

import (
	"strconv"
	"strings"
)

// Connector is the classified module variant.
type Connector uint8

const (
	ConnectorUnknown Connector = iota
	ConnectorAbsent
	SFPDAC
	SFPSX
	SFPLX
	SFPCX
	SFPRJ45
	SFPSR
	SFPLR
	SFPLRM
	QSFPLR4
	QSFPSR4
	QSFPCR4
	QSFP28SR4
	QSFP28LR4
	QSFP28CWDM4
	QSFP28PSM4
	QSFP28CR4
	QSFP28CLR4
)

var connectorNames = [...]string{
	ConnectorUnknown: "unknown",
	ConnectorAbsent:  "absent",
	SFPDAC:           "SFP_DAC",
	SFPSX:            "SFP_SX",
	SFPLX:            "SFP_LX",
	SFPCX:            "SFP_CX",
	SFPRJ45:          "SFP_RJ45",
	SFPSR:            "SFP_SR",
	SFPLR:            "SFP_LR",
	SFPLRM:           "SFP_LRM",
	QSFPLR4:          "QSFP_LR4",
	QSFPSR4:          "QSFP_SR4",
	QSFPCR4:          "QSFP_CR4",
	QSFP28SR4:        "QSFP28_SR4",
	QSFP28LR4:        "QSFP28_LR4",
	QSFP28CWDM4:      "QSFP28_CWDM4",
	QSFP28PSM4:       "QSFP28_PSM4",
	QSFP28CR4:        "QSFP28_CR4",
	QSFP28CLR4:       "QSFP28_CLR4",
}

func (c Connector) String() string {
	if int(c) < len(connectorNames) {
		return connectorNames[c]
	}
	return "unknown"
}

// Status is the connector_status value published for a port.
type Status uint8

const (
	// StatusUnknown covers read, checksum and configuration failures.
	StatusUnknown Status = iota
	StatusAbsent
	StatusSupported
	// StatusUnsupported is a readable module whose compliance codes match
	// no known variant.
	StatusUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusSupported:
		return "supported"
	case StatusUnsupported:
		return "unsupported"
	default:
		return "unrecognized"
	}
}

// CableTechnology applies to direct attach cables only.
type CableTechnology uint8

const (
	CableNone CableTechnology = iota
	CablePassive
	CableActive
)

func (c CableTechnology) String() string {
	switch c {
	case CablePassive:
		return "passive"
	case CableActive:
		return "active"
	default:
		return ""
	}
}

// Speeds is the ordered list of supported speeds in Mb/s.
type Speeds []int

// String joins the speeds with commas. An empty list renders as "0".
func (s Speeds) String() string {
	if len(s) == 0 {
		return "0"
	}
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Max returns the highest speed, or 0.
func (s Speeds) Max() int {
	m := 0
	for _, v := range s {
		if v > m {
			m = v
		}
	}
	return m
}
