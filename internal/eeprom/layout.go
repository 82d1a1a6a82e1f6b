package eeprom

// PageSize is the length of every page the poller reads: the SFP+ A0 and A2
// pages, the QSFP upper page 00h and the QSFP lower page.
const PageSize = 128

// Identity page offsets, relative to the first byte of the identity buffer.
// For QSFP modules the buffer is the upper page 00h, so offset N here is
// absolute byte 128+N in the module's memory map.
const (
	OffIdentifier     = 0
	OffExtIdentifier  = 1
	OffConnector      = 2
	OffCompliance     = 3 // 8 bytes, 3..10
	OffEncoding       = 11
	OffBitRate        = 12 // units of 100 Mb/s
	OffRateID         = 13
	OffLengthCopper   = 18 // SFP: copper cable length in metres
	OffVendorName     = 20
	OffVendorOUI      = 37
	OffVendorPN       = 40
	OffVendorRev      = 56
	OffSFPWavelength  = 60
	OffQSFPWavelength = 58
	OffCCBase         = 63
	OffExtCompliance  = 64 // QSFP28 extended specification compliance
	OffVendorSN       = 68
	OffDateCode       = 84
	OffDiagType       = 92
	OffEnhancedOpts   = 93
	OffSFF8472Rev     = 94
	OffCCExt          = 95

	LenVendorName    = 16
	LenVendorPN      = 16
	LenSFPVendorRev  = 4
	LenQSFPVendorRev = 2
	LenVendorSN      = 16
	LenDateCode      = 8
)

// Nominal bit rate at or above which a copper pigtail is a 10G cable.
const BitRate10G = 0x64

// Connector type codes (byte 2).
const (
	ConnCopperPigtail = 0x21
	ConnNoSeparable   = 0x23
)

// SFP compliance bits.
const (
	SFP10GBaseSR  = 0x10 // byte 3
	SFP10GBaseLR  = 0x20
	SFP10GBaseLRM = 0x40
	SFP10GBaseER  = 0x80

	SFP1000BaseSX = 0x01 // byte 6
	SFP1000BaseLX = 0x02
	SFP1000BaseCX = 0x04
	SFP1000BaseT  = 0x08

	SFPPassiveCable = 0x04 // byte 8
	SFPActiveCable  = 0x08
)

// Compliance byte indexes, relative to the identity buffer.
const (
	OffCompliance10G = OffCompliance + 0
	OffComplianceGbE = OffCompliance + 3
	OffComplianceSFP = OffCompliance + 5
)

// QSFP compliance bits (page byte 131).
const (
	QSFP40GActive   = 0x01 // XLPPI
	QSFP40GBaseLR4  = 0x02
	QSFP40GBaseSR4  = 0x04
	QSFP40GBaseCR4  = 0x08
	QSFPExtendedSpc = 0x80
)

// QSFP28 extended specification compliance codes (page byte 192).
const (
	Ext100GAOC   = 0x01
	Ext100GSR4   = 0x02
	Ext100GLR4   = 0x03
	Ext100GER4   = 0x04
	Ext100GSR10  = 0x05
	Ext100GCWDM4 = 0x06
	Ext100GPSM4  = 0x07
	Ext100GACC   = 0x08
	Ext100GCR4   = 0x0b
	Ext100GCLR4  = 0x17
)

// Diagnostic monitoring type bits (byte 92).
const (
	DiagAddressChange  = 0x04
	DiagAveragePower   = 0x08
	DiagExternalCal    = 0x10
	DiagInternalCal    = 0x20
	DiagDDMImplemented = 0x40
)

// SFP A2 page layout.
const (
	A2Thresholds   = 0 // 5 metrics x 4 thresholds x 2 bytes
	A2Temperature  = 96
	A2Vcc          = 98
	A2TxBias       = 100
	A2TxPower      = 102
	A2RxPower      = 104
	A2StatusCtrl   = 110
	A2AlarmFlags   = 112 // 2 bytes
	A2WarningFlags = 116 // 2 bytes
)

// SFP A2 flag bits. The first byte covers temperature, Vcc, bias and tx
// power; the second carries rx power in its top two bits.
const (
	FlagTxPowerLow  = 0x01
	FlagTxPowerHigh = 0x02
	FlagBiasLow     = 0x04
	FlagBiasHigh    = 0x08
	FlagVccLow      = 0x10
	FlagVccHigh     = 0x20
	FlagTempLow     = 0x40
	FlagTempHigh    = 0x80

	FlagRxPowerLow  = 0x40
	FlagRxPowerHigh = 0x80
)

// QSFP lower page layout.
const (
	QSFPTempFlags    = 6
	QSFPVccFlags     = 7
	QSFPRxPowerFlags = 9  // 2 bytes, lanes 1/2 then 3/4
	QSFPTxBiasFlags  = 11 // 2 bytes
	QSFPTxPowerFlags = 13 // 2 bytes
	QSFPTemperature  = 22
	QSFPVcc          = 26
	QSFPRxPower      = 34 // 4 lanes x 2 bytes
	QSFPTxBias       = 42
	QSFPTxPower      = 50
	QSFPTxDisable    = 86
)

// QSFP monitor flag bits for the temperature and Vcc bytes.
const (
	QSFPFlagLowWarn   = 0x10
	QSFPFlagHighWarn  = 0x20
	QSFPFlagLowAlarm  = 0x40
	QSFPFlagHighAlarm = 0x80
)

// QSFPTxDisableAll disables the transmitters of all four lanes.
const QSFPTxDisableAll = 0x0f
