package eeprom

// IdentifierName describes the identifier byte (byte 0).
func IdentifierName(code byte) string {
	switch code {
	case 0x01:
		return "GBIC"
	case 0x02:
		return "Soldered"
	case 0x03:
		return "SFP/SFP+"
	case 0x06:
		return "XFP"
	case 0x0c:
		return "QSFP"
	case 0x0d:
		return "QSFP+"
	case 0x11:
		return "QSFP28"
	default:
		return "Unknown"
	}
}

// ConnectorName describes the media connector code (byte 2).
func ConnectorName(code byte) string {
	switch code {
	case 0x00:
		return "Unknown"
	case 0x01:
		return "SC"
	case 0x02:
		return "FC Style 1"
	case 0x03:
		return "FC Style 2"
	case 0x04:
		return "BNC/TNC"
	case 0x05:
		return "FC coax"
	case 0x06:
		return "Fiber Jack"
	case 0x07:
		return "LC"
	case 0x08:
		return "MT-RJ"
	case 0x09:
		return "MU"
	case 0x0a:
		return "SG"
	case 0x0b:
		return "Optical Pigtail"
	case 0x0c:
		return "MPO 1x12"
	case 0x0d:
		return "MPO 2x16"
	case 0x20:
		return "HSSDC II"
	case ConnCopperPigtail:
		return "Copper Pigtail"
	case 0x22:
		return "RJ45"
	case ConnNoSeparable:
		return "No separable connector"
	case 0x24:
		return "MXC 2x16"
	default:
		return "Vendor specific"
	}
}

// EncodingName describes the encoding code (byte 11).
func EncodingName(code byte) string {
	switch code {
	case 0x00:
		return "Unspecified"
	case 0x01:
		return "8B/10B"
	case 0x02:
		return "4B/5B"
	case 0x03:
		return "NRZ"
	case 0x04:
		return "Manchester"
	case 0x05:
		return "SONET Scrambled"
	case 0x06:
		return "64B/66B"
	default:
		return "Unknown"
	}
}
