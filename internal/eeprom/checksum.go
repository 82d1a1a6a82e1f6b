package eeprom

import (
	"errors"
	"fmt"
)

// ErrChecksum reports an identity page whose CC_BASE or CC_EXT byte does not
// match the sum of the bytes it covers.
var ErrChecksum = errors.New("eeprom checksum mismatch")

// Checksum is the result of validating both identity checksums.
type Checksum struct {
	Base, Ext       byte // stored
	BaseSum, ExtSum byte // calculated
}

func (c Checksum) BaseOK() bool { return c.Base == c.BaseSum }
func (c Checksum) ExtOK() bool  { return c.Ext == c.ExtSum }
func (c Checksum) OK() bool     { return c.BaseOK() && c.ExtOK() }

// Err returns nil if both checksums hold, otherwise an error wrapping ErrChecksum.
func (c Checksum) Err() error {
	switch {
	case !c.BaseOK():
		return fmt.Errorf("%w: CC_BASE 0x%02x, calculated 0x%02x", ErrChecksum, c.Base, c.BaseSum)
	case !c.ExtOK():
		return fmt.Errorf("%w: CC_EXT 0x%02x, calculated 0x%02x", ErrChecksum, c.Ext, c.ExtSum)
	}
	return nil
}

// Sum adds bytes modulo 256.
func Sum(data []byte) byte {
	var s byte
	for _, b := range data {
		s += b
	}
	return s
}

// Verify checks CC_BASE (bytes 0-62) and CC_EXT (bytes 64-94) of an identity
// page. Pages shorter than 96 bytes fail both checks.
func Verify(page []byte) Checksum {
	if len(page) <= OffCCExt {
		return Checksum{BaseSum: 1, ExtSum: 1}
	}
	return Checksum{
		Base:    page[OffCCBase],
		Ext:     page[OffCCExt],
		BaseSum: Sum(page[:OffCCBase]),
		ExtSum:  Sum(page[OffCCBase+1 : OffCCExt]),
	}
}

// Seal rewrites both checksum bytes so the page passes Verify.
func Seal(page []byte) {
	if len(page) <= OffCCExt {
		return
	}
	page[OffCCBase] = Sum(page[:OffCCBase])
	page[OffCCExt] = Sum(page[OffCCBase+1 : OffCCExt])
}
