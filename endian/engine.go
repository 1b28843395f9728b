// Package endian provides byte order utilities for binary encoding and decoding.
//
// It combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single EndianEngine interface. The Cap'n Proto wire
// format is defined in little-endian byte order, so callers throughout this
// module use Little(); Big() exists for diagnostics and tests.
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface for byte order operations.
//
// binary.LittleEndian and binary.BigEndian both satisfy it, so an engine can
// be passed anywhere a plain binary.ByteOrder is expected.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Little returns the little-endian engine, the byte order of the wire format.
func Little() EndianEngine {
	return binary.LittleEndian
}

// Big returns the big-endian engine.
func Big() EndianEngine {
	return binary.BigEndian
}

// Native determines the host's byte order from a fixed integer value.
func Native() binary.ByteOrder {
	// 0x0100 is 256. A little-endian host stores the LSB (0x00) first;
	// a big-endian host stores the MSB (0x01) first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittle reports whether the host byte order matches the wire format.
func IsNativeLittle() bool {
	return Native() == binary.LittleEndian
}
