package format

type (
	ElementType     uint8
	CompressionType uint8
)

const (
	// List element layouts, in wire order. The numeric values are the 3-bit
	// element-type field of a list pointer and must not be reordered.
	ElementVoid      ElementType = 0 // ElementVoid represents zero-size elements.
	ElementBit       ElementType = 1 // ElementBit represents 1-bit elements packed 8 per byte.
	ElementByte1     ElementType = 2 // ElementByte1 represents 1-byte elements.
	ElementByte2     ElementType = 3 // ElementByte2 represents 2-byte elements.
	ElementByte4     ElementType = 4 // ElementByte4 represents 4-byte elements.
	ElementByte8     ElementType = 5 // ElementByte8 represents 8-byte data elements.
	ElementPointer   ElementType = 6 // ElementPointer represents 8-byte pointer elements.
	ElementComposite ElementType = 7 // ElementComposite represents structs of uniform layout behind a tag word.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// ByteSize returns the fixed per-element data width in bytes.
//
// The second result is false for layouts without a fixed byte width per
// element: void (zero bytes), bit (packed), and composite (layout carried by
// the tag word).
func (e ElementType) ByteSize() (uint32, bool) {
	switch e {
	case ElementByte1:
		return 1, true
	case ElementByte2:
		return 2, true
	case ElementByte4:
		return 4, true
	case ElementByte8, ElementPointer:
		return 8, true
	default:
		return 0, false
	}
}

func (e ElementType) String() string {
	switch e {
	case ElementVoid:
		return "Void"
	case ElementBit:
		return "Bit"
	case ElementByte1:
		return "Byte1"
	case ElementByte2:
		return "Byte2"
	case ElementByte4:
		return "Byte4"
	case ElementByte8:
		return "Byte8"
	case ElementPointer:
		return "Pointer"
	case ElementComposite:
		return "Composite"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
