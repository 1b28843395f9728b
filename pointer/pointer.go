// Package pointer implements the codec for the 64-bit pointer words of the
// wire format.
//
// A pointer word decodes to one of four variants, discriminated by its low
// two bits: struct (0), list (1), far (2); the all-zero word is the null
// pointer. Tag 3 is the capability pointer of the RPC layer and is rejected
// here.
package pointer

import (
	"fmt"

	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
)

// Kind discriminates the decoded pointer variants.
type Kind uint8

const (
	KindNull Kind = iota
	KindStruct
	KindList
	KindFar
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindStruct:
		return "Struct"
	case KindList:
		return "List"
	case KindFar:
		return "Far"
	default:
		return "Unknown"
	}
}

// Wire field limits.
const (
	// MaxOffset and MinOffset bound the signed 30-bit word offset of struct
	// and list pointers.
	MaxOffset = 1<<29 - 1
	MinOffset = -(1 << 29)
	// MaxCount bounds the 29-bit element count of list pointers (total
	// payload words for composite lists).
	MaxCount = 1<<29 - 1
	// MaxFarOffset bounds the unsigned 29-bit word offset of far pointers.
	MaxFarOffset = 1<<29 - 1
)

const (
	tagStruct = 0
	tagList   = 1
	tagFar    = 2
	tagOther  = 3
)

// Pointer is the decoded form of a pointer word. Only the fields of the
// active Kind are meaningful.
type Pointer struct {
	Kind Kind

	// Struct and list pointers: signed word offset from the end of the
	// pointer word to the start of the object.
	Offset int32

	// Struct pointers (and composite list tag words).
	DataWords    uint16
	PointerWords uint16

	// List pointers. Count is the element count, except for composite lists
	// where it is the total payload word count excluding the tag word.
	Element format.ElementType
	Count   uint32

	// Far pointers.
	DoubleLanding bool
	FarOffset     uint32 // word offset within the target segment
	SegmentID     uint32
}

// Struct constructs a struct pointer.
func Struct(offset int32, dataWords, pointerWords uint16) Pointer {
	return Pointer{
		Kind:         KindStruct,
		Offset:       offset,
		DataWords:    dataWords,
		PointerWords: pointerWords,
	}
}

// List constructs a list pointer. For composite lists, count is the total
// payload word count excluding the tag word.
func List(offset int32, element format.ElementType, count uint32) Pointer {
	return Pointer{
		Kind:    KindList,
		Offset:  offset,
		Element: element,
		Count:   count,
	}
}

// Far constructs a far pointer to wordOffset within segment seg.
func Far(seg uint32, wordOffset uint32, doubleLanding bool) Pointer {
	return Pointer{
		Kind:          KindFar,
		DoubleLanding: doubleLanding,
		FarOffset:     wordOffset,
		SegmentID:     seg,
	}
}

// Decode interprets a 64-bit pointer word.
//
// Returns:
//   - Pointer: The decoded variant
//   - error: ErrInvalidPointerType for the reserved tag
func Decode(word uint64) (Pointer, error) {
	if word == 0 {
		return Pointer{Kind: KindNull}, nil
	}
	switch word & 3 {
	case tagStruct:
		return Pointer{
			Kind:         KindStruct,
			Offset:       signedOffset(word),
			DataWords:    uint16(word >> 32),
			PointerWords: uint16(word >> 48),
		}, nil
	case tagList:
		return Pointer{
			Kind:    KindList,
			Offset:  signedOffset(word),
			Element: format.ElementType((word >> 32) & 7),
			Count:   uint32(word >> 35),
		}, nil
	case tagFar:
		return Pointer{
			Kind:          KindFar,
			DoubleLanding: word&4 != 0,
			FarOffset:     uint32(word>>3) & MaxFarOffset,
			SegmentID:     uint32(word >> 32),
		}, nil
	default:
		return Pointer{}, errs.ErrInvalidPointerType
	}
}

// signedOffset sign-extends the 30-bit offset field in bits 2-31.
func signedOffset(word uint64) int32 {
	return int32(uint32(word)) >> 2
}

// Encode produces the wire word for the pointer.
//
// Field overflow (an offset outside the signed 30-bit range, or a count
// above 29 bits) is a programmer error and panics; the runtime never
// constructs such pointers from a valid message.
func (p Pointer) Encode() uint64 {
	switch p.Kind {
	case KindNull:
		return 0
	case KindStruct:
		return uint64(uint32(checkOffset(p.Offset))<<2) | tagStruct |
			uint64(p.DataWords)<<32 |
			uint64(p.PointerWords)<<48
	case KindList:
		if p.Count > MaxCount {
			panic(fmt.Sprintf("capnwire: list count %d exceeds 29 bits", p.Count))
		}
		return uint64(uint32(checkOffset(p.Offset))<<2) | tagList |
			uint64(p.Element)<<32 |
			uint64(p.Count)<<35
	case KindFar:
		if p.FarOffset > MaxFarOffset {
			panic(fmt.Sprintf("capnwire: far offset %d exceeds 29 bits", p.FarOffset))
		}
		word := uint64(p.FarOffset)<<3 | tagFar
		if p.DoubleLanding {
			word |= 4
		}
		return word | uint64(p.SegmentID)<<32
	default:
		panic(fmt.Sprintf("capnwire: encode of invalid pointer kind %d", p.Kind))
	}
}

func checkOffset(off int32) int32 {
	if off < MinOffset || off > MaxOffset {
		panic(fmt.Sprintf("capnwire: pointer offset %d exceeds signed 30 bits", off))
	}

	return off
}
