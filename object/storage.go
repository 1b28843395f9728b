// Package object implements the object layer of the runtime: resolving
// pointer words to struct and list storage, the builder's allocate-on-null
// and struct-upgrade behavior, pointer initialization with landing pads,
// deep copy, and the typed field accessors used by generated code.
package object

import (
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
)

// StructStorage locates a struct's content: a data region and a pointer
// region, adjacent in the same segment. It is a copyable descriptor that
// borrows from the message; it stays valid for the message's lifetime, but
// not across a mutation that relocates the struct (see upgrade).
//
// A nil *StructStorage stands for an absent (null) struct; the field
// accessors treat it as a struct of all defaults.
type StructStorage struct {
	Data     mesg.Slice
	Pointers mesg.Slice
}

// DataWords returns the size of the data region in words.
func (s *StructStorage) DataWords() uint16 {
	return uint16(s.Data.Len() / mesg.WordSize)
}

// PointerWords returns the size of the pointer region in words.
func (s *StructStorage) PointerWords() uint16 {
	return uint16(s.Pointers.Len() / mesg.WordSize)
}

// pointerSlice returns the 8-byte slice of pointer word i, or false when the
// struct is absent or physically smaller than the schema expects.
func (s *StructStorage) pointerSlice(word uint16) (mesg.Slice, bool) {
	if s == nil || word >= s.PointerWords() {
		return mesg.Slice{}, false
	}
	ps, err := s.Pointers.Sub(uint32(word)*mesg.WordSize, mesg.WordSize)
	if err != nil {
		return mesg.Slice{}, false
	}

	return ps, true
}

// ListStorage locates a list's content and records its layout.
//
// Slice covers the whole payload; for composite lists that includes the
// leading tag word. Count is the element count. DataWords and PointerWords
// describe the per-element layout of composite lists and are zero otherwise.
type ListStorage struct {
	Slice   mesg.Slice
	Element format.ElementType
	Count   uint32

	DataWords    uint16
	PointerWords uint16
}

// Len returns the number of elements in the list.
func (l *ListStorage) Len() uint32 {
	if l == nil {
		return 0
	}

	return l.Count
}

// elemWords returns the per-element word count of a composite list.
func (l *ListStorage) elemWords() uint32 {
	return uint32(l.DataWords) + uint32(l.PointerWords)
}

// payloadWords returns the content size in words excluding the composite
// tag word; this is the count field a list pointer to this storage carries
// for composite layouts.
func (l *ListStorage) payloadWords() uint32 {
	return (l.Slice.Len() - mesg.WordSize) / mesg.WordSize
}

// listContentBytes computes the payload byte size for a layout, excluding
// any composite tag word. Bit lists round up to whole bytes.
func listContentBytes(element format.ElementType, count uint32, payloadWords uint32) (uint64, error) {
	switch element {
	case format.ElementVoid:
		return 0, nil
	case format.ElementBit:
		return (uint64(count) + 7) / 8, nil
	case format.ElementComposite:
		return uint64(payloadWords) * mesg.WordSize, nil
	default:
		size, ok := element.ByteSize()
		if !ok {
			return 0, errs.InvalidMessagef("unknown list element type %d", element)
		}
		return uint64(count) * uint64(size), nil
	}
}

// MutStructStorage is the writable form of StructStorage, handed out only by
// builder-side dereferencing and allocation.
type MutStructStorage struct {
	Data     mesg.MutSlice
	Pointers mesg.MutSlice
}

// ReadOnly returns the storage as a read descriptor.
func (s MutStructStorage) ReadOnly() StructStorage {
	return StructStorage{Data: s.Data.Slice, Pointers: s.Pointers.Slice}
}

// DataWords returns the size of the data region in words.
func (s MutStructStorage) DataWords() uint16 {
	return uint16(s.Data.Len() / mesg.WordSize)
}

// PointerWords returns the size of the pointer region in words.
func (s MutStructStorage) PointerWords() uint16 {
	return uint16(s.Pointers.Len() / mesg.WordSize)
}

// MutListStorage is the writable form of ListStorage.
type MutListStorage struct {
	Slice   mesg.MutSlice
	Element format.ElementType
	Count   uint32

	DataWords    uint16
	PointerWords uint16
}

// ReadOnly returns the storage as a read descriptor.
func (l MutListStorage) ReadOnly() ListStorage {
	return ListStorage{
		Slice:        l.Slice.Slice,
		Element:      l.Element,
		Count:        l.Count,
		DataWords:    l.DataWords,
		PointerWords: l.PointerWords,
	}
}

// Len returns the number of elements in the list.
func (l MutListStorage) Len() uint32 {
	return l.Count
}
