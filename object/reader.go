package object

import (
	"math"

	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
	"github.com/avsm/capnwire/pointer"
)

// maxFarHops caps far-pointer indirection. A well-formed message needs at
// most one far hop plus the landing pad's near pointer; the cap admits one
// further far hop from a landing pad and rejects anything deeper.
const maxFarHops = 2

// located is a pointer resolved past far indirection: the near variant plus
// the absolute position of its content.
type located struct {
	ptr  pointer.Pointer // KindNull, KindStruct, or KindList
	seg  uint32
	addr uint32 // byte offset of the content start within seg
}

// locate decodes the pointer word in ptrSlice and follows far-pointer
// chains until it reaches object content.
//
// For near pointers, the offset base is the end of the pointer word. A
// single landing pad is re-decoded in place with the pad itself as the new
// base. A double landing pad carries a far pointer to the content plus a
// tag word whose offset field is ignored; only its shape metadata is used.
func locate(ptrSlice mesg.Slice, hops int) (located, error) {
	word, err := ptrSlice.Uint64(0)
	if err != nil {
		return located{}, err
	}
	p, err := pointer.Decode(word)
	if err != nil {
		return located{}, err
	}

	switch p.Kind {
	case pointer.KindNull:
		return located{ptr: p}, nil

	case pointer.KindStruct, pointer.KindList:
		addr := int64(ptrSlice.Start()) + mesg.WordSize + int64(p.Offset)*mesg.WordSize
		if addr < 0 || addr > math.MaxUint32 {
			return located{}, errs.ErrOutOfBounds
		}

		return located{ptr: p, seg: ptrSlice.SegmentID(), addr: uint32(addr)}, nil

	case pointer.KindFar:
		if hops <= 0 {
			return located{}, errs.ErrFarPointerDepth
		}
		padAddr := p.FarOffset * mesg.WordSize
		if !p.DoubleLanding {
			pad, err := ptrSlice.Sibling(p.SegmentID, padAddr, mesg.WordSize)
			if err != nil {
				return located{}, err
			}

			return locate(pad, hops-1)
		}

		pad, err := ptrSlice.Sibling(p.SegmentID, padAddr, 2*mesg.WordSize)
		if err != nil {
			return located{}, err
		}
		farWord, err := pad.Uint64(0)
		if err != nil {
			return located{}, err
		}
		inner, err := pointer.Decode(farWord)
		if err != nil {
			return located{}, err
		}
		if inner.Kind != pointer.KindFar || inner.DoubleLanding {
			return located{}, errs.ErrInvalidPointerType
		}
		tagWord, err := pad.Uint64(mesg.WordSize)
		if err != nil {
			return located{}, err
		}
		tag, err := pointer.Decode(tagWord)
		if err != nil {
			return located{}, err
		}
		if tag.Kind != pointer.KindStruct && tag.Kind != pointer.KindList {
			return located{}, errs.ErrInvalidPointerType
		}
		tag.Offset = 0

		return located{ptr: tag, seg: inner.SegmentID, addr: inner.FarOffset * mesg.WordSize}, nil

	default:
		return located{}, errs.ErrInvalidPointerType
	}
}

// ReadStructPointer resolves the struct pointer held in ptrSlice.
//
// Parameters:
//   - ptrSlice: An 8-byte slice positioned on the pointer word
//
// Returns:
//   - *StructStorage: The struct's storage, or nil for a null pointer
//   - error: ErrPointerTypeMismatch when the pointer is a list, or any
//     structural corruption met while resolving
func ReadStructPointer(ptrSlice mesg.Slice) (*StructStorage, error) {
	loc, err := locate(ptrSlice, maxFarHops)
	if err != nil {
		return nil, err
	}
	if loc.ptr.Kind == pointer.KindNull {
		return nil, nil
	}
	if loc.ptr.Kind != pointer.KindStruct {
		return nil, errs.ErrPointerTypeMismatch
	}

	return makeStructStorage(ptrSlice, loc)
}

// ReadListPointer resolves the list pointer held in ptrSlice.
//
// Returns:
//   - *ListStorage: The list's storage, or nil for a null pointer
//   - error: ErrPointerTypeMismatch when the pointer is a struct, or any
//     structural corruption met while resolving
func ReadListPointer(ptrSlice mesg.Slice) (*ListStorage, error) {
	loc, err := locate(ptrSlice, maxFarHops)
	if err != nil {
		return nil, err
	}
	if loc.ptr.Kind == pointer.KindNull {
		return nil, nil
	}
	if loc.ptr.Kind != pointer.KindList {
		return nil, errs.ErrPointerTypeMismatch
	}

	return makeListStorage(ptrSlice, loc)
}

func makeStructStorage(base mesg.Slice, loc located) (*StructStorage, error) {
	dataBytes := uint32(loc.ptr.DataWords) * mesg.WordSize
	ptrBytes := uint32(loc.ptr.PointerWords) * mesg.WordSize
	if uint64(loc.addr)+uint64(dataBytes)+uint64(ptrBytes) > math.MaxUint32 {
		return nil, errs.ErrOutOfBounds
	}
	data, err := base.Sibling(loc.seg, loc.addr, dataBytes)
	if err != nil {
		return nil, err
	}
	ptrs, err := base.Sibling(loc.seg, loc.addr+dataBytes, ptrBytes)
	if err != nil {
		return nil, err
	}

	return &StructStorage{Data: data, Pointers: ptrs}, nil
}

// makeListStorage validates the declared layout against the containing
// segment and builds the storage descriptor. For composite lists it decodes
// the tag word: a struct pointer encoding whose offset field carries the
// element count, and whose size fields give the per-element layout.
func makeListStorage(base mesg.Slice, loc located) (*ListStorage, error) {
	if loc.ptr.Element != format.ElementComposite {
		content, err := listContentBytes(loc.ptr.Element, loc.ptr.Count, 0)
		if err != nil {
			return nil, err
		}
		if uint64(loc.addr)+content > math.MaxUint32 {
			return nil, errs.ErrOutOfBounds
		}
		s, err := base.Sibling(loc.seg, loc.addr, uint32(content))
		if err != nil {
			return nil, err
		}

		return &ListStorage{Slice: s, Element: loc.ptr.Element, Count: loc.ptr.Count}, nil
	}

	// Composite: pointer count field is the payload word count, tag word
	// excluded.
	payloadWords := loc.ptr.Count
	total := uint64(payloadWords)*mesg.WordSize + mesg.WordSize
	if uint64(loc.addr)+total > math.MaxUint32 {
		return nil, errs.ErrOutOfBounds
	}
	s, err := base.Sibling(loc.seg, loc.addr, uint32(total))
	if err != nil {
		return nil, err
	}
	tagWord, err := s.Uint64(0)
	if err != nil {
		return nil, err
	}
	tag, err := pointer.Decode(tagWord)
	if err != nil {
		return nil, err
	}
	// An empty composite list still carries a valid tag word, which decodes
	// as null when its size fields are zero too.
	if tag.Kind == pointer.KindNull {
		tag = pointer.Struct(0, 0, 0)
	} else if tag.Kind != pointer.KindStruct {
		return nil, errs.ErrCompositeTagMismatch
	}
	if tag.Offset < 0 {
		return nil, errs.ErrCompositeTagMismatch
	}
	count := uint32(tag.Offset)
	per := uint64(tag.DataWords) + uint64(tag.PointerWords)
	if uint64(count)*per != uint64(payloadWords) {
		return nil, errs.ErrCompositeTagMismatch
	}

	return &ListStorage{
		Slice:        s,
		Element:      format.ElementComposite,
		Count:        count,
		DataWords:    tag.DataWords,
		PointerWords: tag.PointerWords,
	}, nil
}
