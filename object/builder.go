package object

import (
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
	"github.com/avsm/capnwire/pointer"
)

// maxCompositeBytes keeps composite payload sizing inside the allocator's
// own limit before the word count is narrowed to uint32.
const maxCompositeBytes = 1 << 30

// AllocStruct allocates zeroed struct storage of the given shape in b.
func AllocStruct(b *mesg.MessageBuilder, dataWords, pointerWords uint16) (MutStructStorage, error) {
	total := (uint32(dataWords) + uint32(pointerWords)) * mesg.WordSize
	s, err := b.Alloc(total)
	if err != nil {
		return MutStructStorage{}, err
	}
	data, err := s.Sub(0, uint32(dataWords)*mesg.WordSize)
	if err != nil {
		return MutStructStorage{}, err
	}
	ptrs, err := s.Sub(uint32(dataWords)*mesg.WordSize, uint32(pointerWords)*mesg.WordSize)
	if err != nil {
		return MutStructStorage{}, err
	}

	return MutStructStorage{Data: data, Pointers: ptrs}, nil
}

// AllocList allocates zeroed storage for count elements of a non-composite
// layout in b.
func AllocList(b *mesg.MessageBuilder, element format.ElementType, count uint32) (MutListStorage, error) {
	if element == format.ElementComposite {
		panic("capnwire: AllocList called with composite layout; use AllocCompositeList")
	}
	if count > pointer.MaxCount {
		return MutListStorage{}, errs.InvalidMessagef("list of %d elements exceeds pointer encoding", count)
	}
	content, err := listContentBytes(element, count, 0)
	if err != nil {
		return MutListStorage{}, err
	}
	s, err := b.Alloc(uint32(content))
	if err != nil {
		return MutListStorage{}, err
	}
	// Alloc rounds to whole words; the descriptor keeps the exact byte size.
	s, err = s.Sub(0, uint32(content))
	if err != nil {
		return MutListStorage{}, err
	}

	return MutListStorage{Slice: s, Element: element, Count: count}, nil
}

// AllocCompositeList allocates storage for count structs of the given shape,
// writing the leading tag word that records the element count and layout.
func AllocCompositeList(b *mesg.MessageBuilder, dataWords, pointerWords uint16, count uint32) (MutListStorage, error) {
	per := uint32(dataWords) + uint32(pointerWords)
	payloadWords := uint64(count) * uint64(per)
	totalBytes := (payloadWords + 1) * mesg.WordSize
	if payloadWords > pointer.MaxCount || totalBytes > maxCompositeBytes {
		return MutListStorage{}, errs.InvalidMessagef("composite list of %d words exceeds pointer encoding", payloadWords)
	}
	s, err := b.Alloc(uint32(totalBytes))
	if err != nil {
		return MutListStorage{}, err
	}
	// The tag word is a struct pointer encoding whose offset field carries
	// the element count.
	if err := s.SetUint64(0, pointer.Struct(int32(count), dataWords, pointerWords).Encode()); err != nil {
		return MutListStorage{}, err
	}

	return MutListStorage{
		Slice:        s,
		Element:      format.ElementComposite,
		Count:        count,
		DataWords:    dataWords,
		PointerWords: pointerWords,
	}, nil
}

// writableStruct re-establishes write capability on storage known to live in b.
func writableStruct(b *mesg.MessageBuilder, s StructStorage) MutStructStorage {
	data, ok := b.Writable(s.Data)
	if !ok {
		panic("capnwire: struct storage does not belong to this builder")
	}
	ptrs, ok := b.Writable(s.Pointers)
	if !ok {
		panic("capnwire: struct storage does not belong to this builder")
	}

	return MutStructStorage{Data: data, Pointers: ptrs}
}

func writableList(b *mesg.MessageBuilder, l ListStorage) MutListStorage {
	s, ok := b.Writable(l.Slice)
	if !ok {
		panic("capnwire: list storage does not belong to this builder")
	}

	return MutListStorage{
		Slice:        s,
		Element:      l.Element,
		Count:        l.Count,
		DataWords:    l.DataWords,
		PointerWords: l.PointerWords,
	}
}

// DerefStructPointer is the builder-side struct dereference.
//
// A null pointer allocates zeroed storage of the expected shape and
// initializes the pointer in place. Non-null storage that is physically
// smaller than expected is upgraded: new storage of the expected shape is
// allocated, data words copied, overlap pointer words pointer-copied, the
// old storage zeroed, and the referencing pointer re-initialized. Any
// previously obtained descriptor for the old storage is invalid afterwards.
func DerefStructPointer(ptrSlice mesg.MutSlice, dataWords, pointerWords uint16) (MutStructStorage, error) {
	b := ptrSlice.Builder()
	word, err := ptrSlice.Uint64(0)
	if err != nil {
		return MutStructStorage{}, err
	}
	if word == 0 {
		st, err := AllocStruct(b, dataWords, pointerWords)
		if err != nil {
			return MutStructStorage{}, err
		}
		if err := InitStructPointer(ptrSlice, st.ReadOnly()); err != nil {
			return MutStructStorage{}, err
		}

		return st, nil
	}

	ss, err := ReadStructPointer(ptrSlice.Slice)
	if err != nil {
		return MutStructStorage{}, err
	}

	return upgradeStruct(ptrSlice, dataWords, pointerWords, writableStruct(b, *ss))
}

func upgradeStruct(ptrSlice mesg.MutSlice, dataWords, pointerWords uint16, st MutStructStorage) (MutStructStorage, error) {
	oldD, oldP := st.DataWords(), st.PointerWords()
	if oldD >= dataWords && oldP >= pointerWords {
		return st, nil
	}
	newD, newP := max(oldD, dataWords), max(oldP, pointerWords)

	ns, err := AllocStruct(ptrSlice.Builder(), newD, newP)
	if err != nil {
		return MutStructStorage{}, err
	}
	if err := ns.Data.Blit(st.Data.Slice, 0, 0, st.Data.Len()); err != nil {
		return MutStructStorage{}, err
	}
	for i := uint32(0); i < uint32(oldP); i++ {
		src, err := st.Pointers.Slice.Sub(i*mesg.WordSize, mesg.WordSize)
		if err != nil {
			return MutStructStorage{}, err
		}
		dst, err := ns.Pointers.Sub(i*mesg.WordSize, mesg.WordSize)
		if err != nil {
			return MutStructStorage{}, err
		}
		if err := CopyPointer(src, dst); err != nil {
			return MutStructStorage{}, err
		}
	}
	// The old storage is unreachable once the pointer moves; zero it so the
	// stale bytes pack away to nothing.
	if err := st.Data.Zero(0, st.Data.Len()); err != nil {
		return MutStructStorage{}, err
	}
	if err := st.Pointers.Zero(0, st.Pointers.Len()); err != nil {
		return MutStructStorage{}, err
	}
	if err := InitStructPointer(ptrSlice, ns.ReadOnly()); err != nil {
		return MutStructStorage{}, err
	}

	return ns, nil
}

// GetOrInitList is the builder-side list dereference for non-composite
// layouts. A null pointer allocates a list of count elements (zero for the
// schema default) and initializes the pointer; otherwise the existing
// storage is returned and must match the expected layout.
func GetOrInitList(ptrSlice mesg.MutSlice, element format.ElementType, count uint32) (MutListStorage, error) {
	if element == format.ElementComposite {
		return MutListStorage{}, errs.ErrElementTypeMismatch
	}
	b := ptrSlice.Builder()
	word, err := ptrSlice.Uint64(0)
	if err != nil {
		return MutListStorage{}, err
	}
	if word == 0 {
		ls, err := AllocList(b, element, count)
		if err != nil {
			return MutListStorage{}, err
		}
		if err := InitListPointer(ptrSlice, ls.ReadOnly()); err != nil {
			return MutListStorage{}, err
		}

		return ls, nil
	}

	ls, err := ReadListPointer(ptrSlice.Slice)
	if err != nil {
		return MutListStorage{}, err
	}
	if ls.Element != element {
		return MutListStorage{}, errs.ErrElementTypeMismatch
	}

	return writableList(b, *ls), nil
}

// GetOrInitCompositeList is the builder-side dereference for composite
// lists. A null pointer allocates count elements of the expected shape;
// existing storage is returned with its physical layout (lists do not
// upgrade).
func GetOrInitCompositeList(ptrSlice mesg.MutSlice, dataWords, pointerWords uint16, count uint32) (MutListStorage, error) {
	b := ptrSlice.Builder()
	word, err := ptrSlice.Uint64(0)
	if err != nil {
		return MutListStorage{}, err
	}
	if word == 0 {
		ls, err := AllocCompositeList(b, dataWords, pointerWords, count)
		if err != nil {
			return MutListStorage{}, err
		}
		if err := InitListPointer(ptrSlice, ls.ReadOnly()); err != nil {
			return MutListStorage{}, err
		}

		return ls, nil
	}

	ls, err := ReadListPointer(ptrSlice.Slice)
	if err != nil {
		return MutListStorage{}, err
	}
	if ls.Element != format.ElementComposite {
		return MutListStorage{}, errs.ErrElementTypeMismatch
	}

	return writableList(b, *ls), nil
}

// InitStructPointer writes a pointer to st into ptrSlice.
//
// When the content lives in the pointer's own segment a near pointer is
// written. Otherwise a landing pad is placed in the content segment if it
// has room (single far pointer); failing that, a two-word pad is allocated
// wherever space exists and a double far pointer is written.
func InitStructPointer(ptrSlice mesg.MutSlice, st StructStorage) error {
	d := uint16(st.Data.Len() / mesg.WordSize)
	p := uint16(st.Pointers.Len() / mesg.WordSize)

	if st.Data.SegmentID() == ptrSlice.SegmentID() {
		off := nearOffset(ptrSlice.Slice, st.Data.Start())
		// A zero-size struct at offset zero would encode as the null word;
		// aim the pointer one word back to keep it distinct.
		if d == 0 && p == 0 && off == 0 {
			off = -1
		}

		return ptrSlice.SetUint64(0, pointer.Struct(off, d, p).Encode())
	}

	return initFarPointer(ptrSlice, st.Data.SegmentID(), st.Data.Start(), func(base mesg.Slice) pointer.Pointer {
		return pointer.Struct(nearOffset(base, st.Data.Start()), d, p)
	}, pointer.Struct(0, d, p))
}

// InitListPointer writes a pointer to ls into ptrSlice. For composite lists
// the pointer targets the tag word and its count field carries the payload
// word count; for other layouts it carries the element count.
func InitListPointer(ptrSlice mesg.MutSlice, ls ListStorage) error {
	countField := ls.Count
	if ls.Element == format.ElementComposite {
		countField = ls.payloadWords()
	}

	if ls.Slice.SegmentID() == ptrSlice.SegmentID() {
		off := nearOffset(ptrSlice.Slice, ls.Slice.Start())

		return ptrSlice.SetUint64(0, pointer.List(off, ls.Element, countField).Encode())
	}

	return initFarPointer(ptrSlice, ls.Slice.SegmentID(), ls.Slice.Start(), func(base mesg.Slice) pointer.Pointer {
		return pointer.List(nearOffset(base, ls.Slice.Start()), ls.Element, countField)
	}, pointer.List(0, ls.Element, countField))
}

// nearOffset computes the signed word offset from the end of a pointer at
// base to content starting at contentStart in the same segment.
func nearOffset(base mesg.Slice, contentStart uint32) int32 {
	return int32((int64(contentStart) - int64(base.Start()) - mesg.WordSize) / mesg.WordSize)
}

// initFarPointer installs the far indirection for content living in another
// segment. nearAt builds the landing-pad near pointer given the pad's
// position; tag is the shape word used if a double landing pad is needed.
func initFarPointer(ptrSlice mesg.MutSlice, contentSeg, contentStart uint32, nearAt func(mesg.Slice) pointer.Pointer, tag pointer.Pointer) error {
	b := ptrSlice.Builder()

	if pad, ok := b.AllocInSegment(contentSeg, mesg.WordSize); ok {
		if err := pad.SetUint64(0, nearAt(pad.Slice).Encode()); err != nil {
			return err
		}

		return ptrSlice.SetUint64(0, pointer.Far(contentSeg, pad.Start()/mesg.WordSize, false).Encode())
	}

	// No room beside the content: put a two-word pad anywhere and write a
	// double far pointer. The first pad word addresses the content
	// absolutely; the second carries only shape.
	pad, err := b.Alloc(2 * mesg.WordSize)
	if err != nil {
		return err
	}
	if err := pad.SetUint64(0, pointer.Far(contentSeg, contentStart/mesg.WordSize, false).Encode()); err != nil {
		return err
	}
	if err := pad.SetUint64(mesg.WordSize, tag.Encode()); err != nil {
		return err
	}

	return ptrSlice.SetUint64(0, pointer.Far(pad.SegmentID(), pad.Start()/mesg.WordSize, true).Encode())
}
