package object

import (
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
	"github.com/avsm/capnwire/pointer"
)

// CopyPointer performs a shallow, identity-preserving pointer copy within a
// single message.
//
// Struct and list pointers are resolved to their storage and re-encoded
// relative to the destination slot, so the copy references the same object.
// Far pointer words are copied verbatim; that is only meaningful when source
// and destination share a message — across messages, use DeepCopyPointer.
func CopyPointer(src mesg.Slice, dst mesg.MutSlice) error {
	word, err := src.Uint64(0)
	if err != nil {
		return err
	}
	p, err := pointer.Decode(word)
	if err != nil {
		return err
	}

	switch p.Kind {
	case pointer.KindNull:
		return dst.SetUint64(0, 0)
	case pointer.KindFar:
		return dst.SetUint64(0, word)
	case pointer.KindStruct:
		ss, err := ReadStructPointer(src)
		if err != nil {
			return err
		}

		return InitStructPointer(dst, *ss)
	case pointer.KindList:
		ls, err := ReadListPointer(src)
		if err != nil {
			return err
		}

		return InitListPointer(dst, *ls)
	default:
		return errs.ErrInvalidPointerType
	}
}

// DeepCopyPointer copies the object graph reachable from src into the
// destination builder's storage and installs a pointer to the copy in dst.
//
// Primitive list payloads are blitted; pointer lists and the pointer words
// of structs and composite elements recurse. The source must be tree-shaped,
// which the encoding guarantees for well-formed messages.
func DeepCopyPointer(src mesg.Slice, dst mesg.MutSlice) error {
	loc, err := locate(src, maxFarHops)
	if err != nil {
		return err
	}

	switch loc.ptr.Kind {
	case pointer.KindNull:
		return dst.SetUint64(0, 0)
	case pointer.KindStruct:
		ss, err := makeStructStorage(src, loc)
		if err != nil {
			return err
		}

		return deepCopyStruct(ss, dst)
	case pointer.KindList:
		ls, err := makeListStorage(src, loc)
		if err != nil {
			return err
		}

		return deepCopyList(ls, dst)
	default:
		return errs.ErrInvalidPointerType
	}
}

func deepCopyStruct(ss *StructStorage, dst mesg.MutSlice) error {
	ns, err := AllocStruct(dst.Builder(), ss.DataWords(), ss.PointerWords())
	if err != nil {
		return err
	}
	if err := ns.Data.Blit(ss.Data, 0, 0, ss.Data.Len()); err != nil {
		return err
	}
	for i := uint32(0); i < uint32(ss.PointerWords()); i++ {
		from, err := ss.Pointers.Sub(i*mesg.WordSize, mesg.WordSize)
		if err != nil {
			return err
		}
		to, err := ns.Pointers.Sub(i*mesg.WordSize, mesg.WordSize)
		if err != nil {
			return err
		}
		if err := DeepCopyPointer(from, to); err != nil {
			return err
		}
	}

	return InitStructPointer(dst, ns.ReadOnly())
}

func deepCopyList(ls *ListStorage, dst mesg.MutSlice) error {
	b := dst.Builder()

	switch ls.Element {
	case format.ElementComposite:
		nl, err := AllocCompositeList(b, ls.DataWords, ls.PointerWords, ls.Count)
		if err != nil {
			return err
		}
		per := ls.elemWords() * mesg.WordSize
		dataBytes := uint32(ls.DataWords) * mesg.WordSize
		for i := uint32(0); i < ls.Count; i++ {
			elem := mesg.WordSize + i*per
			if err := nl.Slice.Blit(ls.Slice, elem, elem, dataBytes); err != nil {
				return err
			}
			for w := uint32(0); w < uint32(ls.PointerWords); w++ {
				from, err := ls.Slice.Sub(elem+dataBytes+w*mesg.WordSize, mesg.WordSize)
				if err != nil {
					return err
				}
				to, err := nl.Slice.Sub(elem+dataBytes+w*mesg.WordSize, mesg.WordSize)
				if err != nil {
					return err
				}
				if err := DeepCopyPointer(from, to); err != nil {
					return err
				}
			}
		}

		return InitListPointer(dst, nl.ReadOnly())

	case format.ElementPointer:
		nl, err := AllocList(b, format.ElementPointer, ls.Count)
		if err != nil {
			return err
		}
		for i := uint32(0); i < ls.Count; i++ {
			from, err := ls.Slice.Sub(i*mesg.WordSize, mesg.WordSize)
			if err != nil {
				return err
			}
			to, err := nl.Slice.Sub(i*mesg.WordSize, mesg.WordSize)
			if err != nil {
				return err
			}
			if err := DeepCopyPointer(from, to); err != nil {
				return err
			}
		}

		return InitListPointer(dst, nl.ReadOnly())

	default:
		nl, err := AllocList(b, ls.Element, ls.Count)
		if err != nil {
			return err
		}
		if err := nl.Slice.Blit(ls.Slice, 0, 0, ls.Slice.Len()); err != nil {
			return err
		}

		return InitListPointer(dst, nl.ReadOnly())
	}
}
