package object

import (
	"github.com/avsm/capnwire/mesg"
)

// RootStruct dereferences the root pointer of a read-only message as a
// struct.
//
// Returns:
//   - *StructStorage: The root struct's storage, or nil for a null root
//   - error: Any structural corruption met while resolving
func RootStruct(m *mesg.Message) (*StructStorage, error) {
	return ReadStructPointer(m.RootPointer())
}

// RootStructBuilder dereferences the root pointer of a builder as a struct
// of the expected shape, allocating it when the root is null and upgrading
// it when it is physically smaller.
func RootStructBuilder(b *mesg.MessageBuilder, dataWords, pointerWords uint16) (MutStructStorage, error) {
	return DerefStructPointer(b.RootPointer(), dataWords, pointerWords)
}
