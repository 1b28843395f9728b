// Package capnwire implements the runtime core of the Cap'n Proto wire
// format: the in-memory message model, the pointer encoding/decoding
// protocol, and the reader/builder accessor layer behind generated code.
//
// Bytes laid down by this runtime are bit-compatible with any conforming
// Cap'n Proto implementation, and objects are traversed in place with no
// parse step beyond bounds-checked pointer arithmetic.
//
// # Reading a message
//
//	msg, err := capnwire.Unmarshal(frame)
//	if err != nil {
//	    return err
//	}
//	root, err := capnwire.ReadRoot(msg)
//	if err != nil {
//	    return err
//	}
//	x := root.Int32Field(0, 0)
//	name, err := root.TextField(0, "")
//
// Read-only messages never mutate and may be shared across goroutines.
//
// # Building a message
//
//	b, root, err := capnwire.NewRoot(1, 1)
//	if err != nil {
//	    return err
//	}
//	_ = root.SetInt32Field(0, 0, 42)
//	_ = root.SetTextField(0, "hi")
//	frame, err := capnwire.Marshal(b.Message())
//
// Builders bump-allocate from their segments; a write that does not fit the
// current segment transparently appends a new one and reaches it through a
// far pointer. Null pointer fields allocate their default on first
// dereference through the builder accessors.
//
// # Package structure
//
// This package provides thin wrappers over the layered runtime: mesg
// (segments, slices, allocation), pointer (the 64-bit pointer word codec),
// object (dereferencing, builders, deep copy, typed accessors), packing
// (the zero-run codec), and stream (framing and envelopes). Use those
// packages directly for fine-grained control.
package capnwire

import (
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/internal/hash"
	"github.com/avsm/capnwire/mesg"
	"github.com/avsm/capnwire/object"
	"github.com/avsm/capnwire/stream"
)

// NewRoot creates a message builder whose root is a struct of the given
// shape, with the first segment sized to hold the root pointer and the
// struct without spilling.
//
// Parameters:
//   - dataWords: Size of the root struct's data region, in words
//   - pointerWords: Size of the root struct's pointer region, in words
//   - opts: Builder options; a caller-supplied first-segment size overrides
//     the computed minimum
//
// Returns:
//   - *mesg.MessageBuilder: The owning builder
//   - object.MutStructStorage: The allocated root struct
//   - error: Construction failure
func NewRoot(dataWords, pointerWords uint16, opts ...mesg.BuilderOption) (*mesg.MessageBuilder, object.MutStructStorage, error) {
	sized := make([]mesg.BuilderOption, 0, len(opts)+1)
	sized = append(sized, mesg.WithFirstSegmentWords(1+uint32(dataWords)+uint32(pointerWords)))
	sized = append(sized, opts...)

	b, err := mesg.NewBuilder(sized...)
	if err != nil {
		return nil, object.MutStructStorage{}, err
	}
	root, err := object.RootStructBuilder(b, dataWords, pointerWords)
	if err != nil {
		return nil, object.MutStructStorage{}, err
	}

	return b, root, nil
}

// ReadRoot dereferences a message's root pointer as a struct.
//
// The result is nil for a null root; the typed field accessors treat a nil
// struct as all defaults.
func ReadRoot(m *mesg.Message) (*object.StructStorage, error) {
	return object.RootStruct(m)
}

// Marshal serializes a message with the standard segment-table framing.
func Marshal(m *mesg.Message) ([]byte, error) {
	return stream.Marshal(m)
}

// Unmarshal parses a framed message. The result aliases data, which must
// stay live and unmodified for the message's lifetime.
func Unmarshal(data []byte) (*mesg.Message, error) {
	return stream.Unmarshal(data)
}

// MarshalPacked serializes a message and compresses the zero runs with the
// packing codec.
func MarshalPacked(m *mesg.Message) ([]byte, error) {
	return stream.MarshalPacked(m)
}

// UnmarshalPacked unpacks and parses a packed framed message.
func UnmarshalPacked(data []byte) (*mesg.Message, error) {
	return stream.UnmarshalPacked(data)
}

// MarshalCompressed frames the message and wraps it in a compressed storage
// envelope. Use format.CompressionZstd for cold storage and
// format.CompressionS2 or format.CompressionLZ4 when speed matters more.
func MarshalCompressed(m *mesg.Message, compression format.CompressionType) ([]byte, error) {
	return stream.MarshalCompressed(m, compression)
}

// UnmarshalCompressed opens a compressed envelope and parses the message.
func UnmarshalCompressed(data []byte) (*mesg.Message, error) {
	return stream.UnmarshalCompressed(data)
}

// Fingerprint computes a 64-bit content hash (xxHash64) over a message's
// segments in order. Segment boundaries are not hashed: messages whose
// segments concatenate to the same bytes share a fingerprint, which makes
// the value usable as a dedup or cache key for message content.
func Fingerprint(m *mesg.Message) (uint64, error) {
	segments := make([][]byte, m.NumSegments())
	for i := range segments {
		seg, err := m.Segment(uint32(i))
		if err != nil {
			return 0, err
		}
		segments[i] = seg
	}

	return hash.Sum64(segments), nil
}
