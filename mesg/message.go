// Package mesg implements the in-memory message model: segments, the
// bump allocator, and bounds-checked slices over segment bytes.
//
// The read/write capability split is carried by the type system. A Message
// and the Slice values derived from it expose only read operations; a
// MessageBuilder and its MutSlice values add mutation. A Slice can be
// upgraded to a MutSlice only through the builder that owns its storage
// (see MessageBuilder.Writable), so read-only views handed out by a Message
// can never be used to write.
package mesg

import (
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/internal/options"
)

// WordSize is the allocation and alignment unit of the wire format, in bytes.
const WordSize = 8

// view is the read surface shared by Message and MessageBuilder. Slices hold
// a view so the same traversal code serves both.
type view interface {
	segmentBytes(id uint32) ([]byte, error)
	numSegments() uint32
}

// Message is an immutable, ordered sequence of segments.
//
// A Message borrows the byte slices it is constructed from and never mutates
// them; it is safe for concurrent readers. Segment 0 always exists and its
// first 8 bytes hold the root pointer.
type Message struct {
	segments [][]byte
}

// NewMessage constructs a read-only message over borrowed segment buffers.
//
// Parameters:
//   - segments: One buffer per segment, each a multiple of 8 bytes;
//     segment 0 must be at least 8 bytes.
//
// Returns:
//   - *Message: The message view
//   - error: ErrNoSegments, ErrSegmentNotAligned, or ErrRootSlotMissing
func NewMessage(segments [][]byte) (*Message, error) {
	if len(segments) == 0 {
		return nil, errs.ErrNoSegments
	}
	for _, seg := range segments {
		if len(seg)%WordSize != 0 {
			return nil, errs.ErrSegmentNotAligned
		}
	}
	if len(segments[0]) < WordSize {
		return nil, errs.ErrRootSlotMissing
	}

	return &Message{segments: segments}, nil
}

// NumSegments returns the number of segments in the message.
func (m *Message) NumSegments() uint32 {
	return uint32(len(m.segments))
}

// Segment returns the raw bytes of the identified segment.
//
// The returned slice aliases message storage; callers must not modify it.
func (m *Message) Segment(id uint32) ([]byte, error) {
	return m.segmentBytes(id)
}

// RootPointer returns the 8-byte slice holding the root pointer word.
func (m *Message) RootPointer() Slice {
	return Slice{m: m, seg: 0, start: 0, length: WordSize}
}

// Slice constructs a bounds-checked slice over the message.
func (m *Message) Slice(seg, start, length uint32) (Slice, error) {
	return makeSlice(m, seg, start, length)
}

func (m *Message) segmentBytes(id uint32) ([]byte, error) {
	if id >= uint32(len(m.segments)) {
		return nil, errs.ErrSegmentOutOfRange
	}

	return m.segments[id], nil
}

func (m *Message) numSegments() uint32 {
	return uint32(len(m.segments))
}

// segment is a builder-owned buffer with its allocation cursor. Bytes in
// [0, used) are live; [used, len) are zeroed reserve. Segments never move or
// resize once created.
type segment struct {
	data []byte
	used uint32
}

// Default segment sizing, in words. The first segment of a fresh builder and
// every overflow segment use defaultSegmentWords unless configured otherwise.
const defaultSegmentWords = 512

// MessageBuilder is a mutable message that owns its segments.
//
// Storage is bump-allocated: each segment's cursor only advances, and
// allocated regions are guaranteed zero-filled. Nothing is reclaimed until
// the builder itself is released.
type MessageBuilder struct {
	segments     []*segment
	firstWords   uint32
	defaultWords uint32
}

// BuilderOption configures a MessageBuilder at construction time.
type BuilderOption = options.Option[*MessageBuilder]

// WithFirstSegmentWords sets the size of segment 0 in words (minimum 1, for
// the root pointer slot).
func WithFirstSegmentWords(words uint32) BuilderOption {
	return options.New(func(b *MessageBuilder) error {
		if words == 0 {
			return errs.InvalidMessagef("first segment must be at least 1 word")
		}
		b.firstWords = words

		return nil
	})
}

// WithDefaultSegmentWords sets the minimum size, in words, of segments
// appended when an allocation overflows the current last segment.
func WithDefaultSegmentWords(words uint32) BuilderOption {
	return options.New(func(b *MessageBuilder) error {
		if words == 0 {
			return errs.InvalidMessagef("default segment must be at least 1 word")
		}
		b.defaultWords = words

		return nil
	})
}

// NewBuilder creates an empty read/write message.
//
// Segment 0 is created at the configured size with its cursor at 8,
// reserving the root pointer slot, which is zero (a null root) until written.
func NewBuilder(opts ...BuilderOption) (*MessageBuilder, error) {
	b := &MessageBuilder{
		firstWords:   defaultSegmentWords,
		defaultWords: defaultSegmentWords,
	}
	if err := options.Apply(b, opts...); err != nil {
		return nil, err
	}
	b.segments = []*segment{{
		data: make([]byte, b.firstWords*WordSize),
		used: WordSize,
	}}

	return b, nil
}

// NumSegments returns the number of segments currently in the builder.
func (b *MessageBuilder) NumSegments() uint32 {
	return uint32(len(b.segments))
}

// RootPointer returns the writable 8-byte slice holding the root pointer word.
func (b *MessageBuilder) RootPointer() MutSlice {
	return MutSlice{
		Slice: Slice{m: b, seg: 0, start: 0, length: WordSize},
		b:     b,
	}
}

// MutSlice constructs a writable bounds-checked slice over the builder.
func (b *MessageBuilder) MutSlice(seg, start, length uint32) (MutSlice, error) {
	s, err := makeSlice(b, seg, start, length)
	if err != nil {
		return MutSlice{}, err
	}

	return MutSlice{Slice: s, b: b}, nil
}

// Writable upgrades a read slice to a writable one.
//
// The upgrade succeeds only when the slice was derived from this builder;
// slices borrowed from any other message stay read-only.
func (b *MessageBuilder) Writable(s Slice) (MutSlice, bool) {
	if s.m != view(b) {
		return MutSlice{}, false
	}

	return MutSlice{Slice: s, b: b}, true
}

// Message returns a read-only snapshot view of the builder's storage.
//
// Each segment is trimmed to its allocation cursor. The view aliases the
// builder's buffers: it remains valid while the builder lives, but further
// allocation or mutation through the builder is visible through it.
func (b *MessageBuilder) Message() *Message {
	segs := make([][]byte, len(b.segments))
	for i, s := range b.segments {
		segs[i] = s.data[:s.used]
	}

	return &Message{segments: segs}
}

func (b *MessageBuilder) segmentBytes(id uint32) ([]byte, error) {
	if id >= uint32(len(b.segments)) {
		return nil, errs.ErrSegmentOutOfRange
	}

	return b.segments[id].data, nil
}

func (b *MessageBuilder) numSegments() uint32 {
	return uint32(len(b.segments))
}
