// Package stream implements the serialized forms of a message: the
// standard segment-table framing, the packed variant, and a compressed
// storage envelope.
package stream

import (
	"github.com/avsm/capnwire/endian"
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/mesg"
	"github.com/avsm/capnwire/packing"
)

var engine = endian.Little()

// maxSegmentsPerMessage bounds how many segments a framing header may
// declare, so a four-byte count cannot coerce a huge allocation.
const maxSegmentsPerMessage = 1 << 16

// Marshal serializes a message with its segment table:
// uint32 segmentCount-1, a uint32 word count per segment, a padding uint32
// when needed to 8-byte-align the payload, then the segments in order.
func Marshal(m *mesg.Message) ([]byte, error) {
	n := m.NumSegments()

	headerBytes := 4 * (n + 1)
	if headerBytes%mesg.WordSize != 0 {
		headerBytes += 4
	}
	total := uint64(headerBytes)
	for i := uint32(0); i < n; i++ {
		seg, err := m.Segment(i)
		if err != nil {
			return nil, err
		}
		total += uint64(len(seg))
	}

	out := make([]byte, 0, total)
	out = engine.AppendUint32(out, n-1)
	for i := uint32(0); i < n; i++ {
		seg, _ := m.Segment(i)
		out = engine.AppendUint32(out, uint32(len(seg)/mesg.WordSize))
	}
	for uint32(len(out)) < headerBytes {
		out = engine.AppendUint32(out, 0)
	}
	for i := uint32(0); i < n; i++ {
		seg, _ := m.Segment(i)
		out = append(out, seg...)
	}

	return out, nil
}

// Unmarshal parses a framed message.
//
// The returned message is a zero-copy view: its segments alias data, which
// must stay live and unmodified for the message's lifetime.
func Unmarshal(data []byte) (*mesg.Message, error) {
	if len(data) < 4 {
		return nil, errs.ErrInvalidSegmentTable
	}
	n := uint64(engine.Uint32(data)) + 1
	if n > maxSegmentsPerMessage {
		return nil, errs.ErrInvalidSegmentTable
	}

	headerBytes := 4 * (n + 1)
	if headerBytes%mesg.WordSize != 0 {
		headerBytes += 4
	}
	if uint64(len(data)) < headerBytes {
		return nil, errs.ErrInvalidSegmentTable
	}

	segments := make([][]byte, n)
	payload := data[headerBytes:]
	for i := uint64(0); i < n; i++ {
		segBytes := uint64(engine.Uint32(data[4+4*i:])) * mesg.WordSize
		if uint64(len(payload)) < segBytes {
			return nil, errs.ErrInvalidSegmentTable
		}
		segments[i] = payload[:segBytes]
		payload = payload[segBytes:]
	}
	if len(payload) != 0 {
		return nil, errs.ErrInvalidSegmentTable
	}

	return mesg.NewMessage(segments)
}

// MarshalPacked serializes a message and packs the result.
func MarshalPacked(m *mesg.Message) ([]byte, error) {
	framed, err := Marshal(m)
	if err != nil {
		return nil, err
	}

	return packing.Pack(framed)
}

// UnmarshalPacked unpacks data and parses the framed message inside.
func UnmarshalPacked(data []byte) (*mesg.Message, error) {
	framed, err := packing.Unpack(data)
	if err != nil {
		return nil, err
	}

	return Unmarshal(framed)
}
