package stream

import (
	"github.com/avsm/capnwire/compress"
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
)

// The envelope is a storage convenience, not part of the interchange
// format: a four-byte header (magic, compression type, reserved) followed
// by the compressed standard framing. Peers expecting canonical framing
// should be sent Marshal or MarshalPacked output instead.
const (
	envelopeMagic      = 0xC1A7
	envelopeHeaderSize = 4
)

// MarshalCompressed frames the message and wraps it in a compressed
// envelope using the given codec.
func MarshalCompressed(m *mesg.Message, compression format.CompressionType) ([]byte, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}
	framed, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(framed)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, envelopeHeaderSize+len(payload))
	out = engine.AppendUint16(out, envelopeMagic)
	out = append(out, byte(compression), 0)

	return append(out, payload...), nil
}

// UnmarshalCompressed opens a compressed envelope and parses the framed
// message inside.
func UnmarshalCompressed(data []byte) (*mesg.Message, error) {
	if len(data) < envelopeHeaderSize || engine.Uint16(data) != envelopeMagic {
		return nil, errs.ErrInvalidEnvelope
	}
	codec, err := compress.GetCodec(format.CompressionType(data[2]))
	if err != nil {
		return nil, errs.ErrInvalidEnvelope
	}
	framed, err := codec.Decompress(data[envelopeHeaderSize:])
	if err != nil {
		return nil, err
	}

	return Unmarshal(framed)
}
