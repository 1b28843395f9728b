package stream

import (
	"testing"

	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
	"github.com/stretchr/testify/require"
)

func envelopeMessage(t *testing.T) *mesg.Message {
	t.Helper()
	seg := make([]byte, 256)
	seg[4] = 0x01 // struct pointer: one data word worth of shape
	seg[0] = 0x00
	for i := 8; i < 64; i += 8 {
		seg[i] = byte(i)
	}
	m, err := mesg.NewMessage([][]byte{seg})
	require.NoError(t, err)

	return m
}

func TestEnvelope_RoundTripAllCodecs(t *testing.T) {
	m := envelopeMessage(t)
	want, err := Marshal(m)
	require.NoError(t, err)

	for _, ctype := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ctype.String(), func(t *testing.T) {
			wrapped, err := MarshalCompressed(m, ctype)
			require.NoError(t, err)

			back, err := UnmarshalCompressed(wrapped)
			require.NoError(t, err)
			got, err := Marshal(back)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestEnvelope_BadMagic(t *testing.T) {
	_, err := UnmarshalCompressed([]byte{0x00, 0x00, 1, 0, 0})
	require.ErrorIs(t, err, errs.ErrInvalidEnvelope)
}

func TestEnvelope_UnknownCompression(t *testing.T) {
	m := envelopeMessage(t)
	wrapped, err := MarshalCompressed(m, format.CompressionNone)
	require.NoError(t, err)
	wrapped[2] = 0x7F

	_, err = UnmarshalCompressed(wrapped)
	require.ErrorIs(t, err, errs.ErrInvalidEnvelope)
}

func TestEnvelope_Truncated(t *testing.T) {
	_, err := UnmarshalCompressed([]byte{0xA7})
	require.ErrorIs(t, err, errs.ErrInvalidEnvelope)
}

func TestMarshalCompressed_UnknownType(t *testing.T) {
	m := envelopeMessage(t)
	_, err := MarshalCompressed(m, format.CompressionType(0x7F))
	require.Error(t, err)
}
