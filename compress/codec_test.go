package compress

import (
	"bytes"
	"testing"

	"github.com/avsm/capnwire/format"
	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	// Framed-message-shaped input: long zero runs with scattered pointers.
	payload := make([]byte, 16*1024)
	for i := 0; i < len(payload); i += 64 {
		payload[i] = byte(i >> 6)
		payload[i+4] = 0x01
	}

	return payload
}

func TestGetCodec(t *testing.T) {
	for _, ctype := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		codec, err := GetCodec(ctype)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0xEE))
	require.Error(t, err)
}

func TestCodecs_RoundTrip(t *testing.T) {
	payload := testPayload()

	for _, ctype := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ctype.String(), func(t *testing.T) {
			codec, err := GetCodec(ctype)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, out)

			if ctype != format.CompressionNone {
				require.Less(t, len(compressed), len(payload))
			}
		})
	}
}

func TestCodecs_CompressibleInputShrinks(t *testing.T) {
	payload := bytes.Repeat([]byte{0}, 8192)
	for _, ctype := range []format.CompressionType{
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		codec, err := GetCodec(ctype)
		require.NoError(t, err)
		compressed, err := codec.Compress(payload)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(payload)/10, ctype.String())
	}
}

func TestZstd_RejectsGarbage(t *testing.T) {
	codec, err := GetCodec(format.CompressionZstd)
	require.NoError(t, err)
	_, err = codec.Decompress([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.Error(t, err)
}

func TestNoOp_Aliases(t *testing.T) {
	codec := NewNoOpCompressor()
	in := []byte{1, 2, 3}
	out, err := codec.Compress(in)
	require.NoError(t, err)
	require.Same(t, &in[0], &out[0])
}
