// Package compress provides the compression codecs used by the stream
// envelope. Framed messages are dominated by zeroed reserve words and
// pointer padding, which all of these algorithms shrink well; packing
// (see the packing package) composes with them for the tightest output.
package compress

import (
	"fmt"

	"github.com/avsm/capnwire/format"
)

// Compressor compresses a complete framed payload.
//
// The returned slice is newly allocated and owned by the caller; the input
// is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compress. Implementations validate the input
// format and return an error for corrupt or foreign data.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
