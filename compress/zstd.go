package compress

// ZstdCompressor provides Zstandard compression, the best ratio of the
// built-in codecs. Suited to archived messages and bandwidth-limited
// transports where decompression is infrequent.
//
// Two implementations exist behind build tags: the default pure-Go
// klauspost/compress encoder, and a cgo binding to libzstd selected with
// the gozstd tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
