// Package packing implements the word-oriented zero-run compression of the
// wire format.
//
// Each 8-byte word is preceded by a tag byte whose bit i is set iff byte i
// of the word is nonzero; only the nonzero bytes follow. Two tag values
// extend into runs: 0x00 is followed by a count of additional all-zero
// words, and 0xFF by the full word, a count of following words, and those
// words verbatim.
//
// Packer and Unpacker stream through io.Writer and tolerate arbitrary chunk
// boundaries; Pack and Unpack are the one-shot forms.
package packing

import (
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/internal/pool"
	"github.com/avsm/capnwire/mesg"
)

const maxRun = 255

// Pack compresses src, which must be a whole number of words, and returns a
// freshly allocated packed stream.
func Pack(src []byte) ([]byte, error) {
	if len(src)%mesg.WordSize != 0 {
		return nil, errs.ErrInvalidPackedData
	}
	buf := pool.GetCodecBuffer()
	defer pool.PutCodecBuffer(buf)

	packWords(buf, src)

	return buf.CopyBytes(), nil
}

// packWords appends the packed form of whole words to buf.
func packWords(buf *pool.ByteBuffer, src []byte) {
	for len(src) > 0 {
		word := src[:mesg.WordSize]
		src = src[mesg.WordSize:]

		tag := tagOf(word)
		buf.MustWriteByte(tag)
		switch tag {
		case 0x00:
			n := 0
			for n < maxRun && len(src) >= mesg.WordSize && isZeroWord(src[:mesg.WordSize]) {
				src = src[mesg.WordSize:]
				n++
			}
			buf.MustWriteByte(byte(n))
		case 0xFF:
			buf.MustWrite(word)
			// Run as long as the following words have no zero byte; a word
			// with zeros packs better under its own tag.
			n := 0
			run := src
			for n < maxRun && len(run) >= mesg.WordSize && tagOf(run[:mesg.WordSize]) == 0xFF {
				run = run[mesg.WordSize:]
				n++
			}
			buf.MustWriteByte(byte(n))
			buf.MustWrite(src[:n*mesg.WordSize])
			src = src[n*mesg.WordSize:]
		default:
			for i, b := range word {
				if tag>>i&1 == 1 {
					buf.MustWriteByte(b)
				}
			}
		}
	}
}

func tagOf(word []byte) byte {
	var tag byte
	for i, b := range word {
		if b != 0 {
			tag |= 1 << i
		}
	}

	return tag
}

func isZeroWord(word []byte) bool {
	return tagOf(word) == 0
}

// Unpack decompresses a complete packed stream produced by Pack or any
// conforming encoder.
//
// Returns:
//   - []byte: The unpacked words, freshly allocated
//   - error: ErrInvalidPackedData when the stream is truncated mid-word
func Unpack(src []byte) ([]byte, error) {
	u := NewUnpacker()
	defer u.Release()
	if _, err := u.Write(src); err != nil {
		return nil, err
	}
	out, err := u.Finish()
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(out))
	copy(cp, out)

	return cp, nil
}

// Packer is the streaming form of Pack. Input bytes arrive through Write in
// chunks of any size; a fragment buffer carries partial words between
// calls. The packed output accumulates until Bytes.
type Packer struct {
	buf     *pool.ByteBuffer
	frag    [mesg.WordSize]byte
	fragLen int
}

// NewPacker creates a streaming packer backed by a pooled buffer.
func NewPacker() *Packer {
	return &Packer{buf: pool.GetCodecBuffer()}
}

// Write implements io.Writer. It never fails; the signature matches the
// interface.
func (p *Packer) Write(data []byte) (int, error) {
	written := len(data)

	if p.fragLen > 0 {
		need := mesg.WordSize - p.fragLen
		if need > len(data) {
			need = len(data)
		}
		copy(p.frag[p.fragLen:], data[:need])
		p.fragLen += need
		data = data[need:]
		if p.fragLen < mesg.WordSize {
			return written, nil
		}
		packWords(p.buf, p.frag[:])
		p.fragLen = 0
	}

	whole := len(data) &^ (mesg.WordSize - 1)
	packWords(p.buf, data[:whole])
	copy(p.frag[:], data[whole:])
	p.fragLen = len(data) - whole

	return written, nil
}

// Bytes returns the packed output so far.
//
// Returns an error when input ended mid-word; the wire format packs whole
// words only.
func (p *Packer) Bytes() ([]byte, error) {
	if p.fragLen != 0 {
		return nil, errs.ErrInvalidPackedData
	}

	return p.buf.Bytes(), nil
}

// Release returns the packer's buffer to the pool. The packer must not be
// used afterwards, and slices returned by Bytes become invalid.
func (p *Packer) Release() {
	if p.buf != nil {
		pool.PutCodecBuffer(p.buf)
		p.buf = nil
	}
}

// Unpacker streams a packed byte sequence back into words. It is driven by
// Write with chunks of any size; decoding state, including partially
// received words and run counts, carries over between calls.
type Unpacker struct {
	buf *pool.ByteBuffer

	state    unpackState
	tag      byte
	word     [mesg.WordSize]byte
	wordByte int // next byte index examined for the current tag
	remain   int // verbatim bytes still expected in stateVerbatim
}

type unpackState uint8

const (
	stateTag unpackState = iota
	stateBytes
	stateZeroCount
	stateVerbatimCount
	stateVerbatim
)

// NewUnpacker creates a streaming unpacker backed by a pooled buffer.
func NewUnpacker() *Unpacker {
	return &Unpacker{buf: pool.GetCodecBuffer()}
}

// Write implements io.Writer, consuming packed bytes and appending decoded
// words to the output buffer.
func (u *Unpacker) Write(data []byte) (int, error) {
	written := len(data)

	for len(data) > 0 {
		switch u.state {
		case stateTag:
			u.tag = data[0]
			data = data[1:]
			switch u.tag {
			case 0x00:
				u.appendZeroWords(1)
				u.state = stateZeroCount
			case 0xFF:
				u.word = [mesg.WordSize]byte{}
				u.wordByte = 0
				u.state = stateBytes
			default:
				u.word = [mesg.WordSize]byte{}
				u.wordByte = 0
				u.skipZeroBits()
				u.state = stateBytes
			}

		case stateBytes:
			for u.wordByte < mesg.WordSize && len(data) > 0 {
				u.word[u.wordByte] = data[0]
				data = data[1:]
				u.wordByte++
				u.skipZeroBits()
			}
			if u.wordByte == mesg.WordSize {
				u.buf.MustWrite(u.word[:])
				if u.tag == 0xFF {
					u.state = stateVerbatimCount
				} else {
					u.state = stateTag
				}
			}

		case stateZeroCount:
			u.appendZeroWords(int(data[0]))
			data = data[1:]
			u.state = stateTag

		case stateVerbatimCount:
			u.remain = int(data[0]) * mesg.WordSize
			data = data[1:]
			if u.remain == 0 {
				u.state = stateTag
			} else {
				u.state = stateVerbatim
			}

		case stateVerbatim:
			n := u.remain
			if n > len(data) {
				n = len(data)
			}
			u.buf.MustWrite(data[:n])
			data = data[n:]
			u.remain -= n
			if u.remain == 0 {
				u.state = stateTag
			}
		}
	}

	return written, nil
}

// skipZeroBits advances wordByte past positions whose tag bit is clear;
// those bytes stay zero and consume no input.
func (u *Unpacker) skipZeroBits() {
	for u.wordByte < mesg.WordSize && u.tag>>u.wordByte&1 == 0 {
		u.wordByte++
	}
}

func (u *Unpacker) appendZeroWords(n int) {
	var zero [mesg.WordSize]byte
	for i := 0; i < n; i++ {
		u.buf.MustWrite(zero[:])
	}
}

// Finish returns the decoded words.
//
// Returns:
//   - []byte: The output buffer; valid until Release
//   - error: ErrInvalidPackedData when the stream stopped mid-word or
//     mid-run
func (u *Unpacker) Finish() ([]byte, error) {
	if u.state != stateTag {
		return nil, errs.ErrInvalidPackedData
	}

	return u.buf.Bytes(), nil
}

// WordsDecoded reports the number of whole words decoded so far.
func (u *Unpacker) WordsDecoded() int {
	return u.buf.Len() / mesg.WordSize
}

// Release returns the unpacker's buffer to the pool. The unpacker must not
// be used afterwards, and slices returned by Finish become invalid.
func (u *Unpacker) Release() {
	if u.buf != nil {
		pool.PutCodecBuffer(u.buf)
		u.buf = nil
	}
}
