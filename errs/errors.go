// Package errs defines the error values shared across capnwire packages.
//
// Every structural-corruption error wraps ErrInvalidMessage, so callers can
// classify any failure from the accessor layer with a single check:
//
//	if errors.Is(err, errs.ErrInvalidMessage) { ... }
//
// Programmer errors (for example, encoding a pointer offset that does not fit
// in 30 bits) are not represented here; they panic at the call site.
package errs

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage is the root error for all structural corruption detected
// while traversing or decoding a message. Callers should propagate it; the
// runtime does not recover from a corrupt message.
var ErrInvalidMessage = errors.New("invalid message")

var (
	// ErrOutOfBounds indicates a slice access outside its byte range.
	ErrOutOfBounds = wrap("access out of bounds")
	// ErrNoSegments indicates a message constructed with zero segments.
	ErrNoSegments = wrap("message has no segments")
	// ErrSegmentNotAligned indicates a segment whose length is not a multiple of 8.
	ErrSegmentNotAligned = wrap("segment length not a multiple of 8 bytes")
	// ErrRootSlotMissing indicates segment 0 is too short to hold the root pointer.
	ErrRootSlotMissing = wrap("segment 0 too short for root pointer")
	// ErrSegmentOutOfRange indicates a reference to a segment id the message does not have.
	ErrSegmentOutOfRange = wrap("segment id out of range")
	// ErrInvalidPointerType indicates a pointer word with the reserved tag,
	// or a landing pad holding a pointer kind the encoding does not permit there.
	ErrInvalidPointerType = wrap("invalid pointer type")
	// ErrPointerTypeMismatch indicates a pointer of one kind where another was expected,
	// for example a struct pointer in a list-typed field.
	ErrPointerTypeMismatch = wrap("pointer type mismatch")
	// ErrFarPointerDepth indicates a far-pointer chain longer than the encoding permits.
	ErrFarPointerDepth = wrap("far pointer chain too deep")
	// ErrCompositeTagMismatch indicates a composite list whose tag word disagrees
	// with the payload word count declared by the list pointer.
	ErrCompositeTagMismatch = wrap("composite list tag mismatch")
	// ErrElementTypeMismatch indicates a list element access that does not match
	// the list's storage layout.
	ErrElementTypeMismatch = wrap("list element type mismatch")
	// ErrInvalidSegmentTable indicates a malformed framing header.
	ErrInvalidSegmentTable = wrap("invalid segment table")
	// ErrInvalidPackedData indicates a packed byte stream that is truncated or
	// does not decode to whole words.
	ErrInvalidPackedData = wrap("invalid packed data")
	// ErrInvalidEnvelope indicates a compressed envelope with a bad magic number
	// or an unknown compression type.
	ErrInvalidEnvelope = wrap("invalid envelope")
)

func wrap(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}

// InvalidMessagef builds an ErrInvalidMessage with call-site context.
//
// Parameters:
//   - format: printf-style description of the corruption
//   - args: format arguments
//
// Returns:
//   - error: An error satisfying errors.Is(err, ErrInvalidMessage)
func InvalidMessagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, fmt.Sprintf(format, args...))
}
