package atom

import (
	"encoding/binary"
	"fmt"
)

// ============================================================
// Packed-Pair Integer Codec
// ============================================================
//
// A pair of non-negative integers is encoded as a single descriptor byte
// followed by the little-endian bytes of each component, using the
// smallest width that fits. The descriptor is self-describing: a decoder
// can tell how many bytes were consumed without an external length.
//
//	bits 0-2  width tag of the first component (1=u8 2=u16 3=u32 4=u64,
//	          5 and 6 mark finite-field and rational-polynomial
//	          coefficients, see coeff.go)
//	bits 3-5  width tag of the second component; 0 means the component
//	          equals one and is omitted
//	bit 6     sign of the first component (coefficient codec only)
//	bit 7     reserved, always zero
//
// Every header field in the node encodings is one of these pairs:
// symbol-id/argument-count, argument-count/payload-length and
// numerator/denominator. Headers therefore grow and shrink by a variable
// number of bytes as the values change; going from 9 to 10 arguments may
// need one more byte.

const (
	numWidth8  = 0b00000001
	numWidth16 = 0b00000010
	numWidth32 = 0b00000011
	numWidth64 = 0b00000100

	coeffFiniteFieldTag = 0b00000101
	coeffRatPolyTag     = 0b00000110

	denWidthShift = 3

	numWidthMask = 0b00000111
	denWidthMask = 0b00111000

	packedSignBit = 0b01000000
)

// widthTag returns the smallest width tag able to hold v.
func widthTag(v uint64) byte {
	switch {
	case v <= 0xff:
		return numWidth8
	case v <= 0xffff:
		return numWidth16
	case v <= 0xffffffff:
		return numWidth32
	default:
		return numWidth64
	}
}

// widthBytes maps a width tag to its byte count.
func widthBytes(tag byte) int {
	switch tag {
	case 0:
		return 0
	case numWidth8:
		return 1
	case numWidth16:
		return 2
	case numWidth32:
		return 4
	case numWidth64:
		return 8
	default:
		panic(fmt.Sprintf("atom: invalid width tag %d", tag))
	}
}

// packedPairSize returns the encoded size of the pair (a, b) in bytes,
// without writing it. Callers pre-sizing a destination region for
// writePackedPairFixed must use this.
func packedPairSize(a, b uint64) int {
	n := 1 + widthBytes(widthTag(a))
	if b != 1 {
		n += widthBytes(widthTag(b))
	}
	return n
}

// appendUint appends the w low-endian bytes of v.
func appendUint(dst []byte, v uint64, w int) []byte {
	switch w {
	case 1:
		return append(dst, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

// appendPackedPair appends the encoding of (a, b) to dst.
func appendPackedPair(dst []byte, a, b uint64) []byte {
	return appendPackedSigned(dst, a, b, false)
}

// appendPackedSigned is the shared writer. The sign flag is only ever set
// by the coefficient codec for negative rational numerators.
func appendPackedSigned(dst []byte, a, b uint64, negative bool) []byte {
	wa := widthTag(a)
	desc := wa
	if b != 1 {
		desc |= widthTag(b) << denWidthShift
	}
	if negative {
		desc |= packedSignBit
	}
	dst = append(dst, desc)
	dst = appendUint(dst, a, widthBytes(wa))
	if b != 1 {
		dst = appendUint(dst, b, widthBytes(widthTag(b)))
	}
	return dst
}

// writePackedPairFixed writes (a, b) into a pre-sized destination region.
// The region length must be exactly packedPairSize(a, b); anything else is
// a programming error and panics.
func writePackedPairFixed(dst []byte, a, b uint64) {
	need := packedPairSize(a, b)
	if len(dst) != need {
		panic(fmt.Sprintf("atom: packed pair needs %d bytes, region has %d", need, len(dst)))
	}
	out := appendPackedPair(dst[:0], a, b)
	_ = out
}

// readUint reads w little-endian bytes.
func readUint(data []byte, w int) uint64 {
	switch w {
	case 1:
		return uint64(data[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(data))
	case 4:
		return uint64(binary.LittleEndian.Uint32(data))
	default:
		return binary.LittleEndian.Uint64(data)
	}
}

// readPackedPair decodes a pair and returns it with the remaining
// unconsumed slice. The encoding is trusted; corrupt input is a
// precondition violation at this layer (stream boundaries validate).
func readPackedPair(data []byte) (a, b uint64, rest []byte) {
	desc := data[0]
	wa := desc & numWidthMask
	if wa > numWidth64 {
		panic(fmt.Sprintf("atom: packed pair descriptor %#x is not a plain pair", desc))
	}
	na := widthBytes(wa)
	a = readUint(data[1:], na)
	pos := 1 + na
	wb := (desc & denWidthMask) >> denWidthShift
	if wb == 0 {
		b = 1
	} else {
		nb := widthBytes(wb)
		b = readUint(data[pos:], nb)
		pos += nb
	}
	return a, b, data[pos:]
}

// readPackedSigned decodes a pair written by appendPackedSigned.
func readPackedSigned(data []byte) (a, b uint64, negative bool, rest []byte) {
	negative = data[0]&packedSignBit != 0
	a, b, rest = readPackedPair(data)
	return a, b, negative, rest
}

// skipPackedPair advances past one plain pair encoding.
func skipPackedPair(data []byte) []byte {
	desc := data[0]
	n := 1 + widthBytes(desc&numWidthMask)
	if wb := (desc & denWidthMask) >> denWidthShift; wb != 0 {
		n += widthBytes(wb)
	}
	return data[n:]
}

// skipNumber advances past one encoded coefficient or packed pair. This is
// the self-delimiting skip used for Num and Var payloads: a plain pair
// consumes its descriptor widths, a finite-field element nests one pair
// and a rational-polynomial value carries an explicit blob length.
func skipNumber(data []byte) []byte {
	switch data[0] & numWidthMask {
	case coeffFiniteFieldTag:
		return skipPackedPair(data[1:])
	case coeffRatPolyTag:
		_, blobLen, rest := readPackedPair(data[1:])
		return rest[blobLen:]
	default:
		return skipPackedPair(data)
	}
}
