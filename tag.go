package atom

import "fmt"

// ============================================================
// Tag Byte Layout
// ============================================================

// Kind identifies the variant of an encoded node. The values of the
// non-zero kinds coincide with the 3-bit tag stored in the first byte of
// every node encoding.
type Kind uint8

const (
	KindZero Kind = iota // empty sentinel, owned Atom only
	KindNum
	KindVar
	KindFun
	KindMul
	KindAdd
	KindPow
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindZero:
		return "zero"
	case KindNum:
		return "num"
	case KindVar:
		return "var"
	case KindFun:
		return "fun"
	case KindMul:
		return "mul"
	case KindAdd:
		return "add"
	case KindPow:
		return "pow"
	default:
		return "unknown"
	}
}

const (
	tagNum = 1
	tagVar = 2
	tagFun = 3
	tagMul = 4
	tagAdd = 5
	tagPow = 6

	tagMask = 0b00000111

	// Containers that have not been brought into canonical form carry this
	// bit. Var nodes are always normalized, so the same slot stores the
	// antisymmetry attribute there.
	flagNotNormalized = 0b10000000

	wildcardLevelMask = 0b00011000
	wildcardLevel1    = 0b00001000
	wildcardLevel2    = 0b00010000
	wildcardLevel3    = 0b00011000

	flagSymmetric = 0b00100000
	flagLinear    = 0b01000000

	flagVarAntisymmetric  = 0b10000000
	flagVarCyclesymmetric = flagSymmetric | flagVarAntisymmetric

	// A Fun tag byte has no free slot for antisymmetry, so the attribute
	// rides as bit 32 of the packed symbol id.
	funAntisymmetricBit = uint64(1) << 32

	flagMulHasCoeff = 0b01000000
)

// zeroData is the canonical encoding of the number zero. It backs the view
// of the Zero sentinel.
var zeroData = []byte{tagNum, numWidth8, 0}

// kindOf extracts the variant tag from a node's first byte. The tag must
// have been validated; an out-of-range tag here is a corrupt buffer.
func kindOf(b byte) Kind {
	return Kind(b & tagMask)
}

// validTag reports whether the low bits of b name one of the six kinds.
func validTag(b byte) bool {
	t := b & tagMask
	return t >= tagNum && t <= tagPow
}

// wildcardLevelOf decodes the two-bit wildcard level shared by Var and Fun
// tag bytes.
func wildcardLevelOf(b byte) uint8 {
	switch b & wildcardLevelMask {
	case wildcardLevel1:
		return 1
	case wildcardLevel2:
		return 2
	case wildcardLevel3:
		return 3
	default:
		return 0
	}
}

// wildcardLevelBits is the inverse of wildcardLevelOf. Levels above 3 are
// clamped, matching the storage width.
func wildcardLevelBits(level uint8) byte {
	switch level {
	case 0:
		return 0
	case 1:
		return wildcardLevel1
	case 2:
		return wildcardLevel2
	default:
		return wildcardLevel3
	}
}

// varTagByte builds the tag byte of a Var node for the given symbol.
// Var nodes are implicitly normalized, which frees the high bit for the
// antisymmetry attribute.
func varTagByte(s Symbol) byte {
	flags := byte(tagVar) | wildcardLevelBits(s.wildcardLevel)
	if s.symmetric {
		flags |= flagSymmetric
	}
	if s.linear {
		flags |= flagLinear
	}
	if s.antisymmetric {
		flags |= flagVarAntisymmetric
	}
	if s.cyclesymmetric {
		flags |= flagVarCyclesymmetric
	}
	return flags
}

// funTagByte builds the tag byte of a Fun node. Fresh Fun nodes start out
// not normalized. Antisymmetry does not fit here; see funPackedID.
func funTagByte(s Symbol) byte {
	flags := byte(tagFun) | flagNotNormalized | wildcardLevelBits(s.wildcardLevel)
	if s.symmetric || s.cyclesymmetric {
		flags |= flagSymmetric
	}
	if s.linear {
		flags |= flagLinear
	}
	return flags
}

// funPackedID returns the symbol id as stored in a Fun header, with the
// antisymmetry attribute folded into bit 32.
func funPackedID(s Symbol) uint64 {
	id := uint64(s.id)
	if s.antisymmetric || s.cyclesymmetric {
		id |= funAntisymmetricBit
	}
	return id
}

// checkTag validates the leading tag byte of a decoded buffer. Used at the
// stream-reading boundary; inside the package the tag is trusted.
func checkTag(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty node encoding", ErrBadTag)
	}
	if !validTag(data[0]) {
		return fmt.Errorf("%w: %d", ErrBadTag, data[0]&tagMask)
	}
	return nil
}
