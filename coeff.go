package atom

import "fmt"

// ============================================================
// Coefficient Codec
// ============================================================

// CoeffKind identifies the variant of a numeric coefficient.
type CoeffKind uint8

const (
	// CoeffRational is an exact rational number with 64-bit components.
	CoeffRational CoeffKind = iota
	// CoeffFiniteField is an element of a modular ring, tagged with the
	// identifier of its field in the symbol table.
	CoeffFiniteField
	// CoeffRationalPolynomial is a nested serialized rational-function
	// value together with the identifier of the variable-ordering list it
	// depends on.
	CoeffRationalPolynomial
)

// String returns the coefficient kind name.
func (k CoeffKind) String() string {
	switch k {
	case CoeffRational:
		return "rational"
	case CoeffFiniteField:
		return "finitefield"
	case CoeffRationalPolynomial:
		return "rationalpolynomial"
	default:
		return "unknown"
	}
}

// Coefficient is an owned numeric coefficient. The zero value is the
// rational number zero.
type Coefficient struct {
	kind  CoeffKind
	num   int64  // rational numerator
	den   uint64 // rational denominator, never zero
	value uint64 // finite-field element
	field uint64 // finite-field identifier
	list  uint64 // variable-list identifier
	blob  []byte // serialized rational function
}

// NewRational creates an exact rational coefficient. The caller must have
// reduced num/den to lowest terms; the representation stores the pair
// verbatim and equality is byte equality.
func NewRational(num int64, den uint64) Coefficient {
	if den == 0 {
		panic("atom: rational coefficient with zero denominator")
	}
	return Coefficient{kind: CoeffRational, num: num, den: den}
}

// NewInteger creates an integer coefficient.
func NewInteger(n int64) Coefficient {
	return NewRational(n, 1)
}

// NewFiniteField creates a modular-ring coefficient. The field identifier
// refers to a modulus registered in the symbol table.
func NewFiniteField(value, field uint64) Coefficient {
	return Coefficient{kind: CoeffFiniteField, value: value, field: field}
}

// NewRationalPolynomial wraps a serialized rational-function value. The
// blob is opaque to this layer except for the variable-list identifier,
// which import renames.
func NewRationalPolynomial(list uint64, blob []byte) Coefficient {
	return Coefficient{kind: CoeffRationalPolynomial, list: list, blob: blob}
}

// Kind returns the coefficient variant.
func (c Coefficient) Kind() CoeffKind {
	return c.kind
}

// Rational returns the numerator and denominator. Panics on a different
// variant.
func (c Coefficient) Rational() (int64, uint64) {
	if c.kind != CoeffRational {
		panic(fmt.Sprintf("atom: expected rational coefficient, got %s", c.kind))
	}
	if c.den == 0 {
		return 0, 1
	}
	return c.num, c.den
}

// FiniteField returns the element value and field identifier. Panics on a
// different variant.
func (c Coefficient) FiniteField() (value, field uint64) {
	if c.kind != CoeffFiniteField {
		panic(fmt.Sprintf("atom: expected finite-field coefficient, got %s", c.kind))
	}
	return c.value, c.field
}

// RationalPolynomial returns the variable-list identifier and the
// serialized value. Panics on a different variant.
func (c Coefficient) RationalPolynomial() (list uint64, blob []byte) {
	if c.kind != CoeffRationalPolynomial {
		panic(fmt.Sprintf("atom: expected rational-polynomial coefficient, got %s", c.kind))
	}
	return c.list, c.blob
}

// appendPacked appends the coefficient encoding to dst.
//
//	rational       packed pair (|num|, den) with the sign bit
//	finite field   descriptor byte 5, packed pair (value, field)
//	rational poly  descriptor byte 6, packed pair (list, len(blob)), blob
func (c Coefficient) appendPacked(dst []byte) []byte {
	switch c.kind {
	case CoeffRational:
		num, den := c.Rational()
		mag := uint64(num)
		neg := num < 0
		if neg {
			mag = uint64(-num)
		}
		return appendPackedSigned(dst, mag, den, neg)
	case CoeffFiniteField:
		dst = append(dst, coeffFiniteFieldTag)
		return appendPackedPair(dst, c.value, c.field)
	case CoeffRationalPolynomial:
		dst = append(dst, coeffRatPolyTag)
		dst = appendPackedPair(dst, c.list, uint64(len(c.blob)))
		return append(dst, c.blob...)
	default:
		panic(fmt.Sprintf("atom: unknown coefficient kind %d", c.kind))
	}
}

// ============================================================
// Coefficient Views
// ============================================================

// CoefficientView is a read-only view over one encoded coefficient. It
// borrows the underlying buffer and must not outlive it.
type CoefficientView struct {
	data []byte
}

// readCoeffView slices one coefficient off the front of data, returning
// the view and the remainder.
func readCoeffView(data []byte) (CoefficientView, []byte) {
	rest := skipNumber(data)
	return CoefficientView{data: data[:len(data)-len(rest)]}, rest
}

// Kind returns the coefficient variant.
func (v CoefficientView) Kind() CoeffKind {
	switch v.data[0] & numWidthMask {
	case coeffFiniteFieldTag:
		return CoeffFiniteField
	case coeffRatPolyTag:
		return CoeffRationalPolynomial
	default:
		return CoeffRational
	}
}

// Rational returns the numerator and denominator. Panics on a different
// variant.
func (v CoefficientView) Rational() (int64, uint64) {
	if v.Kind() != CoeffRational {
		panic(fmt.Sprintf("atom: expected rational coefficient, got %s", v.Kind()))
	}
	mag, den, neg, _ := readPackedSigned(v.data)
	num := int64(mag)
	if neg {
		num = -num
	}
	return num, den
}

// FiniteField returns the element value and field identifier. Panics on a
// different variant.
func (v CoefficientView) FiniteField() (value, field uint64) {
	if v.Kind() != CoeffFiniteField {
		panic(fmt.Sprintf("atom: expected finite-field coefficient, got %s", v.Kind()))
	}
	value, field, _ = readPackedPair(v.data[1:])
	return value, field
}

// RationalPolynomial returns the variable-list identifier and the
// serialized value. Panics on a different variant.
func (v CoefficientView) RationalPolynomial() (list uint64, blob []byte) {
	if v.Kind() != CoeffRationalPolynomial {
		panic(fmt.Sprintf("atom: expected rational-polynomial coefficient, got %s", v.Kind()))
	}
	list, blobLen, rest := readPackedPair(v.data[1:])
	return list, rest[:blobLen]
}

// ToCoefficient copies the view into an owned Coefficient.
func (v CoefficientView) ToCoefficient() Coefficient {
	switch v.Kind() {
	case CoeffFiniteField:
		value, field := v.FiniteField()
		return NewFiniteField(value, field)
	case CoeffRationalPolynomial:
		list, blob := v.RationalPolynomial()
		owned := make([]byte, len(blob))
		copy(owned, blob)
		return NewRationalPolynomial(list, owned)
	default:
		num, den := v.Rational()
		return NewRational(num, den)
	}
}

// IsZero reports whether the view encodes the rational number zero.
func (v CoefficientView) IsZero() bool {
	return len(v.data) == 2 && v.data[0] == numWidth8 && v.data[1] == 0
}

// IsOne reports whether the view encodes the rational number one.
func (v CoefficientView) IsOne() bool {
	return len(v.data) == 2 && v.data[0] == numWidth8 && v.data[1] == 1
}

// ByteSize returns the encoded size of the coefficient.
func (v CoefficientView) ByteSize() int {
	return len(v.data)
}
