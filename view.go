package atom

import (
	"bytes"
	"fmt"
)

// ============================================================
// Borrowed Views
// ============================================================

// AtomView is a read-only view of one encoded node. It borrows the
// underlying byte slice: the view must not outlive the buffer and the
// buffer must not be mutated while borrowed. Views carry no ownership and
// copying one is free.
type AtomView struct {
	data []byte
}

// ZeroView returns a view of the canonical number zero.
func ZeroView() AtomView {
	return AtomView{data: zeroData}
}

// ParseView wraps a raw node encoding as a view, validating the leading
// tag byte. Beyond the tag the bytes are trusted; malformed input deeper
// in the encoding is a precondition violation, not a checked error.
func ParseView(data []byte) (AtomView, error) {
	if err := checkTag(data); err != nil {
		return AtomView{}, err
	}
	return AtomView{data: data}, nil
}

// viewOf is the unchecked fast path for bytes whose tag the caller has
// already validated, e.g. immediately after writing it.
func viewOf(data []byte) AtomView {
	return AtomView{data: data}
}

// Kind returns the variant of the viewed node.
func (v AtomView) Kind() Kind {
	return kindOf(v.data[0])
}

// Bytes returns the raw encoded bytes backing the view.
func (v AtomView) Bytes() []byte {
	return v.data
}

// ByteSize returns the encoded size of the node.
func (v AtomView) ByteSize() int {
	return len(v.data)
}

// Equal reports structural equality. For normalized nodes this is exactly
// canonical equality.
func (v AtomView) Equal(other AtomView) bool {
	return bytes.Equal(v.data, other.data)
}

// Compare orders two views by their raw encodings. It is a cheap total
// order for normalized atoms, not a semantic comparison.
func (v AtomView) Compare(other AtomView) int {
	return bytes.Compare(v.data, other.data)
}

// IsNormalized reports whether the node's canonical form has been
// computed. Num and Var nodes are always normalized.
func (v AtomView) IsNormalized() bool {
	switch v.Kind() {
	case KindNum, KindVar:
		return true
	default:
		return v.data[0]&flagNotNormalized == 0
	}
}

// ToOwned copies the view into a fresh atom.
func (v AtomView) ToOwned() *Atom {
	return &Atom{data: bytes.Clone(v.data)}
}

// CloneInto copies the view into target, reusing its buffer.
func (v AtomView) CloneInto(target *Atom) {
	target.SetFromView(v)
}

// AsNum narrows to a number view. Panics on a different kind.
func (v AtomView) AsNum() NumView {
	if v.Kind() != KindNum {
		panic(fmt.Sprintf("atom: expected num, got %s", v.Kind()))
	}
	return NumView{data: v.data}
}

// AsVar narrows to a variable view. Panics on a different kind.
func (v AtomView) AsVar() VarView {
	if v.Kind() != KindVar {
		panic(fmt.Sprintf("atom: expected var, got %s", v.Kind()))
	}
	return VarView{data: v.data}
}

// AsFun narrows to a function view. Panics on a different kind.
func (v AtomView) AsFun() FunView {
	if v.Kind() != KindFun {
		panic(fmt.Sprintf("atom: expected fun, got %s", v.Kind()))
	}
	return FunView{data: v.data}
}

// AsMul narrows to a product view. Panics on a different kind.
func (v AtomView) AsMul() MulView {
	if v.Kind() != KindMul {
		panic(fmt.Sprintf("atom: expected mul, got %s", v.Kind()))
	}
	return MulView{data: v.data}
}

// AsAdd narrows to a sum view. Panics on a different kind.
func (v AtomView) AsAdd() AddView {
	if v.Kind() != KindAdd {
		panic(fmt.Sprintf("atom: expected add, got %s", v.Kind()))
	}
	return AddView{data: v.data}
}

// AsPow narrows to a power view. Panics on a different kind.
func (v AtomView) AsPow() PowView {
	if v.Kind() != KindPow {
		panic(fmt.Sprintf("atom: expected pow, got %s", v.Kind()))
	}
	return PowView{data: v.data}
}

// ============================================================
// NumView
// ============================================================

// NumView is a read-only view of a number node.
type NumView struct {
	data []byte
}

// Coeff returns a view of the stored coefficient.
func (n NumView) Coeff() CoefficientView {
	cv, _ := readCoeffView(n.data[1:])
	return cv
}

// IsZero reports whether the node is the number zero.
func (n NumView) IsZero() bool {
	return n.Coeff().IsZero()
}

// IsOne reports whether the node is the number one.
func (n NumView) IsOne() bool {
	return n.Coeff().IsOne()
}

// AsView widens back to a generic view.
func (n NumView) AsView() AtomView { return AtomView{data: n.data} }

// ByteSize returns the encoded size of the node.
func (n NumView) ByteSize() int { return len(n.data) }

// Equal reports byte equality.
func (n NumView) Equal(other NumView) bool { return bytes.Equal(n.data, other.data) }

// ToOwned copies the view into a fresh builder.
func (n NumView) ToOwned() *Num { return NumFromView(n, nil) }

// ============================================================
// VarView
// ============================================================

// VarView is a read-only view of a variable node.
type VarView struct {
	data []byte
}

// Symbol reconstructs the stored symbol, attributes included.
func (v VarView) Symbol() Symbol {
	cyclesym := v.data[0]&flagVarCyclesymmetric == flagVarCyclesymmetric
	id, _, _ := readPackedPair(v.data[1:])
	return RawSymbol(
		uint32(id),
		wildcardLevelOf(v.data[0]),
		!cyclesym && v.data[0]&flagSymmetric != 0,
		!cyclesym && v.data[0]&flagVarAntisymmetric != 0,
		cyclesym,
		v.data[0]&flagLinear != 0,
	)
}

// WildcardLevel returns the wildcard level without decoding the id.
func (v VarView) WildcardLevel() uint8 {
	return wildcardLevelOf(v.data[0])
}

// AsView widens back to a generic view.
func (v VarView) AsView() AtomView { return AtomView{data: v.data} }

// ByteSize returns the encoded size of the node.
func (v VarView) ByteSize() int { return len(v.data) }

// Equal reports byte equality.
func (v VarView) Equal(other VarView) bool { return bytes.Equal(v.data, other.data) }

// ToOwned copies the view into a fresh builder.
func (v VarView) ToOwned() *Var { return VarFromView(v, nil) }

// ============================================================
// FunView
// ============================================================

// FunView is a read-only view of a function node.
type FunView struct {
	data []byte
}

// Symbol reconstructs the stored symbol. Antisymmetry lives in bit 32 of
// the packed id, cyclesymmetry is the combination of that bit with the
// symmetric flag.
func (f FunView) Symbol() Symbol {
	id, _, _ := readPackedPair(f.data[funHeader:])
	antisym := id&funAntisymmetricBit != 0
	sym := f.data[0]&flagSymmetric != 0
	cyclesym := sym && antisym
	return RawSymbol(
		uint32(id),
		wildcardLevelOf(f.data[0]),
		!cyclesym && sym,
		!cyclesym && antisym,
		cyclesym,
		f.IsLinear(),
	)
}

// IsSymmetric reports plain symmetry. False for cyclesymmetric functions.
func (f FunView) IsSymmetric() bool {
	if f.data[0]&flagSymmetric == 0 {
		return false
	}
	id, _, _ := readPackedPair(f.data[funHeader:])
	return id&funAntisymmetricBit == 0
}

// IsAntisymmetric reports plain antisymmetry. False for cyclesymmetric
// functions.
func (f FunView) IsAntisymmetric() bool {
	if f.data[0]&flagSymmetric != 0 {
		return false
	}
	id, _, _ := readPackedPair(f.data[funHeader:])
	return id&funAntisymmetricBit != 0
}

// IsCyclesymmetric reports cyclic symmetry.
func (f FunView) IsCyclesymmetric() bool {
	if f.data[0]&flagSymmetric == 0 {
		return false
	}
	id, _, _ := readPackedPair(f.data[funHeader:])
	return id&funAntisymmetricBit != 0
}

// IsLinear reports linearity.
func (f FunView) IsLinear() bool {
	return f.data[0]&flagLinear != 0
}

// WildcardLevel returns the wildcard level.
func (f FunView) WildcardLevel() uint8 {
	return wildcardLevelOf(f.data[0])
}

// NArgs returns the number of arguments.
func (f FunView) NArgs() int {
	_, nargs, _ := readPackedPair(f.data[funHeader:])
	return int(nargs)
}

// IsNormalized reports whether the canonical form has been computed.
func (f FunView) IsNormalized() bool {
	return f.data[0]&flagNotNormalized == 0
}

// Iter returns a forward iterator over the arguments.
func (f FunView) Iter() *ListIterator {
	_, nargs, rest := readPackedPair(f.data[funHeader:])
	return &ListIterator{data: rest, remaining: int(nargs)}
}

// Slice returns a random-access slice over the arguments.
func (f FunView) Slice() ListSlice {
	_, nargs, rest := readPackedPair(f.data[funHeader:])
	return ListSlice{data: rest, length: int(nargs), typ: SliceArg}
}

// AsView widens back to a generic view.
func (f FunView) AsView() AtomView { return AtomView{data: f.data} }

// ByteSize returns the encoded size of the node.
func (f FunView) ByteSize() int { return len(f.data) }

// Equal reports byte equality.
func (f FunView) Equal(other FunView) bool { return bytes.Equal(f.data, other.data) }

// Compare orders two function encodings bytewise.
func (f FunView) Compare(other FunView) int { return bytes.Compare(f.data, other.data) }

// ToOwned copies the view into a fresh builder.
func (f FunView) ToOwned() *Fun { return FunFromView(f, nil) }

// ============================================================
// MulView
// ============================================================

// MulView is a read-only view of a product node.
type MulView struct {
	data []byte
}

// NArgs returns the number of factors.
func (m MulView) NArgs() int {
	nargs, _, _ := readPackedPair(m.data[funHeader:])
	return int(nargs)
}

// HasCoefficient reports whether the product carries a trailing numeric
// coefficient.
func (m MulView) HasCoefficient() bool {
	return m.data[0]&flagMulHasCoeff != 0
}

// IsNormalized reports whether the canonical form has been computed.
func (m MulView) IsNormalized() bool {
	return m.data[0]&flagNotNormalized == 0
}

// Iter returns a forward iterator over the factors.
func (m MulView) Iter() *ListIterator {
	nargs, _, rest := readPackedPair(m.data[funHeader:])
	return &ListIterator{data: rest, remaining: int(nargs)}
}

// Slice returns a random-access slice over the factors.
func (m MulView) Slice() ListSlice {
	nargs, _, rest := readPackedPair(m.data[funHeader:])
	return ListSlice{data: rest, length: int(nargs), typ: SliceMul}
}

// AsView widens back to a generic view.
func (m MulView) AsView() AtomView { return AtomView{data: m.data} }

// ByteSize returns the encoded size of the node.
func (m MulView) ByteSize() int { return len(m.data) }

// Equal reports byte equality.
func (m MulView) Equal(other MulView) bool { return bytes.Equal(m.data, other.data) }

// ToOwned copies the view into a fresh builder.
func (m MulView) ToOwned() *Mul { return MulFromView(m, nil) }

// ============================================================
// AddView
// ============================================================

// AddView is a read-only view of a sum node.
type AddView struct {
	data []byte
}

// NArgs returns the number of terms.
func (a AddView) NArgs() int {
	nargs, _, _ := readPackedPair(a.data[1:])
	return int(nargs)
}

// IsNormalized reports whether the canonical form has been computed.
func (a AddView) IsNormalized() bool {
	return a.data[0]&flagNotNormalized == 0
}

// Iter returns a forward iterator over the terms.
func (a AddView) Iter() *ListIterator {
	nargs, _, rest := readPackedPair(a.data[1:])
	return &ListIterator{data: rest, remaining: int(nargs)}
}

// Slice returns a random-access slice over the terms.
func (a AddView) Slice() ListSlice {
	nargs, _, rest := readPackedPair(a.data[1:])
	return ListSlice{data: rest, length: int(nargs), typ: SliceAdd}
}

// AsView widens back to a generic view.
func (a AddView) AsView() AtomView { return AtomView{data: a.data} }

// ByteSize returns the encoded size of the node.
func (a AddView) ByteSize() int { return len(a.data) }

// Equal reports byte equality.
func (a AddView) Equal(other AddView) bool { return bytes.Equal(a.data, other.data) }

// ToOwned copies the view into a fresh builder.
func (a AddView) ToOwned() *Add { return AddFromView(a, nil) }

// ============================================================
// PowView
// ============================================================

// PowView is a read-only view of a power node.
type PowView struct {
	data []byte
}

// Base returns the base expression.
func (p PowView) Base() AtomView {
	b, _ := p.BaseExp()
	return b
}

// Exp returns the exponent expression.
func (p PowView) Exp() AtomView {
	_, e := p.BaseExp()
	return e
}

// BaseExp returns both children.
func (p PowView) BaseExp() (base, exp AtomView) {
	it := ListIterator{data: p.data[1:], remaining: 2}
	base, _ = it.Next()
	exp, _ = it.Next()
	return base, exp
}

// IsNormalized reports whether the canonical form has been computed.
func (p PowView) IsNormalized() bool {
	return p.data[0]&flagNotNormalized == 0
}

// Slice returns a random-access slice over the two children.
func (p PowView) Slice() ListSlice {
	return ListSlice{data: p.data[1:], length: 2, typ: SlicePow}
}

// AsView widens back to a generic view.
func (p PowView) AsView() AtomView { return AtomView{data: p.data} }

// ByteSize returns the encoded size of the node.
func (p PowView) ByteSize() int { return len(p.data) }

// Equal reports byte equality.
func (p PowView) Equal(other PowView) bool { return bytes.Equal(p.data, other.data) }

// ToOwned copies the view into a fresh builder.
func (p PowView) ToOwned() *Pow { return PowFromView(p, nil) }
