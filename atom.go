package atom

import (
	"encoding/binary"
)

// ============================================================
// Owned Atoms
// ============================================================

// Atom is an owned expression node: a tagged union over one growable byte
// buffer that it owns exclusively. An empty buffer is the Zero sentinel,
// whose view is the canonical number zero.
type Atom struct {
	data []byte
}

// NewAtom creates a Zero atom with no buffer.
func NewAtom() *Atom {
	return &Atom{}
}

// NewAtomInto creates a Zero atom that recycles the given buffer. The
// buffer contents are discarded, its capacity is kept.
func NewAtomInto(buf []byte) *Atom {
	return &Atom{data: buf[:0]}
}

// AtomFromRaw wraps a raw node encoding previously obtained from IntoRaw
// or assembled by a decoder. The leading tag byte is validated; the rest
// of the encoding is trusted.
func AtomFromRaw(raw []byte) (*Atom, error) {
	if err := checkTag(raw); err != nil {
		return nil, err
	}
	return &Atom{data: raw}, nil
}

// atomFromRaw is the unchecked fast path for buffers whose tag the caller
// has already validated.
func atomFromRaw(raw []byte) *Atom {
	return &Atom{data: raw}
}

// Kind returns the variant of the atom.
func (a *Atom) Kind() Kind {
	if len(a.data) == 0 {
		return KindZero
	}
	return kindOf(a.data[0])
}

// IsZero reports whether the atom is the Zero sentinel.
func (a *Atom) IsZero() bool {
	return len(a.data) == 0
}

// Reset returns the atom to the Zero sentinel, keeping the buffer
// capacity for reuse.
func (a *Atom) Reset() {
	a.data = a.data[:0]
}

// AsView borrows the atom as a read-only view. The view is invalidated by
// any subsequent mutation of the atom.
func (a *Atom) AsView() AtomView {
	if len(a.data) == 0 {
		return AtomView{data: zeroData}
	}
	return AtomView{data: a.data}
}

// SetFromView overwrites the atom with a copy of the view's bytes.
func (a *Atom) SetFromView(v AtomView) {
	a.data = append(a.data[:0], v.data...)
}

// IntoRaw releases the underlying buffer, leaving the atom Zero. The
// buffer can be recycled through the Into constructors.
func (a *Atom) IntoRaw() []byte {
	d := a.data
	a.data = nil
	return d
}

// GrowCapacity ensures the buffer can hold size bytes without
// reallocating.
func (a *Atom) GrowCapacity(size int) {
	if size > cap(a.data) {
		grown := make([]byte, len(a.data), size)
		copy(grown, a.data)
		a.data = grown
	}
}

// ByteSize returns the encoded size of the atom. Zero atoms report the
// size of the canonical zero encoding.
func (a *Atom) ByteSize() int {
	if len(a.data) == 0 {
		return len(zeroData)
	}
	return len(a.data)
}

// ============================================================
// In-Place Conversions
// ============================================================

// ToNum overwrites the atom with a number node and returns the typed
// builder over the same buffer.
func (a *Atom) ToNum(c Coefficient) *Num {
	a.data = append(a.data[:0], tagNum)
	a.data = c.appendPacked(a.data)
	return (*Num)(a)
}

// ToVar overwrites the atom with a variable node.
func (a *Atom) ToVar(s Symbol) *Var {
	v := (*Var)(a)
	v.SetFromSymbol(s)
	return v
}

// ToFun overwrites the atom with an empty function node. Arguments are
// attached with AddArg.
func (a *Atom) ToFun(s Symbol) *Fun {
	f := (*Fun)(a)
	f.setFromSymbol(s)
	return f
}

// ToMul overwrites the atom with an empty product node.
func (a *Atom) ToMul() *Mul {
	m := (*Mul)(a)
	m.reset()
	return m
}

// ToAdd overwrites the atom with an empty sum node.
func (a *Atom) ToAdd() *Add {
	ad := (*Add)(a)
	ad.reset()
	return ad
}

// ToPow overwrites the atom with a power node.
func (a *Atom) ToPow(base, exp AtomView) *Pow {
	p := (*Pow)(a)
	p.SetFromBaseExp(base, exp)
	return p
}

// shiftTail moves the bytes starting at oldStart so that they begin at
// newStart instead, growing or shrinking the buffer by the difference.
// This is how headers change width in place when a packed pair needs more
// or fewer bytes.
func shiftTail(data []byte, oldStart, newStart int) []byte {
	switch {
	case newStart == oldStart:
		return data
	case newStart < oldStart:
		n := copy(data[newStart:], data[oldStart:])
		return data[:newStart+n]
	default:
		grow := newStart - oldStart
		oldLen := len(data)
		data = append(data, make([]byte, grow)...)
		copy(data[newStart:], data[oldStart:oldLen])
		return data
	}
}

// ============================================================
// Num Builder
// ============================================================

// Num is a builder for number nodes. It shares the Atom representation;
// convert with AsAtom.
type Num Atom

// NewNum creates a number node.
func NewNum(c Coefficient) *Num {
	return NewAtom().ToNum(c)
}

// NewNumInto creates a number node reusing the given buffer.
func NewNumInto(c Coefficient, buf []byte) *Num {
	return NewAtomInto(buf).ToNum(c)
}

// NumFromView copies a view into a fresh builder reusing the given buffer.
func NumFromView(v NumView, buf []byte) *Num {
	n := (*Num)(NewAtomInto(buf))
	n.SetFromView(v)
	return n
}

// SetFromCoeff overwrites the node with a new coefficient.
func (n *Num) SetFromCoeff(c Coefficient) {
	(*Atom)(n).ToNum(c)
}

// SetFromView overwrites the node with a copy of the view.
func (n *Num) SetFromView(v NumView) {
	n.data = append(n.data[:0], v.data...)
}

// View borrows the node read-only.
func (n *Num) View() NumView {
	return NumView{data: n.data}
}

// AsAtom returns the node as a generic atom. Both share the buffer.
func (n *Num) AsAtom() *Atom { return (*Atom)(n) }

// AsView borrows the node as a generic view.
func (n *Num) AsView() AtomView { return AtomView{data: n.data} }

// IntoRaw releases the underlying buffer.
func (n *Num) IntoRaw() []byte { return (*Atom)(n).IntoRaw() }

// ============================================================
// Var Builder
// ============================================================

// Var is a builder for variable nodes.
type Var Atom

// NewVar creates a variable node for the symbol.
func NewVar(s Symbol) *Var {
	return NewAtom().ToVar(s)
}

// NewVarInto creates a variable node reusing the given buffer.
func NewVarInto(s Symbol, buf []byte) *Var {
	return NewAtomInto(buf).ToVar(s)
}

// VarFromView copies a view into a fresh builder reusing the given buffer.
func VarFromView(v VarView, buf []byte) *Var {
	vr := (*Var)(NewAtomInto(buf))
	vr.SetFromView(v)
	return vr
}

// SetFromSymbol overwrites the node with a new symbol.
func (v *Var) SetFromSymbol(s Symbol) {
	v.data = append(v.data[:0], varTagByte(s))
	v.data = appendPackedPair(v.data, uint64(s.id), 1)
}

// SetFromView overwrites the node with a copy of the view.
func (v *Var) SetFromView(view VarView) {
	v.data = append(v.data[:0], view.data...)
}

// Symbol returns the stored symbol.
func (v *Var) Symbol() Symbol {
	return v.View().Symbol()
}

// View borrows the node read-only.
func (v *Var) View() VarView {
	return VarView{data: v.data}
}

// AsAtom returns the node as a generic atom.
func (v *Var) AsAtom() *Atom { return (*Atom)(v) }

// AsView borrows the node as a generic view.
func (v *Var) AsView() AtomView { return AtomView{data: v.data} }

// IntoRaw releases the underlying buffer.
func (v *Var) IntoRaw() []byte { return (*Atom)(v).IntoRaw() }

// ============================================================
// Fun Builder
// ============================================================

// funHeader is the fixed part of a Fun/Mul encoding: the tag byte plus the
// 4-byte little-endian payload length.
const funHeader = 1 + 4

// Fun is a builder for function nodes.
type Fun Atom

// NewFun creates a function node with no arguments.
func NewFun(s Symbol) *Fun {
	return NewAtom().ToFun(s)
}

// NewFunInto creates a function node reusing the given buffer.
func NewFunInto(s Symbol, buf []byte) *Fun {
	return NewAtomInto(buf).ToFun(s)
}

// FunFromView copies a view into a fresh builder reusing the given buffer.
func FunFromView(v FunView, buf []byte) *Fun {
	f := (*Fun)(NewAtomInto(buf))
	f.SetFromView(v)
	return f
}

func (f *Fun) setFromSymbol(s Symbol) {
	f.data = append(f.data[:0], funTagByte(s), 0, 0, 0, 0)
	f.data = appendPackedPair(f.data, funPackedID(s), 0)
	binary.LittleEndian.PutUint32(f.data[1:funHeader], uint32(len(f.data)-funHeader))
}

// SetFromView overwrites the node with a copy of the view.
func (f *Fun) SetFromView(v FunView) {
	f.data = append(f.data[:0], v.data...)
}

// SetNormalized records whether the node is in canonical form. The
// normalization itself is computed outside this layer.
func (f *Fun) SetNormalized(normalized bool) {
	if normalized {
		f.data[0] &^= flagNotNormalized
	} else {
		f.data[0] |= flagNotNormalized
	}
}

// AddArg appends one argument, widening the (symbol id, argument count)
// header pair in place if the incremented count no longer fits, and marks
// the node not normalized.
func (f *Fun) AddArg(arg AtomView) {
	f.data[0] |= flagNotNormalized

	id, nargs, rest := readPackedPair(f.data[funHeader:])
	oldSize := len(f.data) - funHeader - len(rest)

	nargs++
	newSize := packedPairSize(id, nargs)
	f.data = shiftTail(f.data, funHeader+oldSize, funHeader+newSize)
	writePackedPairFixed(f.data[funHeader:funHeader+newSize], id, nargs)

	f.data = append(f.data, arg.data...)
	binary.LittleEndian.PutUint32(f.data[1:funHeader], uint32(len(f.data)-funHeader))
}

// Symbol returns the function's symbol.
func (f *Fun) Symbol() Symbol {
	return f.View().Symbol()
}

// NArgs returns the number of arguments.
func (f *Fun) NArgs() int {
	return f.View().NArgs()
}

// View borrows the node read-only.
func (f *Fun) View() FunView {
	return FunView{data: f.data}
}

// AsAtom returns the node as a generic atom.
func (f *Fun) AsAtom() *Atom { return (*Atom)(f) }

// AsView borrows the node as a generic view.
func (f *Fun) AsView() AtomView { return AtomView{data: f.data} }

// IntoRaw releases the underlying buffer.
func (f *Fun) IntoRaw() []byte { return (*Atom)(f).IntoRaw() }

// ============================================================
// Mul Builder
// ============================================================

// Mul is a builder for product nodes.
type Mul Atom

// NewMul creates an empty product node.
func NewMul() *Mul {
	return NewAtom().ToMul()
}

// NewMulInto creates an empty product node reusing the given buffer.
func NewMulInto(buf []byte) *Mul {
	return NewAtomInto(buf).ToMul()
}

// MulFromView copies a view into a fresh builder reusing the given buffer.
func MulFromView(v MulView, buf []byte) *Mul {
	m := (*Mul)(NewAtomInto(buf))
	m.SetFromView(v)
	return m
}

func (m *Mul) reset() {
	m.data = append(m.data[:0], tagMul|flagNotNormalized, 0, 0, 0, 0)
	m.data = appendPackedPair(m.data, 0, 1)
	binary.LittleEndian.PutUint32(m.data[1:funHeader], uint32(len(m.data)-funHeader))
}

// SetFromView overwrites the node with a copy of the view.
func (m *Mul) SetFromView(v MulView) {
	m.data = append(m.data[:0], v.data...)
}

// SetNormalized records whether the node is in canonical form.
func (m *Mul) SetNormalized(normalized bool) {
	if normalized {
		m.data[0] &^= flagNotNormalized
	} else {
		m.data[0] |= flagNotNormalized
	}
}

// SetHasCoefficient records whether the product carries a trailing numeric
// coefficient. Maintained by the normalizer.
func (m *Mul) SetHasCoefficient(has bool) {
	if has {
		m.data[0] |= flagMulHasCoeff
	} else {
		m.data[0] &^= flagMulHasCoeff
	}
}

// Extend appends one factor and marks the node not normalized. A Mul
// operand is spliced in directly: its factors are adopted and no nested
// product is created.
func (m *Mul) Extend(other AtomView) {
	m.data[0] |= flagNotNormalized

	nargs, _, rest := readPackedPair(m.data[funHeader:])
	oldSize := len(m.data) - funHeader - len(rest)

	var payload []byte
	if other.Kind() == KindMul {
		sub, _, subRest := readPackedPair(other.data[funHeader:])
		nargs += sub
		payload = subRest
	} else {
		nargs++
		payload = other.data
	}

	newSize := packedPairSize(nargs, 1)
	m.data = shiftTail(m.data, funHeader+oldSize, funHeader+newSize)
	writePackedPairFixed(m.data[funHeader:funHeader+newSize], nargs, 1)

	m.data = append(m.data, payload...)
	binary.LittleEndian.PutUint32(m.data[1:funHeader], uint32(len(m.data)-funHeader))
}

// ReplaceLast swaps the final factor for another expression. The argument
// count is unchanged.
func (m *Mul) ReplaceLast(other AtomView) {
	nargs, _, rest := readPackedPair(m.data[funHeader:])
	if nargs == 0 {
		panic("atom: replace last factor of an empty product")
	}
	oldSize := len(m.data) - funHeader - len(rest)

	newSize := packedPairSize(nargs, 1)
	m.data = shiftTail(m.data, funHeader+oldSize, funHeader+newSize)
	writePackedPairFixed(m.data[funHeader:funHeader+newSize], nargs, 1)

	// fast-forward to the start of the last factor and truncate there
	args := m.data[funHeader+newSize:]
	tail := skipAtoms(args, int(nargs)-1)
	cut := len(m.data) - len(tail)

	m.data = append(m.data[:cut], other.data...)
	binary.LittleEndian.PutUint32(m.data[1:funHeader], uint32(len(m.data)-funHeader))
}

// NArgs returns the number of factors.
func (m *Mul) NArgs() int {
	return m.View().NArgs()
}

// View borrows the node read-only.
func (m *Mul) View() MulView {
	return MulView{data: m.data}
}

// AsAtom returns the node as a generic atom.
func (m *Mul) AsAtom() *Atom { return (*Atom)(m) }

// AsView borrows the node as a generic view.
func (m *Mul) AsView() AtomView { return AtomView{data: m.data} }

// IntoRaw releases the underlying buffer.
func (m *Mul) IntoRaw() []byte { return (*Atom)(m).IntoRaw() }

// ============================================================
// Add Builder
// ============================================================

// Add is a builder for sum nodes. Unlike Fun and Mul, the header is a
// single packed (argument count, payload length) pair with no fixed-width
// length field.
type Add Atom

// NewAdd creates an empty sum node.
func NewAdd() *Add {
	return NewAtom().ToAdd()
}

// NewAddInto creates an empty sum node reusing the given buffer.
func NewAddInto(buf []byte) *Add {
	return NewAtomInto(buf).ToAdd()
}

// AddFromView copies a view into a fresh builder reusing the given buffer.
func AddFromView(v AddView, buf []byte) *Add {
	ad := (*Add)(NewAtomInto(buf))
	ad.SetFromView(v)
	return ad
}

func (ad *Add) reset() {
	ad.data = append(ad.data[:0], tagAdd|flagNotNormalized)
	ad.data = appendPackedPair(ad.data, 0, 0)
}

// SetFromView overwrites the node with a copy of the view.
func (ad *Add) SetFromView(v AddView) {
	ad.data = append(ad.data[:0], v.data...)
}

// SetNormalized records whether the node is in canonical form.
func (ad *Add) SetNormalized(normalized bool) {
	if normalized {
		ad.data[0] &^= flagNotNormalized
	} else {
		ad.data[0] |= flagNotNormalized
	}
}

// Extend appends one term and marks the node not normalized. An Add
// operand is spliced in directly, adopting its terms.
func (ad *Add) Extend(other AtomView) {
	ad.data[0] |= flagNotNormalized

	nargs, _, rest := readPackedPair(ad.data[1:])
	oldHeader := len(ad.data) - len(rest)

	if other.Kind() == KindAdd {
		sub, _, subRest := readPackedPair(other.data[1:])
		nargs += sub
		ad.data = append(ad.data, subRest...)
	} else {
		nargs++
		ad.data = append(ad.data, other.data...)
	}

	payloadLen := uint64(len(ad.data) - oldHeader)
	newHeader := 1 + packedPairSize(nargs, payloadLen)
	ad.data = shiftTail(ad.data, oldHeader, newHeader)
	writePackedPairFixed(ad.data[1:newHeader], nargs, payloadLen)
}

// NArgs returns the number of terms.
func (ad *Add) NArgs() int {
	return ad.View().NArgs()
}

// GrowCapacity ensures the buffer can hold size bytes without
// reallocating.
func (ad *Add) GrowCapacity(size int) {
	(*Atom)(ad).GrowCapacity(size)
}

// View borrows the node read-only.
func (ad *Add) View() AddView {
	return AddView{data: ad.data}
}

// AsAtom returns the node as a generic atom.
func (ad *Add) AsAtom() *Atom { return (*Atom)(ad) }

// AsView borrows the node as a generic view.
func (ad *Add) AsView() AtomView { return AtomView{data: ad.data} }

// IntoRaw releases the underlying buffer.
func (ad *Add) IntoRaw() []byte { return (*Atom)(ad).IntoRaw() }

// ============================================================
// Pow Builder
// ============================================================

// Pow is a builder for power nodes. A power always has exactly two
// children and stores neither a count nor a payload length; the fixed
// arity makes both redundant and saves several bytes on a very common
// node kind.
type Pow Atom

// NewPow creates a power node from base and exponent.
func NewPow(base, exp AtomView) *Pow {
	return NewAtom().ToPow(base, exp)
}

// NewPowInto creates a power node reusing the given buffer.
func NewPowInto(base, exp AtomView, buf []byte) *Pow {
	return NewAtomInto(buf).ToPow(base, exp)
}

// PowFromView copies a view into a fresh builder reusing the given buffer.
func PowFromView(v PowView, buf []byte) *Pow {
	p := (*Pow)(NewAtomInto(buf))
	p.SetFromView(v)
	return p
}

// SetFromBaseExp overwrites the node with a new base and exponent.
func (p *Pow) SetFromBaseExp(base, exp AtomView) {
	p.data = append(p.data[:0], tagPow|flagNotNormalized)
	p.data = append(p.data, base.data...)
	p.data = append(p.data, exp.data...)
}

// SetFromView overwrites the node with a copy of the view.
func (p *Pow) SetFromView(v PowView) {
	p.data = append(p.data[:0], v.data...)
}

// SetNormalized records whether the node is in canonical form.
func (p *Pow) SetNormalized(normalized bool) {
	if normalized {
		p.data[0] &^= flagNotNormalized
	} else {
		p.data[0] |= flagNotNormalized
	}
}

// View borrows the node read-only.
func (p *Pow) View() PowView {
	return PowView{data: p.data}
}

// AsAtom returns the node as a generic atom.
func (p *Pow) AsAtom() *Atom { return (*Atom)(p) }

// AsView borrows the node as a generic view.
func (p *Pow) AsView() AtomView { return AtomView{data: p.data} }

// IntoRaw releases the underlying buffer.
func (p *Pow) IntoRaw() []byte { return (*Atom)(p).IntoRaw() }
