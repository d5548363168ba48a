package atom

// ============================================================
// Inline Nodes
// ============================================================
//
// Inline nodes are fixed-size, stack-friendly encodings of the two node
// kinds small enough to always fit a short array: variables and rational
// numbers. They avoid a heap buffer entirely in hot paths that only need
// a view, such as probing a map keyed by expression bytes.

// InlineVar is a variable node in a fixed 16-byte array. The encoding is
// identical to a heap-built Var.
type InlineVar struct {
	data [16]byte
	size uint8
}

// NewInlineVar encodes the symbol as an inline variable node.
func NewInlineVar(s Symbol) InlineVar {
	var v InlineVar
	b := append(v.data[:0], varTagByte(s))
	b = appendPackedPair(b, uint64(s.id), 1)
	v.size = uint8(len(b))
	return v
}

// AsView borrows the node as a generic view. The view aliases the inline
// array; it is invalidated when the InlineVar goes out of scope or is
// copied.
func (v *InlineVar) AsView() AtomView {
	return AtomView{data: v.data[:v.size]}
}

// InlineNum is a rational number node in a fixed 24-byte array. The
// encoding is identical to a heap-built Num with a rational coefficient.
type InlineNum struct {
	data [24]byte
	size uint8
}

// NewInlineNum encodes num/den as an inline number node. den must be
// non-zero.
func NewInlineNum(num int64, den uint64) InlineNum {
	if den == 0 {
		panic("atom: rational coefficient with zero denominator")
	}
	var n InlineNum
	mag := uint64(num)
	if num < 0 {
		mag = uint64(-num)
	}
	b := append(n.data[:0], tagNum)
	b = appendPackedSigned(b, mag, den, num < 0)
	n.size = uint8(len(b))
	return n
}

// AsView borrows the node as a generic view. The view aliases the inline
// array.
func (n *InlineNum) AsView() AtomView {
	return AtomView{data: n.data[:n.size]}
}
