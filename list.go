package atom

import (
	"encoding/binary"
	"fmt"
)

// ============================================================
// Sibling Navigation
// ============================================================

// SliceType records what a ListSlice ranges over.
type SliceType uint8

const (
	SliceEmpty SliceType = iota
	SliceOne
	SliceArg // function arguments
	SliceMul // product factors
	SliceAdd // sum terms
	SlicePow // base and exponent
)

// String returns the slice type name.
func (t SliceType) String() string {
	switch t {
	case SliceEmpty:
		return "empty"
	case SliceOne:
		return "one"
	case SliceArg:
		return "arg"
	case SliceMul:
		return "mul"
	case SliceAdd:
		return "add"
	case SlicePow:
		return "pow"
	default:
		return "unknown"
	}
}

// skipAtoms advances past n sibling encodings without recursing into
// them. Each kind is self-delimiting except Pow, which stores no length:
// skipping a Pow pushes its two children onto the pending worklist
// instead of consuming a length field. The loop terminates because every
// iteration consumes at least the tag byte of one node and the worklist
// only grows by the (finite) children of nodes already consumed.
func skipAtoms(data []byte, n int) []byte {
	pending := n
	for pending > 0 {
		pending--
		tag := data[0] & tagMask
		data = data[1:]
		switch tag {
		case tagNum, tagVar:
			data = skipNumber(data)
		case tagFun, tagMul:
			size := binary.LittleEndian.Uint32(data)
			data = data[4+size:]
		case tagAdd:
			_, size, rest := readPackedPair(data)
			data = rest[size:]
		case tagPow:
			pending += 2
		default:
			panic(fmt.Sprintf("atom: corrupt encoding, tag %d", tag))
		}
	}
	return data
}

// nextAtom slices one node encoding off the front of data.
func nextAtom(data []byte) (AtomView, []byte) {
	rest := skipAtoms(data, 1)
	return viewOf(data[:len(data)-len(rest)]), rest
}

// ============================================================
// ListIterator
// ============================================================

// ListIterator walks a run of sibling nodes front to back. It is a
// single-pass, forward-only iterator; re-derive it from the view to
// restart.
type ListIterator struct {
	data      []byte
	remaining int
}

// Next returns the next sibling view, or false once the list is
// exhausted.
func (it *ListIterator) Next() (AtomView, bool) {
	if it.remaining == 0 {
		return AtomView{}, false
	}
	it.remaining--
	var v AtomView
	v, it.data = nextAtom(it.data)
	return v, true
}

// Remaining returns how many siblings have not been produced yet.
func (it *ListIterator) Remaining() int {
	return it.remaining
}

// ============================================================
// ListSlice
// ============================================================

// ListSlice is a non-owning random-access view over a contiguous run of
// sibling encodings. Indexed access fast-forwards by skipping preceding
// siblings, so it costs the sum of their encoded sizes, not O(1); the
// known element count still bounds scans and validates ranges cheaply.
type ListSlice struct {
	data   []byte
	length int
	typ    SliceType
}

// EmptySlice returns a slice over nothing.
func EmptySlice() ListSlice {
	return ListSlice{typ: SliceEmpty}
}

// SliceFromOne wraps a single view as a one-element slice.
func SliceFromOne(v AtomView) ListSlice {
	return ListSlice{data: v.data, length: 1, typ: SliceOne}
}

// Len returns the number of siblings in the slice.
func (s ListSlice) Len() int {
	return s.length
}

// Type returns what the slice ranges over.
func (s ListSlice) Type() SliceType {
	return s.typ
}

// Get returns the sibling at index. Panics if the index is out of range.
func (s ListSlice) Get(index int) AtomView {
	if index < 0 || index >= s.length {
		panic(fmt.Sprintf("atom: slice index %d out of bounds (len=%d)", index, s.length))
	}
	pos := skipAtoms(s.data, index)
	v, _ := nextAtom(pos)
	return v
}

// SubSlice narrows to the half-open index range [start, end). Panics on
// an invalid range.
func (s ListSlice) SubSlice(start, end int) ListSlice {
	if start < 0 || end < start || end > s.length {
		panic(fmt.Sprintf("atom: slice range [%d:%d) out of bounds (len=%d)", start, end, s.length))
	}
	pos := skipAtoms(s.data, start)
	tail := skipAtoms(pos, end-start)
	return ListSlice{
		data:   pos[:len(pos)-len(tail)],
		length: end - start,
		typ:    s.typ,
	}
}

// Iter returns a forward iterator over the slice.
func (s ListSlice) Iter() *ListIterator {
	return &ListIterator{data: s.data, remaining: s.length}
}
