package atom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Stream decoding errors
var (
	ErrBadTag = errors.New("atom: unrecognized variant tag")
)

// ============================================================
// Expression Frames
// ============================================================
//
// A single expression is framed as a reserved flags byte, an 8-byte
// little-endian payload length and the raw node encoding. An export
// stream prepends the referenced portion of the symbol table and an
// 8-byte expression count:
//
//	[state section][count: u64 LE][frame]*count
//
// The state section is a u64 LE byte length followed by a CBOR map
// holding the referenced symbols (name, wildcard level and the four
// boolean attributes), variable-ordering lists and finite-field moduli.

const frameHeaderSize = 1 + 8

// Write frames the expression into the stream: one reserved flags byte,
// the payload length and the raw bytes. Read decodes it. To move the
// expression to a different session, use Export instead, which also
// carries the symbol table.
func (v AtomView) Write(w io.Writer) error {
	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[1:], uint64(len(v.data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(v.data)
	return err
}

// Read decodes one framed expression from the stream into the atom,
// reusing its buffer. A short read or an unrecognized variant tag is
// fatal; the atom is left Zero in that case, with its buffer capacity
// intact.
func (a *Atom) Read(r io.Reader) error {
	buf := a.IntoRaw()[:0]

	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		a.data = buf
		return err
	}
	size := binary.LittleEndian.Uint64(hdr[1:])

	if uint64(cap(buf)) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	if _, err := io.ReadFull(r, buf); err != nil {
		a.data = buf[:0]
		return err
	}
	if err := checkTag(buf); err != nil {
		a.data = buf[:0]
		return err
	}
	a.data = buf
	return nil
}

// ============================================================
// State Section
// ============================================================

type exportedSymbol struct {
	ID             uint32 `cbor:"1,keyasint"`
	Name           string `cbor:"2,keyasint"`
	WildcardLevel  uint8  `cbor:"3,keyasint,omitempty"`
	Symmetric      bool   `cbor:"4,keyasint,omitempty"`
	Antisymmetric  bool   `cbor:"5,keyasint,omitempty"`
	Cyclesymmetric bool   `cbor:"6,keyasint,omitempty"`
	Linear         bool   `cbor:"7,keyasint,omitempty"`
}

type stateSection struct {
	Symbols       []exportedSymbol    `cbor:"1,keyasint,omitempty"`
	VariableLists map[uint64][]uint32 `cbor:"2,keyasint,omitempty"`
	FiniteFields  map[uint64]uint64   `cbor:"3,keyasint,omitempty"`
}

func (s exportedSymbol) attributes() SymbolAttributes {
	return SymbolAttributes{
		WildcardLevel:  s.WildcardLevel,
		Symmetric:      s.Symmetric,
		Antisymmetric:  s.Antisymmetric,
		Cyclesymmetric: s.Cyclesymmetric,
		Linear:         s.Linear,
	}
}

// refSet accumulates the identifiers an expression references.
type refSet struct {
	symbols map[uint32]struct{}
	lists   map[uint64]struct{}
	fields  map[uint64]struct{}
}

func newRefSet() *refSet {
	return &refSet{
		symbols: make(map[uint32]struct{}),
		lists:   make(map[uint64]struct{}),
		fields:  make(map[uint64]struct{}),
	}
}

func (rs *refSet) collect(v AtomView) {
	switch v.Kind() {
	case KindNum:
		cv := v.AsNum().Coeff()
		switch cv.Kind() {
		case CoeffFiniteField:
			_, field := cv.FiniteField()
			rs.fields[field] = struct{}{}
		case CoeffRationalPolynomial:
			list, _ := cv.RationalPolynomial()
			rs.lists[list] = struct{}{}
		}
	case KindVar:
		rs.symbols[v.AsVar().Symbol().ID()] = struct{}{}
	case KindFun:
		f := v.AsFun()
		rs.symbols[f.Symbol().ID()] = struct{}{}
		for it := f.Iter(); ; {
			arg, ok := it.Next()
			if !ok {
				break
			}
			rs.collect(arg)
		}
	case KindMul:
		for it := v.AsMul().Iter(); ; {
			c, ok := it.Next()
			if !ok {
				break
			}
			rs.collect(c)
		}
	case KindAdd:
		for it := v.AsAdd().Iter(); ; {
			c, ok := it.Next()
			if !ok {
				break
			}
			rs.collect(c)
		}
	case KindPow:
		base, exp := v.AsPow().BaseExp()
		rs.collect(base)
		rs.collect(exp)
	}
}

// buildStateSection assembles the portion of the table referenced by the
// views: every symbol, every variable list (plus the symbols those lists
// mention) and every finite-field modulus.
func buildStateSection(table *SymbolTable, views []AtomView) (stateSection, error) {
	refs := newRefSet()
	for _, v := range views {
		refs.collect(v)
	}

	var sec stateSection

	for id := range refs.lists {
		list, ok := table.VariableList(id)
		if !ok {
			return sec, fmt.Errorf("atom: export references unknown variable list %d", id)
		}
		ids := make([]uint32, len(list))
		for i, s := range list {
			ids[i] = s.ID()
			refs.symbols[s.ID()] = struct{}{}
		}
		if sec.VariableLists == nil {
			sec.VariableLists = make(map[uint64][]uint32)
		}
		sec.VariableLists[id] = ids
	}

	for id := range refs.fields {
		mod, ok := table.FiniteFieldModulus(id)
		if !ok {
			return sec, fmt.Errorf("atom: export references unknown finite field %d", id)
		}
		if sec.FiniteFields == nil {
			sec.FiniteFields = make(map[uint64]uint64)
		}
		sec.FiniteFields[id] = mod
	}

	ids := make([]uint32, 0, len(refs.symbols))
	for id := range refs.symbols {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		s, ok := table.Symbol(id)
		if !ok {
			return sec, fmt.Errorf("%w: %d", ErrUnknownSymbol, id)
		}
		a := s.Attributes()
		sec.Symbols = append(sec.Symbols, exportedSymbol{
			ID:             id,
			Name:           table.Name(id),
			WildcardLevel:  a.WildcardLevel,
			Symmetric:      a.Symmetric,
			Antisymmetric:  a.Antisymmetric,
			Cyclesymmetric: a.Cyclesymmetric,
			Linear:         a.Linear,
		})
	}

	return sec, nil
}

func writeStateSection(w io.Writer, sec stateSection) error {
	body, err := cbor.Marshal(sec)
	if err != nil {
		return fmt.Errorf("atom: encoding state section: %w", err)
	}
	var sz [8]byte
	binary.LittleEndian.PutUint64(sz[:], uint64(len(body)))
	if _, err := w.Write(sz[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func readStateSection(r io.Reader) (stateSection, error) {
	var sec stateSection
	var sz [8]byte
	if _, err := io.ReadFull(r, sz[:]); err != nil {
		return sec, err
	}
	body := make([]byte, binary.LittleEndian.Uint64(sz[:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return sec, err
	}
	if err := cbor.Unmarshal(body, &sec); err != nil {
		return sec, fmt.Errorf("atom: decoding state section: %w", err)
	}
	return sec, nil
}

// ============================================================
// StateMap
// ============================================================

// StateMap is the renaming table built when an imported symbol table is
// merged into a local one. It maps imported identifiers that changed
// during the merge; identifiers it does not mention carried over
// unchanged. A StateMap is built fresh per import and discarded after.
type StateMap struct {
	symbols map[uint32]Symbol
	lists   map[uint64]uint64
	fields  map[uint64]uint64
}

// NewStateMap creates an empty (identity) state map.
func NewStateMap() *StateMap {
	return &StateMap{
		symbols: make(map[uint32]Symbol),
		lists:   make(map[uint64]uint64),
		fields:  make(map[uint64]uint64),
	}
}

// IsIdentity reports whether the map renames nothing.
func (m *StateMap) IsIdentity() bool {
	return len(m.symbols) == 0 && len(m.lists) == 0 && len(m.fields) == 0
}

// MapSymbol records that the imported symbol id now refers to s.
func (m *StateMap) MapSymbol(old uint32, s Symbol) {
	m.symbols[old] = s
}

// MapVariableList records a variable-list id translation.
func (m *StateMap) MapVariableList(old, new uint64) {
	m.lists[old] = new
}

// MapFiniteField records a finite-field id translation.
func (m *StateMap) MapFiniteField(old, new uint64) {
	m.fields[old] = new
}

// ConflictFunc resolves a symbol-name collision during import: the
// incoming symbol has the same name as a local one but different
// attributes. It returns the name under which the incoming symbol should
// be interned instead.
type ConflictFunc func(name string) string

// mergeState folds an imported state section into the local table. The
// default policy when conflict is nil is that local attributes win: the
// imported symbol id is mapped onto the existing local symbol unchanged.
func mergeState(table *SymbolTable, sec stateSection, conflict ConflictFunc) (*StateMap, error) {
	sm := NewStateMap()

	for _, es := range sec.Symbols {
		attr := es.attributes().normalize()
		local, exists := table.Lookup(es.Name)
		switch {
		case exists && local.Attributes() == attr:
			if local.ID() != es.ID {
				sm.MapSymbol(es.ID, local)
			}
		case exists:
			if conflict == nil {
				// local attributes win
				sm.MapSymbol(es.ID, local)
				continue
			}
			renamed, err := table.Intern(conflict(es.Name), attr)
			if err != nil {
				return nil, fmt.Errorf("atom: resolving conflict for %q: %w", es.Name, err)
			}
			sm.MapSymbol(es.ID, renamed)
		default:
			s, err := table.Intern(es.Name, attr)
			if err != nil {
				return nil, err
			}
			if s.ID() != es.ID {
				sm.MapSymbol(es.ID, s)
			}
		}
	}

	resolve := func(old uint32) (Symbol, error) {
		if s, ok := sm.symbols[old]; ok {
			return s, nil
		}
		if s, ok := table.Symbol(old); ok {
			return s, nil
		}
		return Symbol{}, fmt.Errorf("%w: %d", ErrUnknownSymbol, old)
	}

	listIDs := make([]uint64, 0, len(sec.VariableLists))
	for id := range sec.VariableLists {
		listIDs = append(listIDs, id)
	}
	slices.Sort(listIDs)
	for _, old := range listIDs {
		members := sec.VariableLists[old]
		list := make([]Symbol, len(members))
		for i, id := range members {
			s, err := resolve(id)
			if err != nil {
				return nil, fmt.Errorf("atom: variable list %d: %w", old, err)
			}
			list[i] = s
		}
		if id := table.DefineVariableList(list); id != old {
			sm.MapVariableList(old, id)
		}
	}

	fieldIDs := make([]uint64, 0, len(sec.FiniteFields))
	for id := range sec.FiniteFields {
		fieldIDs = append(fieldIDs, id)
	}
	slices.Sort(fieldIDs)
	for _, old := range fieldIDs {
		if id := table.DefineFiniteField(sec.FiniteFields[old]); id != old {
			sm.MapFiniteField(old, id)
		}
	}

	return sm, nil
}

// ============================================================
// Renaming
// ============================================================

// Rename rewrites every symbol id, variable-list id and finite-field id
// the state map mentions and returns the result as a fresh atom. Subtrees
// the map does not touch are copied verbatim, so an identity map
// reproduces the input byte for byte. Rewritten containers are marked not
// normalized: id rewriting can change the canonical ordering, and
// normalization is computed outside this layer.
func (v AtomView) Rename(sm *StateMap, ws *Workspace) *Atom {
	if ws == nil {
		ws = NewWorkspace()
	}
	out := NewAtom()
	renameInto(v, sm, ws, out)
	return out
}

func needsRename(v AtomView, sm *StateMap) bool {
	switch v.Kind() {
	case KindNum:
		cv := v.AsNum().Coeff()
		switch cv.Kind() {
		case CoeffFiniteField:
			_, field := cv.FiniteField()
			_, ok := sm.fields[field]
			return ok
		case CoeffRationalPolynomial:
			list, _ := cv.RationalPolynomial()
			_, ok := sm.lists[list]
			return ok
		default:
			return false
		}
	case KindVar:
		_, ok := sm.symbols[v.AsVar().Symbol().ID()]
		return ok
	case KindFun:
		f := v.AsFun()
		if _, ok := sm.symbols[f.Symbol().ID()]; ok {
			return true
		}
		for it := f.Iter(); ; {
			arg, ok := it.Next()
			if !ok {
				return false
			}
			if needsRename(arg, sm) {
				return true
			}
		}
	case KindMul:
		for it := v.AsMul().Iter(); ; {
			c, ok := it.Next()
			if !ok {
				return false
			}
			if needsRename(c, sm) {
				return true
			}
		}
	case KindAdd:
		for it := v.AsAdd().Iter(); ; {
			c, ok := it.Next()
			if !ok {
				return false
			}
			if needsRename(c, sm) {
				return true
			}
		}
	case KindPow:
		base, exp := v.AsPow().BaseExp()
		return needsRename(base, sm) || needsRename(exp, sm)
	default:
		return false
	}
}

func renameInto(v AtomView, sm *StateMap, ws *Workspace, out *Atom) {
	if sm == nil || sm.IsIdentity() || !needsRename(v, sm) {
		out.SetFromView(v)
		return
	}

	switch v.Kind() {
	case KindNum:
		cv := v.AsNum().Coeff()
		switch cv.Kind() {
		case CoeffFiniteField:
			value, field := cv.FiniteField()
			out.ToNum(NewFiniteField(value, sm.fields[field]))
		case CoeffRationalPolynomial:
			list, blob := cv.RationalPolynomial()
			out.ToNum(NewRationalPolynomial(sm.lists[list], blob))
		}
	case KindVar:
		out.ToVar(sm.symbols[v.AsVar().Symbol().ID()])
	case KindFun:
		f := v.AsFun()
		sym := f.Symbol()
		if renamed, ok := sm.symbols[sym.ID()]; ok {
			sym = renamed
		}
		nf := out.ToFun(sym)
		arg := ws.Acquire()
		for it := f.Iter(); ; {
			a, ok := it.Next()
			if !ok {
				break
			}
			renameInto(a, sm, ws, arg)
			nf.AddArg(arg.AsView())
		}
		ws.Release(arg)
	case KindMul:
		mv := v.AsMul()
		nm := out.ToMul()
		factor := ws.Acquire()
		for it := mv.Iter(); ; {
			c, ok := it.Next()
			if !ok {
				break
			}
			renameInto(c, sm, ws, factor)
			nm.Extend(factor.AsView())
		}
		ws.Release(factor)
		nm.SetHasCoefficient(mv.HasCoefficient())
	case KindAdd:
		na := out.ToAdd()
		term := ws.Acquire()
		for it := v.AsAdd().Iter(); ; {
			c, ok := it.Next()
			if !ok {
				break
			}
			renameInto(c, sm, ws, term)
			na.Extend(term.AsView())
		}
		ws.Release(term)
	case KindPow:
		base, exp := v.AsPow().BaseExp()
		nb := ws.Acquire()
		renameInto(base, sm, ws, nb)
		ne := ws.Acquire()
		renameInto(exp, sm, ws, ne)
		out.ToPow(nb.AsView(), ne.AsView())
		ws.Release(ne)
		ws.Release(nb)
	}
}

// ============================================================
// Export / Import
// ============================================================

// Export writes the expressions and the referenced portion of the symbol
// table to the stream so that another session can Import them.
func Export(w io.Writer, table *SymbolTable, views ...AtomView) error {
	sec, err := buildStateSection(table, views)
	if err != nil {
		return err
	}
	if err := writeStateSection(w, sec); err != nil {
		return err
	}
	var cnt [8]byte
	binary.LittleEndian.PutUint64(cnt[:], uint64(len(views)))
	if _, err := w.Write(cnt[:]); err != nil {
		return err
	}
	for _, v := range views {
		if err := v.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// Export writes this expression and its referenced symbols to the stream.
func (v AtomView) Export(w io.Writer, table *SymbolTable) error {
	return Export(w, table, v)
}

// Import reads an exported stream, merging the embedded symbol table into
// table. Name collisions with different attributes are resolved by
// conflict; when conflict is nil, local attributes win. Multiple exported
// expressions are summed into a single Add node. The result may be marked
// not normalized when ids were rewritten; normalizing it again is the
// caller's job.
func Import(r io.Reader, table *SymbolTable, conflict ConflictFunc) (*Atom, error) {
	sec, err := readStateSection(r)
	if err != nil {
		return nil, err
	}
	sm, err := mergeState(table, sec, conflict)
	if err != nil {
		return nil, err
	}

	var cnt [8]byte
	if _, err := io.ReadFull(r, cnt[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(cnt[:])

	ws := NewWorkspace()

	if n == 0 {
		return NewAtom(), nil
	}
	if n == 1 {
		a := NewAtom()
		if err := a.Read(r); err != nil {
			return nil, err
		}
		return a.AsView().Rename(sm, ws), nil
	}

	res := NewAtom()
	sum := res.ToAdd()
	tmp := NewAtom()
	for i := uint64(0); i < n; i++ {
		if err := tmp.Read(r); err != nil {
			return nil, err
		}
		sum.Extend(tmp.AsView())
	}
	return res.AsView().Rename(sm, ws), nil
}

// ImportWithMap reads one framed expression (no symbol-table section) and
// renames it through an externally built state map. Used when the caller
// has already established the mapping by other means.
func ImportWithMap(r io.Reader, sm *StateMap, ws *Workspace) (*Atom, error) {
	a := NewAtom()
	if err := a.Read(r); err != nil {
		return nil, err
	}
	return a.AsView().Rename(sm, ws), nil
}

// ============================================================
// Compressed Streams
// ============================================================

// ExportCompressed is Export behind a zstd layer. Import the result with
// ImportCompressed.
func ExportCompressed(w io.Writer, table *SymbolTable, views ...AtomView) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := Export(zw, table, views...); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ImportCompressed is Import behind a zstd layer.
func ImportCompressed(r io.Reader, table *SymbolTable, conflict ConflictFunc) (*Atom, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return Import(zr, table, conflict)
}
