package atom

import (
	"errors"
	"fmt"
	"slices"
)

// Symbol table errors
var (
	ErrSymbolRedefined = errors.New("atom: symbol redefined with different attributes")
	ErrUnknownSymbol   = errors.New("atom: unknown symbol id")
)

// ============================================================
// Symbols
// ============================================================

// SymbolAttributes are the immutable algebraic attributes of a symbol.
// Cyclesymmetric implies both symmetry flavors at the storage level and a
// cyclesymmetric symbol reports as neither plain symmetric nor plain
// antisymmetric.
type SymbolAttributes struct {
	WildcardLevel  uint8 // 0-3
	Symmetric      bool
	Antisymmetric  bool
	Cyclesymmetric bool
	Linear         bool
}

// normalize applies the cyclesymmetry constraint and clamps the wildcard
// level to the two bits it is stored in. Symmetric and antisymmetric
// together canonicalize to cyclesymmetric: the encoding stores
// cyclesymmetry as exactly that flag combination, so the three-flag form
// has no representation of its own.
func (a SymbolAttributes) normalize() SymbolAttributes {
	if a.Symmetric && a.Antisymmetric {
		a.Cyclesymmetric = true
	}
	if a.Cyclesymmetric {
		a.Symmetric = false
		a.Antisymmetric = false
	}
	if a.WildcardLevel > 3 {
		a.WildcardLevel = 3
	}
	return a
}

// Symbol is an interned identifier plus its immutable attributes. Symbols
// are assigned once by a SymbolTable and compared by value.
type Symbol struct {
	id             uint32
	wildcardLevel  uint8
	symmetric      bool
	antisymmetric  bool
	cyclesymmetric bool
	linear         bool
}

// RawSymbol builds a symbol from its stored parts. It is mainly useful for
// tests and for decoders; normal construction goes through
// SymbolTable.Intern. Setting both plain symmetry flags means
// cyclesymmetric, and a cyclesymmetric symbol carries neither plain flag.
func RawSymbol(id uint32, wildcardLevel uint8, symmetric, antisymmetric, cyclesymmetric, linear bool) Symbol {
	if symmetric && antisymmetric {
		cyclesymmetric = true
	}
	if cyclesymmetric {
		symmetric = false
		antisymmetric = false
	}
	if wildcardLevel > 3 {
		wildcardLevel = 3
	}
	return Symbol{
		id:             id,
		wildcardLevel:  wildcardLevel,
		symmetric:      symmetric,
		antisymmetric:  antisymmetric,
		cyclesymmetric: cyclesymmetric,
		linear:         linear,
	}
}

// ID returns the interned identifier.
func (s Symbol) ID() uint32 { return s.id }

// WildcardLevel returns the wildcard level (0-3).
func (s Symbol) WildcardLevel() uint8 { return s.wildcardLevel }

// IsSymmetric reports plain symmetry. False for cyclesymmetric symbols.
func (s Symbol) IsSymmetric() bool { return s.symmetric }

// IsAntisymmetric reports plain antisymmetry. False for cyclesymmetric
// symbols.
func (s Symbol) IsAntisymmetric() bool { return s.antisymmetric }

// IsCyclesymmetric reports cyclic symmetry.
func (s Symbol) IsCyclesymmetric() bool { return s.cyclesymmetric }

// IsLinear reports linearity.
func (s Symbol) IsLinear() bool { return s.linear }

// Attributes returns the symbol's attributes, without the id.
func (s Symbol) Attributes() SymbolAttributes {
	return SymbolAttributes{
		WildcardLevel:  s.wildcardLevel,
		Symmetric:      s.symmetric,
		Antisymmetric:  s.antisymmetric,
		Cyclesymmetric: s.cyclesymmetric,
		Linear:         s.linear,
	}
}

// ============================================================
// Symbol Table
// ============================================================

// SymbolTable interns symbol names and hands out their 32-bit ids. It also
// registers the variable-ordering lists referenced by rational-polynomial
// coefficients and the moduli of finite fields, both of which are renamed
// alongside symbols during import.
//
// The table is not synchronized; callers share it read-only or guard it.
type SymbolTable struct {
	byName map[string]uint32
	names  []string
	attrs  []SymbolAttributes

	varLists [][]Symbol
	fields   []uint64 // finite-field moduli, id = index
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]uint32),
	}
}

// Len returns the number of interned symbols.
func (t *SymbolTable) Len() int {
	return len(t.names)
}

// Intern returns the symbol for name, creating it with the given
// attributes on first use. Re-interning an existing name with different
// attributes fails with ErrSymbolRedefined.
func (t *SymbolTable) Intern(name string, attr SymbolAttributes) (Symbol, error) {
	attr = attr.normalize()
	if id, ok := t.byName[name]; ok {
		if t.attrs[id] != attr {
			return Symbol{}, fmt.Errorf("%w: %s", ErrSymbolRedefined, name)
		}
		return t.symbolOf(id), nil
	}
	id := uint32(len(t.names))
	t.byName[name] = id
	t.names = append(t.names, name)
	t.attrs = append(t.attrs, attr)
	return t.symbolOf(id), nil
}

// MustIntern is Intern for names the caller knows are fresh or identical.
func (t *SymbolTable) MustIntern(name string, attr SymbolAttributes) Symbol {
	s, err := t.Intern(name, attr)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Lookup returns the symbol interned under name.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	id, ok := t.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return t.symbolOf(id), true
}

// Symbol returns the symbol with the given id.
func (t *SymbolTable) Symbol(id uint32) (Symbol, bool) {
	if int(id) >= len(t.names) {
		return Symbol{}, false
	}
	return t.symbolOf(id), true
}

// Name returns the name of the symbol with the given id, or "" if the id
// is unknown.
func (t *SymbolTable) Name(id uint32) string {
	if int(id) >= len(t.names) {
		return ""
	}
	return t.names[id]
}

func (t *SymbolTable) symbolOf(id uint32) Symbol {
	a := t.attrs[id]
	return Symbol{
		id:             id,
		wildcardLevel:  a.WildcardLevel,
		symmetric:      a.Symmetric,
		antisymmetric:  a.Antisymmetric,
		cyclesymmetric: a.Cyclesymmetric,
		linear:         a.Linear,
	}
}

// ============================================================
// Variable Lists and Finite Fields
// ============================================================

// DefineVariableList registers a variable-ordering list and returns its
// identifier. An identical existing list is reused.
func (t *SymbolTable) DefineVariableList(vars []Symbol) uint64 {
	for i, l := range t.varLists {
		if slices.Equal(l, vars) {
			return uint64(i)
		}
	}
	owned := make([]Symbol, len(vars))
	copy(owned, vars)
	t.varLists = append(t.varLists, owned)
	return uint64(len(t.varLists) - 1)
}

// VariableList returns the list registered under id.
func (t *SymbolTable) VariableList(id uint64) ([]Symbol, bool) {
	if id >= uint64(len(t.varLists)) {
		return nil, false
	}
	return t.varLists[id], true
}

// DefineFiniteField registers a finite-field modulus and returns its
// identifier. An existing modulus is reused.
func (t *SymbolTable) DefineFiniteField(modulus uint64) uint64 {
	for i, m := range t.fields {
		if m == modulus {
			return uint64(i)
		}
	}
	t.fields = append(t.fields, modulus)
	return uint64(len(t.fields) - 1)
}

// FiniteFieldModulus returns the modulus registered under id.
func (t *SymbolTable) FiniteFieldModulus(id uint64) (uint64, bool) {
	if id >= uint64(len(t.fields)) {
		return 0, false
	}
	return t.fields[id], true
}
