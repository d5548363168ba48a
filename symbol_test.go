package atom

import (
	"errors"
	"testing"
)

// ============================================================
// Symbol Table Tests
// ============================================================

func TestInternAssignsSequentialIDs(t *testing.T) {
	tab := NewSymbolTable()
	for i, name := range []string{"x", "y", "z"} {
		s := tab.MustIntern(name, SymbolAttributes{})
		if s.ID() != uint32(i) {
			t.Errorf("Intern(%q).ID = %d, want %d", name, s.ID(), i)
		}
	}
	if tab.Len() != 3 {
		t.Errorf("Len = %d, want 3", tab.Len())
	}
}

func TestInternIsIdempotent(t *testing.T) {
	tab := NewSymbolTable()
	attr := SymbolAttributes{Symmetric: true, Linear: true}
	first := tab.MustIntern("f", attr)
	second := tab.MustIntern("f", attr)
	if first != second {
		t.Errorf("re-interning returned a different symbol: %+v vs %+v", first, second)
	}
	if tab.Len() != 1 {
		t.Errorf("Len = %d, want 1", tab.Len())
	}
}

func TestInternRejectsRedefinition(t *testing.T) {
	tab := NewSymbolTable()
	tab.MustIntern("f", SymbolAttributes{Symmetric: true})
	_, err := tab.Intern("f", SymbolAttributes{Linear: true})
	if !errors.Is(err, ErrSymbolRedefined) {
		t.Errorf("Intern with different attributes: err = %v, want ErrSymbolRedefined", err)
	}
}

func TestCyclesymmetricClearsPlainFlags(t *testing.T) {
	tab := NewSymbolTable()
	s := tab.MustIntern("g", SymbolAttributes{
		Symmetric:      true,
		Antisymmetric:  true,
		Cyclesymmetric: true,
	})
	if s.IsSymmetric() || s.IsAntisymmetric() {
		t.Error("cyclesymmetric symbol reports plain symmetry flags")
	}
	if !s.IsCyclesymmetric() {
		t.Error("cyclesymmetric flag lost")
	}
}

func TestSymmetricAntisymmetricMeansCyclesymmetric(t *testing.T) {
	// Both plain symmetry flags together have no encoding of their own:
	// that bit combination is what the wire format calls cyclesymmetric.
	// Interning must canonicalize so that the symbol agrees with what a
	// decoded node reports.
	tab := NewSymbolTable()
	s := tab.MustIntern("g", SymbolAttributes{Symmetric: true, Antisymmetric: true})

	if !s.IsCyclesymmetric() {
		t.Error("symmetric+antisymmetric did not canonicalize to cyclesymmetric")
	}
	if s.IsSymmetric() || s.IsAntisymmetric() {
		t.Error("canonicalized symbol still reports plain symmetry flags")
	}
	if got := NewVar(s).View().Symbol(); got != s {
		t.Errorf("var round trip: Symbol = %+v, want %+v", got, s)
	}
	if got := NewFun(s).View().Symbol(); got != s {
		t.Errorf("fun round trip: Symbol = %+v, want %+v", got, s)
	}

	raw := RawSymbol(0, 0, true, true, false, false)
	if !raw.IsCyclesymmetric() || raw.IsSymmetric() || raw.IsAntisymmetric() {
		t.Errorf("RawSymbol did not canonicalize: %+v", raw)
	}
}

func TestLookupAndName(t *testing.T) {
	tab := NewSymbolTable()
	s := tab.MustIntern("mu", SymbolAttributes{WildcardLevel: 1})

	got, ok := tab.Lookup("mu")
	if !ok || got != s {
		t.Errorf("Lookup = (%+v, %v), want (%+v, true)", got, ok, s)
	}
	if _, ok := tab.Lookup("nu"); ok {
		t.Error("Lookup found a name that was never interned")
	}
	if name := tab.Name(s.ID()); name != "mu" {
		t.Errorf("Name(%d) = %q, want %q", s.ID(), name, "mu")
	}
	if _, ok := tab.Symbol(99); ok {
		t.Error("Symbol(99) found an id that was never assigned")
	}
}

func TestDefineVariableListDeduplicates(t *testing.T) {
	tab := NewSymbolTable()
	x := tab.MustIntern("x", SymbolAttributes{})
	y := tab.MustIntern("y", SymbolAttributes{})

	a := tab.DefineVariableList([]Symbol{x, y})
	b := tab.DefineVariableList([]Symbol{x, y})
	c := tab.DefineVariableList([]Symbol{y, x})

	if a != b {
		t.Errorf("identical lists got distinct ids %d and %d", a, b)
	}
	if a == c {
		t.Error("differently ordered lists share an id")
	}

	list, ok := tab.VariableList(a)
	if !ok || len(list) != 2 || list[0] != x || list[1] != y {
		t.Errorf("VariableList(%d) = (%v, %v)", a, list, ok)
	}
}

func TestDefineFiniteFieldDeduplicates(t *testing.T) {
	tab := NewSymbolTable()
	a := tab.DefineFiniteField(17)
	b := tab.DefineFiniteField(17)
	c := tab.DefineFiniteField(19)

	if a != b {
		t.Errorf("identical moduli got distinct ids %d and %d", a, b)
	}
	if a == c {
		t.Error("distinct moduli share an id")
	}
	if mod, ok := tab.FiniteFieldModulus(c); !ok || mod != 19 {
		t.Errorf("FiniteFieldModulus(%d) = (%d, %v), want (19, true)", c, mod, ok)
	}
}
