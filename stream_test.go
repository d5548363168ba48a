package atom

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Frame Tests
// ============================================================

func TestFrameRoundTrip(t *testing.T) {
	_, x, y, _ := testSymbols(t)
	original := buildPolynomial(x, y)

	var buf bytes.Buffer
	if err := original.AsView().Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	decoded := NewAtom()
	if err := decoded.Read(&buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !decoded.AsView().Equal(original.AsView()) {
		t.Error("frame round trip changed the encoding")
	}
}

func TestReadRejectsBadTag(t *testing.T) {
	frame := []byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 0x07} // tag 7 is unassigned
	err := NewAtom().Read(bytes.NewReader(frame))
	if !errors.Is(err, ErrBadTag) {
		t.Errorf("err = %v, want ErrBadTag", err)
	}
}

func TestReadTruncatedFrame(t *testing.T) {
	_, x, _, _ := testSymbols(t)
	var buf bytes.Buffer
	if err := NewVar(x).AsView().Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-1]
	if err := NewAtom().Read(bytes.NewReader(truncated)); err == nil {
		t.Error("expected an error on a truncated frame")
	}
}

func TestReadReusesBuffer(t *testing.T) {
	_, x, y, _ := testSymbols(t)

	var big bytes.Buffer
	if err := buildPolynomial(x, y).AsView().Write(&big); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var small bytes.Buffer
	if err := NewVar(x).AsView().Write(&small); err != nil {
		t.Fatalf("Write: %v", err)
	}

	a := NewAtom()
	if err := a.Read(&big); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	capBefore := cap(a.data)
	if err := a.Read(&small); err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if cap(a.data) != capBefore {
		t.Errorf("smaller frame reallocated: cap %d -> %d", capBefore, cap(a.data))
	}
}

func TestReadKeepsBufferOnError(t *testing.T) {
	_, x, y, _ := testSymbols(t)

	var buf bytes.Buffer
	if err := buildPolynomial(x, y).AsView().Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	a := NewAtom()
	if err := a.Read(&buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	capBefore := cap(a.data)
	if capBefore == 0 {
		t.Fatal("successful read left no capacity to check")
	}

	if err := a.Read(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an error on an empty stream")
	}
	if !a.IsZero() {
		t.Error("failed read left the atom non-zero")
	}
	if cap(a.data) != capBefore {
		t.Errorf("failed read dropped the buffer: cap %d -> %d", capBefore, cap(a.data))
	}
}

// ============================================================
// Export / Import Tests
// ============================================================

func TestExportImportFreshTable(t *testing.T) {
	tab, x, y, _ := testSymbols(t)
	original := buildPolynomial(x, y)

	var buf bytes.Buffer
	if err := original.AsView().Export(&buf, tab); err != nil {
		t.Fatalf("Export: %v", err)
	}

	// The fresh table interns the carried symbols under the same ids, so
	// the import reproduces the encoding byte for byte.
	fresh := NewSymbolTable()
	got, err := Import(&buf, fresh, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !got.AsView().Equal(original.AsView()) {
		t.Error("import into a fresh table changed the encoding")
	}

	s, ok := fresh.Lookup("x")
	if !ok || s != x {
		t.Errorf("carried symbol x = (%+v, %v), want (%+v, true)", s, ok, x)
	}
}

func TestImportIntoSameTableIsIdentity(t *testing.T) {
	tab, x, y, _ := testSymbols(t)
	original := buildPolynomial(x, y)

	var buf bytes.Buffer
	if err := original.AsView().Export(&buf, tab); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := Import(&buf, tab, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !got.AsView().Equal(original.AsView()) {
		t.Error("re-import into the exporting table is not byte-identical")
	}
}

func TestImportRenamesShiftedSymbols(t *testing.T) {
	src := NewSymbolTable()
	x := src.MustIntern("x", SymbolAttributes{})
	expr := NewVar(x)

	var buf bytes.Buffer
	if err := expr.AsView().Export(&buf, src); err != nil {
		t.Fatalf("Export: %v", err)
	}

	// The destination already holds other symbols, so x lands on a
	// different id and the expression must be rewritten.
	dst := NewSymbolTable()
	dst.MustIntern("a", SymbolAttributes{})
	dst.MustIntern("b", SymbolAttributes{})

	got, err := Import(&buf, dst, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want, _ := dst.Lookup("x")
	if sym := got.AsView().AsVar().Symbol(); sym != want {
		t.Errorf("imported symbol = %+v, want %+v", sym, want)
	}
	if want.ID() == x.ID() {
		t.Fatal("test did not force an id shift")
	}
}

func TestImportConflictLocalWins(t *testing.T) {
	src := NewSymbolTable()
	f := src.MustIntern("f", SymbolAttributes{Symmetric: true})
	fn := NewFun(f)
	one := NewInlineNum(1, 1)
	fn.AddArg(one.AsView())

	var buf bytes.Buffer
	if err := fn.AsView().Export(&buf, src); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := NewSymbolTable()
	local := dst.MustIntern("f", SymbolAttributes{Linear: true})

	got, err := Import(&buf, dst, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	sym := got.AsView().AsFun().Symbol()
	if sym != local {
		t.Errorf("imported function symbol = %+v, want local %+v", sym, local)
	}
	if dst.Len() != 1 {
		t.Errorf("table grew to %d symbols, want 1", dst.Len())
	}
}

func TestImportConflictRename(t *testing.T) {
	src := NewSymbolTable()
	f := src.MustIntern("f", SymbolAttributes{Symmetric: true})
	fn := NewFun(f)
	one := NewInlineNum(1, 1)
	fn.AddArg(one.AsView())

	var buf bytes.Buffer
	if err := fn.AsView().Export(&buf, src); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := NewSymbolTable()
	dst.MustIntern("f", SymbolAttributes{Linear: true})

	got, err := Import(&buf, dst, func(name string) string { return name + "_1" })
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	renamed, ok := dst.Lookup("f_1")
	if !ok {
		t.Fatal("conflict rename did not intern f_1")
	}
	if !renamed.IsSymmetric() {
		t.Error("renamed symbol lost the incoming attributes")
	}
	if sym := got.AsView().AsFun().Symbol(); sym != renamed {
		t.Errorf("imported function symbol = %+v, want %+v", sym, renamed)
	}
}

func TestImportRenamesFiniteFields(t *testing.T) {
	src := NewSymbolTable()
	srcField := src.DefineFiniteField(17)
	expr := NewNum(NewFiniteField(3, srcField))

	var buf bytes.Buffer
	if err := expr.AsView().Export(&buf, src); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := NewSymbolTable()
	dst.DefineFiniteField(5) // occupies the id 17 held in src

	got, err := Import(&buf, dst, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	_, field := got.AsView().AsNum().Coeff().FiniteField()
	mod, ok := dst.FiniteFieldModulus(field)
	if !ok || mod != 17 {
		t.Errorf("imported coefficient field %d has modulus (%d, %v), want (17, true)", field, mod, ok)
	}
}

func TestImportRenamesVariableLists(t *testing.T) {
	src := NewSymbolTable()
	x := src.MustIntern("x", SymbolAttributes{})
	y := src.MustIntern("y", SymbolAttributes{})
	srcList := src.DefineVariableList([]Symbol{x, y})
	blob := []byte{1, 2, 3}
	expr := NewNum(NewRationalPolynomial(srcList, blob))

	var buf bytes.Buffer
	if err := expr.AsView().Export(&buf, src); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := NewSymbolTable()
	z := dst.MustIntern("z", SymbolAttributes{})
	dst.DefineVariableList([]Symbol{z}) // occupies list id 0

	got, err := Import(&buf, dst, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	list, gotBlob := got.AsView().AsNum().Coeff().RationalPolynomial()
	if !bytes.Equal(gotBlob, blob) {
		t.Errorf("blob = %v, want %v", gotBlob, blob)
	}
	members, ok := dst.VariableList(list)
	if !ok || len(members) != 2 {
		t.Fatalf("imported list %d = (%v, %v)", list, members, ok)
	}
	wantX, _ := dst.Lookup("x")
	wantY, _ := dst.Lookup("y")
	if members[0] != wantX || members[1] != wantY {
		t.Errorf("list members = %v, want [%+v %+v]", members, wantX, wantY)
	}
}

func TestImportSumsMultipleExpressions(t *testing.T) {
	tab, x, y, _ := testSymbols(t)

	var buf bytes.Buffer
	if err := Export(&buf, tab, NewVar(x).AsView(), NewVar(y).AsView()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := Import(&buf, tab, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got.Kind() != KindAdd {
		t.Fatalf("Kind = %s, want add", got.Kind())
	}
	if n := got.AsView().AsAdd().NArgs(); n != 2 {
		t.Errorf("NArgs = %d, want 2", n)
	}
}

func TestImportEmptyStream(t *testing.T) {
	tab := NewSymbolTable()
	var buf bytes.Buffer
	if err := Export(&buf, tab); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := Import(&buf, tab, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Kind = %s, want zero", got.Kind())
	}
}

// ============================================================
// Rename Tests
// ============================================================

func TestRenameIdentityIsVerbatim(t *testing.T) {
	_, x, y, _ := testSymbols(t)
	original := buildPolynomial(x, y)

	got := original.AsView().Rename(NewStateMap(), nil)
	if !got.AsView().Equal(original.AsView()) {
		t.Error("identity rename changed the encoding")
	}
}

func TestRenameRewritesDeepSubtrees(t *testing.T) {
	tab, x, y, f := testSymbols(t)
	z := tab.MustIntern("z", SymbolAttributes{})

	// f(x, y^x) with x mapped to z: both occurrences must move, including
	// the one inside the power.
	fn := NewFun(f)
	fn.AddArg(NewVar(x).AsView())
	pow := NewPow(NewVar(y).AsView(), NewVar(x).AsView())
	fn.AddArg(pow.AsView())

	sm := NewStateMap()
	sm.MapSymbol(x.ID(), z)

	got := fn.AsView().Rename(sm, NewWorkspace())
	args := got.AsView().AsFun().Slice()
	if sym := args.Get(0).AsVar().Symbol(); sym != z {
		t.Errorf("first argument = %+v, want %+v", sym, z)
	}
	_, exp := args.Get(1).AsPow().BaseExp()
	if sym := exp.AsVar().Symbol(); sym != z {
		t.Errorf("exponent = %+v, want %+v", sym, z)
	}
}

func TestRenameLeavesUntouchedSiblingsVerbatim(t *testing.T) {
	tab, x, y, _ := testSymbols(t)
	z := tab.MustIntern("z", SymbolAttributes{})

	untouched := NewPow(NewVar(y).AsView(), NewNum(NewInteger(2)).AsView())
	sum := NewAdd()
	sum.Extend(NewVar(x).AsView())
	sum.Extend(untouched.AsView())

	sm := NewStateMap()
	sm.MapSymbol(x.ID(), z)

	got := sum.AsView().Rename(sm, nil)
	if !got.AsView().AsAdd().Slice().Get(1).Equal(untouched.AsView()) {
		t.Error("sibling without renamed symbols was rewritten")
	}
}

func TestRenameKeepsMulCoefficientFlag(t *testing.T) {
	tab, x, _, _ := testSymbols(t)
	z := tab.MustIntern("z", SymbolAttributes{})

	m := NewMul()
	m.Extend(NewVar(x).AsView())
	m.Extend(NewNum(NewInteger(3)).AsView())
	m.SetHasCoefficient(true)

	sm := NewStateMap()
	sm.MapSymbol(x.ID(), z)

	got := m.AsView().Rename(sm, nil)
	mv := got.AsView().AsMul()
	if !mv.HasCoefficient() {
		t.Error("rename dropped the product coefficient flag")
	}
	if sym := mv.Slice().Get(0).AsVar().Symbol(); sym != z {
		t.Errorf("first factor = %+v, want %+v", sym, z)
	}
}

func TestImportWithMap(t *testing.T) {
	tab, x, _, _ := testSymbols(t)
	z := tab.MustIntern("z", SymbolAttributes{})

	var buf bytes.Buffer
	if err := NewVar(x).AsView().Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	sm := NewStateMap()
	sm.MapSymbol(x.ID(), z)
	got, err := ImportWithMap(&buf, sm, NewWorkspace())
	if err != nil {
		t.Fatalf("ImportWithMap: %v", err)
	}
	if sym := got.AsView().AsVar().Symbol(); sym != z {
		t.Errorf("Symbol = %+v, want %+v", sym, z)
	}
}

// ============================================================
// Compressed Stream Tests
// ============================================================

func TestCompressedRoundTrip(t *testing.T) {
	tab, x, y, _ := testSymbols(t)
	original := buildPolynomial(x, y)

	var buf bytes.Buffer
	if err := ExportCompressed(&buf, tab, original.AsView()); err != nil {
		t.Fatalf("ExportCompressed: %v", err)
	}
	got, err := ImportCompressed(&buf, tab, nil)
	if err != nil {
		t.Fatalf("ImportCompressed: %v", err)
	}
	if !got.AsView().Equal(original.AsView()) {
		t.Error("compressed round trip changed the encoding")
	}
}
