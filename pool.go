package atom

// ============================================================
// Workspace Buffer Recycling
// ============================================================

// Workspace recycles atom buffers for hot loops that would otherwise
// reallocate on every expression. It is an explicit pool object: pass it
// down to whoever needs scratch space, there is no global instance.
//
// Acquire hands out a cleared Zero atom whose buffer capacity is whatever
// an earlier Release left behind. A workspace is single-threaded like
// everything else in this package; give each worker goroutine its own.
type Workspace struct {
	free []*Atom
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Acquire returns a cleared scratch atom, reusing a released buffer when
// one is available.
func (w *Workspace) Acquire() *Atom {
	if n := len(w.free); n > 0 {
		a := w.free[n-1]
		w.free = w.free[:n-1]
		a.Reset()
		return a
	}
	return NewAtom()
}

// Release returns an atom to the pool. The caller must not use the atom
// or any view derived from it afterwards.
func (w *Workspace) Release(a *Atom) {
	a.Reset()
	w.free = append(w.free, a)
}

// Idle returns the number of pooled atoms currently available.
func (w *Workspace) Idle() int {
	return len(w.free)
}
