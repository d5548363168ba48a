package atom

import "github.com/zeebo/blake3"

// ContentHash returns a 32-byte BLAKE3 digest of the node encoding. Equal
// encodings hash equal, so for normalized expressions the hash is a
// content fingerprint usable as a cache or dedup key. Symbol ids are part
// of the encoding; hashes are only comparable within one symbol table or
// after renaming through a shared StateMap.
func (v AtomView) ContentHash() [32]byte {
	return blake3.Sum256(v.data)
}

// ContentHash returns the digest of the atom's canonical encoding. Zero
// atoms hash as the canonical number zero.
func (a *Atom) ContentHash() [32]byte {
	return a.AsView().ContentHash()
}
