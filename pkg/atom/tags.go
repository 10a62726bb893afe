package atom

// The reactivity tag index maps an opaque string tag to the set of
// atoms registered under it by live subscriptions in this store.
// Entries are refcounted: the same atom registered under the same tag
// by several independent subscriptions appears once, and leaves the set
// only when the last of those subscriptions is released.

// tagAddLocked registers b under tag. The caller must hold s.mu.
func (s *Store) tagAddLocked(tag string, b *atomBase) {
	atoms := s.tags[tag]
	if atoms == nil {
		atoms = make(map[*atomBase]int)
		s.tags[tag] = atoms
	}
	atoms[b]++
}

// tagRemoveLocked drops one registration of b under tag.
// The caller must hold s.mu.
func (s *Store) tagRemoveLocked(tag string, b *atomBase) {
	atoms := s.tags[tag]
	if atoms == nil {
		return
	}
	atoms[b]--
	if atoms[b] <= 0 {
		delete(atoms, b)
	}
	if len(atoms) == 0 {
		delete(s.tags, tag)
	}
}

// TaggedAtoms returns the IDs of atoms currently registered under tag.
// Intended for tooling and tests.
func (s *Store) TaggedAtoms(tag string) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint64, 0, len(s.tags[tag]))
	for b := range s.tags[tag] {
		ids = append(ids, b.id)
	}
	return ids
}
