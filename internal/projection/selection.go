package projection

// Selection is a derived, identity-keyed set of marked rows. Rows are
// recomputed on every transform, so the selection survives recomputation by
// keying on (message identity, start, end) rather than row references.
type Selection struct {
	keys map[RowKey]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{keys: make(map[RowKey]struct{})}
}

// Mark adds a row to the selection.
func (s *Selection) Mark(key RowKey) {
	s.keys[key] = struct{}{}
}

// Unmark removes a row from the selection.
func (s *Selection) Unmark(key RowKey) {
	delete(s.keys, key)
}

// Toggle flips a row's membership and reports the new state.
func (s *Selection) Toggle(key RowKey) bool {
	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Marked reports whether a row is selected.
func (s *Selection) Marked(key RowKey) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of selected rows.
func (s *Selection) Len() int {
	return len(s.keys)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.keys = make(map[RowKey]struct{})
}

// Keys returns the selected row keys in unspecified order.
func (s *Selection) Keys() []RowKey {
	out := make([]RowKey, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}
