package projection

import "testing"

func TestSelection(t *testing.T) {
	s := NewSelection()
	k1 := RowKey{MessageID: "m-1", Start: 0, End: 5}
	k2 := RowKey{MessageID: "m-1", Start: 5, End: 9}

	s.Mark(k1)
	if !s.Marked(k1) || s.Marked(k2) || s.Len() != 1 {
		t.Fatalf("mark: %v", s.Keys())
	}
	if on := s.Toggle(k2); !on {
		t.Fatal("toggle on")
	}
	if on := s.Toggle(k1); on {
		t.Fatal("toggle off")
	}
	s.Unmark(k2)
	if s.Len() != 0 {
		t.Fatalf("len: %d", s.Len())
	}
	s.Mark(k1)
	s.Clear()
	if s.Len() != 0 {
		t.Fatal("clear")
	}
}

func TestRowKeySurvivesRecompute(t *testing.T) {
	r1 := Row{MessageID: "m-1", Start: 1, End: 2}
	r2 := Row{MessageID: "m-1", Start: 1, End: 2, Text: "different value, same identity"}
	if r1.Key() != r2.Key() {
		t.Fatal("row keys must be value identities")
	}
}
