//go:build unix

package core

import "testing"

// TestSwitchHistory_Recent verifies the ring keeps the newest records
// Given: A history of capacity 3
// When: 5 records are added
// Then: Recent returns the last 3, newest first
func TestSwitchHistory_Recent(t *testing.T) {
	// Arrange
	h := newSwitchHistory(3)

	// Act
	for i := 1; i <= 5; i++ {
		h.Add(SwitchRecord{TotalQuanta: i})
	}

	// Assert
	got := h.Recent(0)
	if len(got) != 3 {
		t.Fatalf("len(Recent) = %d, want 3", len(got))
	}
	for i, want := range []int{5, 4, 3} {
		if got[i].TotalQuanta != want {
			t.Errorf("Recent[%d].TotalQuanta = %d, want %d", i, got[i].TotalQuanta, want)
		}
	}
	if limited := h.Recent(1); len(limited) != 1 || limited[0].TotalQuanta != 5 {
		t.Errorf("Recent(1) = %+v, want quantum 5", limited)
	}
	if last, ok := h.Last(); !ok || last.TotalQuanta != 5 {
		t.Errorf("Last() = %+v, %v, want quantum 5", last, ok)
	}
}

func TestSwitchHistory_Empty(t *testing.T) {
	h := newSwitchHistory(0)
	if got := h.Recent(10); got != nil {
		t.Errorf("Recent on empty = %v, want nil", got)
	}
	if _, ok := h.Last(); ok {
		t.Errorf("Last on empty = ok")
	}
}
