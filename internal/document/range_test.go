package document

import "testing"

func TestRangePredicates(t *testing.T) {
	tests := []struct {
		name          string
		a, b          Range
		overlaps      bool
		touches       bool
		containsOther bool
	}{
		{"disjoint", Range{0, 5}, Range{7, 9}, false, false, false},
		{"abutting", Range{0, 5}, Range{5, 9}, false, true, false},
		{"overlapping", Range{0, 5}, Range{3, 9}, true, true, false},
		{"nested", Range{0, 10}, Range{3, 4}, true, true, true},
		{"equal", Range{2, 4}, Range{2, 4}, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.overlaps {
				t.Errorf("Overlaps = %v, want %v", got, tt.overlaps)
			}
			if got := tt.a.Touches(tt.b); got != tt.touches {
				t.Errorf("Touches = %v, want %v", got, tt.touches)
			}
			if got := tt.b.Touches(tt.a); got != tt.touches {
				t.Errorf("Touches is not symmetric")
			}
			if got := tt.a.ContainsRange(tt.b); got != tt.containsOther {
				t.Errorf("ContainsRange = %v, want %v", got, tt.containsOther)
			}
		})
	}
}

func TestRangeIntersectAndValidity(t *testing.T) {
	if !(Range{3, 3}).IsValid() || (Range{4, 3}).IsValid() {
		t.Error("IsValid mismatch")
	}
	if got := (Range{-3, 6}).Intersect(Range{5, 7}); got != (Range{5, 6}) {
		t.Errorf("Intersect = %v", got)
	}
	if got := (Range{0, 4}).Intersect(Range{5, 7}); !got.IsEmpty() {
		t.Errorf("disjoint Intersect should be empty, got %v", got)
	}
}
