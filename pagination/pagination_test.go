package pagination

import (
	"testing"
)

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestComputeWindow_MiddlePage(t *testing.T) {
	w := ComputeWindow(100, 5, 10, 7)

	if w.PageCount != 10 {
		t.Errorf("PageCount = %d, want 10", w.PageCount)
	}
	if !equalInts(w.VisiblePages, []int{2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("VisiblePages = %v, want [2..8]", w.VisiblePages)
	}
	if !w.ShowFirst || !w.ShowLast {
		t.Error("first and last page links should be shown")
	}
	if !w.TrailingEllipsis {
		t.Error("trailing ellipsis should be shown")
	}
	// window starts at 2: a direct "1" link suffices, no gap to elide
	if w.LeadingEllipsis {
		t.Error("leading ellipsis should not be shown when the window starts at 2")
	}
	if w.PrevDisabled || w.NextDisabled {
		t.Error("neither prev nor next should be disabled")
	}
}

func TestComputeWindow_SinglePage(t *testing.T) {
	w := ComputeWindow(3, 1, 10, 7)

	if w.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", w.PageCount)
	}
	if !equalInts(w.VisiblePages, []int{1}) {
		t.Errorf("VisiblePages = %v, want [1]", w.VisiblePages)
	}
	if !w.PrevDisabled {
		t.Error("PrevDisabled should be true on page 1")
	}
	if !w.NextDisabled {
		t.Error("NextDisabled should be true on the last page")
	}
	if w.ShowFirst || w.ShowLast || w.LeadingEllipsis || w.TrailingEllipsis {
		t.Error("no extra links or ellipses for a single page")
	}
}

func TestComputeWindow_Edges(t *testing.T) {
	tests := []struct {
		name             string
		total            int64
		page, limit      int
		wantPages        []int
		wantPrevDisabled bool
		wantNextDisabled bool
		wantLeading      bool
		wantTrailing     bool
	}{
		{"first page", 100, 1, 10, []int{1, 2, 3, 4, 5, 6, 7}, true, false, false, true},
		{"last page", 100, 10, 10, []int{4, 5, 6, 7, 8, 9, 10}, false, true, true, false},
		{"near start", 100, 3, 10, []int{1, 2, 3, 4, 5, 6, 7}, false, false, false, true},
		{"near end", 100, 8, 10, []int{4, 5, 6, 7, 8, 9, 10}, false, false, true, false},
		{"deep middle", 200, 10, 10, []int{7, 8, 9, 10, 11, 12, 13}, false, false, true, true},
		{"empty", 0, 1, 10, []int{1}, true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.total, tt.page, tt.limit, 7)
			if !equalInts(w.VisiblePages, tt.wantPages) {
				t.Errorf("VisiblePages = %v, want %v", w.VisiblePages, tt.wantPages)
			}
			if w.PrevDisabled != tt.wantPrevDisabled {
				t.Errorf("PrevDisabled = %v, want %v", w.PrevDisabled, tt.wantPrevDisabled)
			}
			if w.NextDisabled != tt.wantNextDisabled {
				t.Errorf("NextDisabled = %v, want %v", w.NextDisabled, tt.wantNextDisabled)
			}
			if w.LeadingEllipsis != tt.wantLeading {
				t.Errorf("LeadingEllipsis = %v, want %v", w.LeadingEllipsis, tt.wantLeading)
			}
			if w.TrailingEllipsis != tt.wantTrailing {
				t.Errorf("TrailingEllipsis = %v, want %v", w.TrailingEllipsis, tt.wantTrailing)
			}
		})
	}
}

func TestComputeWindow_Stable(t *testing.T) {
	a := ComputeWindow(57, 4, 5, 7)
	b := ComputeWindow(57, 4, 5, 7)

	if a.PageCount != b.PageCount || !equalInts(a.VisiblePages, b.VisiblePages) {
		t.Error("same inputs should yield the same window")
	}
}

func TestComputeWindow_Defaults(t *testing.T) {
	// non-positive maxButtons and limit fall back to sane values
	w := ComputeWindow(100, 1, 0, 0)
	if w.PageCount != 100 {
		t.Errorf("PageCount = %d, want 100 (limit coerced to 1)", w.PageCount)
	}
	if len(w.VisiblePages) != DefaultMaxButtons {
		t.Errorf("len(VisiblePages) = %d, want %d", len(w.VisiblePages), DefaultMaxButtons)
	}

	// window width never exceeds maxButtons
	for pages := 1; pages <= 12; pages++ {
		for page := 1; page <= pages; page++ {
			w := ComputeWindow(int64(pages*10), page, 10, 7)
			if len(w.VisiblePages) > 7 {
				t.Fatalf("window too wide at pages=%d page=%d: %v", pages, page, w.VisiblePages)
			}
		}
	}
}
