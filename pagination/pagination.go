// Package pagination computes the view-model for pagination controls: the
// window of page numbers to display around the current page and the state
// of the prev/next buttons. It is a pure function of its inputs so that
// rendering can be tested without any widget code.
package pagination

// DefaultMaxButtons is the width of the visible page-number window.
const DefaultMaxButtons = 7

// Window describes the pagination controls for one result page.
type Window struct {
	PageCount        int
	VisiblePages     []int
	ShowFirst        bool // direct link to page 1 before the window
	ShowLast         bool // direct link to the last page after the window
	LeadingEllipsis  bool
	TrailingEllipsis bool
	PrevDisabled     bool
	NextDisabled     bool
}

// ComputeWindow returns the window of visible page numbers for the given
// total record count, current page and page size. maxButtons <= 0 falls
// back to DefaultMaxButtons. The window is centered on page and shifted to
// stay within [1, pageCount] near either edge.
func ComputeWindow(total int64, page, limit, maxButtons int) Window {
	if limit < 1 {
		limit = 1
	}
	if maxButtons <= 0 {
		maxButtons = DefaultMaxButtons
	}

	pageCount := int((total + int64(limit) - 1) / int64(limit))
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}

	start := page - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > pageCount {
		end = pageCount
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}

	visible := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		visible = append(visible, p)
	}

	return Window{
		PageCount:        pageCount,
		VisiblePages:     visible,
		ShowFirst:        start > 1,
		ShowLast:         end < pageCount,
		LeadingEllipsis:  start > 2,
		TrailingEllipsis: end < pageCount-1,
		PrevDisabled:     page <= 1,
		NextDisabled:     page >= pageCount,
	}
}
