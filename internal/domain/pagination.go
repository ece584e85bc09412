package domain

const (
	DefaultPageSize = 20
	DefaultMaxItems = 100
)

// PaginationState tracks incremental catalog loading.
// Offset never exceeds Cap; no fetch starts while InFlight or Offset >= Cap.
type PaginationState struct {
	Limit    int  `json:"limit"`
	Offset   int  `json:"offset"`
	Cap      int  `json:"cap"`
	InFlight bool `json:"in_flight"`
}

// NewPaginationState returns a state at offset 0. Non-positive values fall
// back to the defaults.
func NewPaginationState(limit, limitCap int) PaginationState {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limitCap <= 0 {
		limitCap = DefaultMaxItems
	}
	return PaginationState{Limit: limit, Cap: limitCap}
}

// CanFetch reports whether a new page request may start.
func (p PaginationState) CanFetch() bool {
	return !p.InFlight && p.Offset < p.Cap
}

// Exhausted reports whether the cap has been reached.
func (p PaginationState) Exhausted() bool {
	return p.Offset >= p.Cap
}

// NextLimit is the item count to request for the next page.
func (p PaginationState) NextLimit() int {
	return min(p.Limit, p.Cap-p.Offset)
}

// Advance moves the offset forward by one page, clamped at Cap.
func (p *PaginationState) Advance() {
	p.Offset = min(p.Offset+p.Limit, p.Cap)
}
