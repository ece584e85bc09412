package domain

import "testing"

func TestPaginationState_Advance(t *testing.T) {
	p := NewPaginationState(0, 0)
	if p.Limit != 20 || p.Cap != 100 {
		t.Fatalf("defaults not applied: %+v", p)
	}

	for i := 0; i < 5; i++ {
		if !p.CanFetch() {
			t.Fatalf("page %d should be fetchable", i)
		}
		p.Advance()
	}
	if p.CanFetch() || !p.Exhausted() {
		t.Errorf("expected exhausted after 5 pages: %+v", p)
	}
	p.Advance()
	if p.Offset != 100 {
		t.Errorf("offset must stay clamped at cap, got %d", p.Offset)
	}
}

func TestPaginationState_UnevenCap(t *testing.T) {
	p := NewPaginationState(20, 50)
	p.Advance()
	p.Advance()
	if got := p.NextLimit(); got != 10 {
		t.Errorf("expected final page of 10, got %d", got)
	}
	p.Advance()
	if p.Offset != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset)
	}
}

func TestPaginationState_InFlightBlocks(t *testing.T) {
	p := NewPaginationState(20, 100)
	p.InFlight = true
	if p.CanFetch() {
		t.Error("in-flight state must not allow a fetch")
	}
}
