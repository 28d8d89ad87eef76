package system

import (
	"testing"
	"time"
)

func TestClockNowUsesLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("ACDT", 10*3600+1800)
	clk := NewIn(loc)

	before := time.Now().Add(-time.Second)
	got := clk.Now()
	after := time.Now().Add(time.Second)

	if got.Location() != loc {
		t.Fatalf("expected %v location, got %v", loc, got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestClockDefaults(t *testing.T) {
	t.Parallel()

	if got := NewIn(nil).Now().Location(); got != time.UTC {
		t.Fatalf("expected UTC for nil location, got %v", got)
	}
	if got := New().Now().Location(); got != time.Local {
		t.Fatalf("expected local time, got %v", got)
	}
}

func TestClockNowMonotonic(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}

func TestFixed(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 31, 10, 15, 0, 0, time.UTC)
	clk := Fixed(at)
	if !clk.Now().Equal(at) || !clk.Now().Equal(clk.Now()) {
		t.Fatalf("expected fixed instant %v, got %v", at, clk.Now())
	}
}
