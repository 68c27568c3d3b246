package timeline

import (
	"reflect"
	"testing"
)

func TestAdvanceFiresInDueOrder(t *testing.T) {
	tl := New()
	var got []string
	tl.After(0.3, func() { got = append(got, "c") })
	tl.After(0.1, func() { got = append(got, "a") })
	tl.After(0.2, func() { got = append(got, "b") })
	tl.After(0.2, func() { got = append(got, "b2") })

	tl.Advance(0.15)
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("after 0.15: %v", got)
	}
	tl.Advance(0.2)
	if !reflect.DeepEqual(got, []string{"a", "b", "b2", "c"}) {
		t.Fatalf("after 0.35: %v", got)
	}
	if tl.Len() != 0 {
		t.Fatalf("expected empty timeline, got %d", tl.Len())
	}
}

func TestFiresAtExactDeadlineDespiteRounding(t *testing.T) {
	tl := New()
	fired := false
	tl.After(0.3, func() { fired = true })
	for i := 0; i < 3; i++ {
		tl.Advance(0.1)
	}
	if !fired {
		t.Fatalf("timer at 0.3 did not fire after 3 x 0.1 (now=%v)", tl.Now())
	}
}

func TestCancel(t *testing.T) {
	tl := New()
	fired := false
	id := tl.After(0.1, func() { fired = true })
	if !tl.Pending(id) {
		t.Fatalf("expected timer pending")
	}
	if !tl.Cancel(id) || tl.Cancel(id) {
		t.Fatalf("Cancel should succeed once")
	}
	tl.Advance(1)
	if fired || tl.Pending(id) {
		t.Fatalf("cancelled timer fired")
	}
}

func TestCallbackSchedulesAnother(t *testing.T) {
	tl := New()
	var order []int
	tl.After(0.1, func() {
		order = append(order, 1)
		tl.After(0, func() { order = append(order, 2) })
		tl.After(1, func() { order = append(order, 3) })
	})
	tl.Advance(0.5)
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Fatalf("unexpected order %v", order)
	}
	tl.Advance(1)
	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestNegativeDeltaIgnored(t *testing.T) {
	tl := New()
	tl.Advance(1)
	tl.Advance(-5)
	if tl.Now() != 1 {
		t.Fatalf("expected now=1, got %v", tl.Now())
	}
	tl.After(0.5, func() {})
	tl.Clear()
	if tl.Len() != 0 {
		t.Fatalf("Clear left %d timers", tl.Len())
	}
}
