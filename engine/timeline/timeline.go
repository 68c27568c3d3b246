package timeline

import "sort"

// epsilon absorbs float accumulation error so a timer due at exactly t fires on the
// frame that reaches t.
const epsilon = 1e-6

// TimerID identifies a scheduled callback. The zero value is never issued.
type TimerID uint64

type pending struct {
	id  TimerID
	due float64
	fn  func()
}

// timeline is the implementation of the Timeline interface.
type timeline struct {
	now     float64
	nextID  TimerID
	pending []pending
}

// Timeline is a cooperative clock advanced by frame deltas. Callbacks run synchronously
// inside Advance on the caller's goroutine, so they may touch frame-owned state without
// locking. A Timeline is not safe for concurrent use.
type Timeline interface {
	// Now returns the accumulated time in seconds.
	Now() float64

	// After schedules fn to run once the timeline has advanced d seconds past Now.
	//
	// Parameters:
	//   - d: the delay in seconds; values <= 0 fire on the next Advance
	//   - fn: the callback
	//
	// Returns:
	//   - TimerID: handle for Cancel
	After(d float64, fn func()) TimerID

	// Cancel removes a scheduled callback. Cancelling a fired or unknown ID is a no-op.
	//
	// Parameters:
	//   - id: the timer to cancel
	//
	// Returns:
	//   - bool: true if a pending callback was removed
	Cancel(id TimerID) bool

	// Pending reports whether id is still scheduled.
	Pending(id TimerID) bool

	// Advance moves time forward by dt seconds and runs every callback that became due,
	// in due order. Callbacks scheduled by a callback for a time already reached run in
	// the same Advance.
	//
	// Parameters:
	//   - dt: the frame delta in seconds; negative values are treated as zero
	Advance(dt float64)

	// Len returns the number of scheduled callbacks.
	Len() int

	// Clear cancels every scheduled callback.
	Clear()
}

var _ Timeline = &timeline{}

// New creates an empty Timeline at time zero.
//
// Returns:
//   - Timeline: the timeline
func New() Timeline {
	return &timeline{}
}

func (t *timeline) Now() float64 {
	return t.now
}

func (t *timeline) After(d float64, fn func()) TimerID {
	t.nextID++
	p := pending{id: t.nextID, due: t.now + max(d, 0), fn: fn}

	// keep sorted by due time, FIFO among equal deadlines
	i := sort.Search(len(t.pending), func(i int) bool { return t.pending[i].due > p.due })
	t.pending = append(t.pending, pending{})
	copy(t.pending[i+1:], t.pending[i:])
	t.pending[i] = p
	return p.id
}

func (t *timeline) Cancel(id TimerID) bool {
	for i, p := range t.pending {
		if p.id == id {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (t *timeline) Pending(id TimerID) bool {
	for _, p := range t.pending {
		if p.id == id {
			return true
		}
	}
	return false
}

func (t *timeline) Advance(dt float64) {
	t.now += max(dt, 0)
	for len(t.pending) > 0 && t.pending[0].due <= t.now+epsilon {
		p := t.pending[0]
		t.pending = t.pending[1:]
		p.fn()
	}
}

func (t *timeline) Len() int {
	return len(t.pending)
}

func (t *timeline) Clear() {
	t.pending = nil
}
