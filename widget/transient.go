package widget

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// transient runs one delayed effect at a time under the owner's lock.
// Scheduling again, or stopping, cancels the pending effect; a callback that
// already fired but lost the race for the lock sees a newer seq and does
// nothing.
type transient struct {
	clock  clock.Clock
	locker sync.Locker
	timer  *clock.Timer
	seq    uint64
}

func newTransient(c clock.Clock, l sync.Locker) transient {
	return transient{clock: c, locker: l}
}

// schedule must be called with the owner's lock held.
func (t *transient) schedule(d time.Duration, fn func()) {
	t.stop()
	seq := t.seq
	t.timer = t.clock.AfterFunc(d, func() {
		t.locker.Lock()
		defer t.locker.Unlock()
		if t.seq != seq {
			return
		}
		t.timer = nil
		fn()
	})
}

// stop must be called with the owner's lock held.
func (t *transient) stop() {
	t.seq++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *transient) pending() bool {
	return t.timer != nil
}
