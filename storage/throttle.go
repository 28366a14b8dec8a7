package storage

import (
	"sort"
	"sync"
	"time"
)

// globalSlot is the only slot used in ThrottleGlobal mode
const globalSlot = ""

// throttle is a trailing-edge rate limiter for writes. The first write to an
// idle slot arms a timer; later writes to the same slot replace its pending
// arguments; when the timer fires, one write with the latest arguments is
// performed. In ThrottlePerKey mode every key has its own slot, while in
// ThrottleGlobal mode all keys share one.
type throttle struct {
	window time.Duration
	mode   ThrottleMode
	write  func(key, value string)

	// writeMu serializes physical writes so a flush can never reorder a
	// newer value ahead of an older one for the same key.
	writeMu sync.Mutex
	mu      sync.Mutex
	slots   map[string]*slot
	stopped bool
}

type slot struct {
	key   string
	value string
	timer *time.Timer
}

func newThrottle(window time.Duration, mode ThrottleMode, write func(key, value string)) *throttle {
	if mode == "" {
		mode = ThrottlePerKey
	}
	return &throttle{
		window: window,
		mode:   mode,
		write:  write,
		slots:  make(map[string]*slot),
	}
}

func (t *throttle) slotID(key string) string {
	if t.mode == ThrottleGlobal {
		return globalSlot
	}
	return key
}

// schedule queues a write of value to key. It returns false if the throttle
// has been stopped and the write was dropped.
func (t *throttle) schedule(key, value string) bool {
	if t.window <= 0 {
		// stop sets stopped before it flushes under writeMu, so checking
		// after taking writeMu means we never write to a closed medium.
		t.writeMu.Lock()
		defer t.writeMu.Unlock()
		t.mu.Lock()
		stopped := t.stopped
		t.mu.Unlock()
		if stopped {
			return false
		}
		t.write(key, value)
		return true
	}

	id := t.slotID(key)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	if s, ok := t.slots[id]; ok {
		s.key, s.value = key, value
		return true
	}
	s := &slot{key: key, value: value}
	t.slots[id] = s
	s.timer = time.AfterFunc(t.window, func() { t.fire(id, s) })
	return true
}

func (t *throttle) fire(id string, s *slot) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	// The slot may already have been flushed or cancelled
	if t.slots[id] != s {
		t.mu.Unlock()
		return
	}
	delete(t.slots, id)
	key, value := s.key, s.value
	t.mu.Unlock()

	t.write(key, value)
}

// flush performs every pending write immediately, in key order.
func (t *throttle) flush() {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for _, s := range t.take(func(*slot) bool { return true }) {
		t.write(s.key, s.value)
	}
}

// take removes and disarms the slots matching match and returns them sorted by
// key.
func (t *throttle) take(match func(*slot) bool) []*slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	var taken []*slot
	for id, s := range t.slots {
		if !match(s) {
			continue
		}
		s.timer.Stop()
		delete(t.slots, id)
		taken = append(taken, s)
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i].key < taken[j].key })
	return taken
}

// cancel drops the pending writes for which match returns true, then runs fn
// while no write can be in progress. Local uses this so a removal can't be
// undone by a write that was queued before it.
func (t *throttle) cancel(match func(key string) bool, fn func() error) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.take(func(s *slot) bool { return match(s.key) })
	return fn()
}

// pending returns the number of armed slots
func (t *throttle) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// stop flushes pending writes and rejects any new ones.
func (t *throttle) stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.flush()
}
