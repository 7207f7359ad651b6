package watch

import (
	"sync"
	"time"
)

// debouncer implements spec.md §4.10's per-workspace debounce window: a
// tumbling (not sliding) window — window_start is only reset once the
// group is flushed, unlike the teacher's eventDebouncer, which resets its
// quiet-period timer on every event. The tumbling shape is what the spec
// names explicitly ("reset window_start = now" happens on flush, not on
// append), so a workspace under constant event pressure still flushes at
// a bounded cadence instead of starving the reader indefinitely.
type debouncer struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	debounce time.Duration
	maxBatch int
	onFlush  func(group []string)
}

func newDebouncer(debounce time.Duration, maxBatch int, onFlush func([]string)) *debouncer {
	return &debouncer{
		pending:  make(map[string]struct{}),
		debounce: debounce,
		maxBatch: maxBatch,
		onFlush:  onFlush,
	}
}

// addEvent appends path to the current group, starting the window's
// timer on the group's first event. A group that reaches maxBatch events
// force-flushes immediately rather than waiting out the rest of the
// window, per the watch.MaxBatchEvents cap.
func (d *debouncer) addEvent(path string) {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.timer = time.AfterFunc(d.debounce, d.flush)
	}
	d.pending[path] = struct{}{}
	forceFlush := len(d.pending) >= d.maxBatch
	d.mu.Unlock()

	if forceFlush {
		d.flush()
	}
}

func (d *debouncer) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	group := make([]string, 0, len(d.pending))
	for p := range d.pending {
		group = append(group, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	d.onFlush(group)
}

// stop discards any pending group without flushing it. Mirrors the
// teacher's eventDebouncer.run shutdown comment: flushing on shutdown can
// race with whatever is tearing the workspace down, and losing an
// in-flight batch at shutdown is acceptable.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]struct{})
}
