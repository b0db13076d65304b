// Package window implements the per-sensor sliding window every RPM keeps
// one of per (motor, sensor) pair: an ordered run of recent readings, aged
// out lazily on read rather than on a background timer.
package window

// entry is a single (timestamp, reading) pair retained inside a window.
type entry struct {
	timestamp float64
	reading   float64
}

// SlidingWindow retains samples seen within the last windowSizeMs, measured
// in the same unit as the timestamps passed to Append and Average (the RPMs
// pass seconds, converting from the configured milliseconds). Entries are
// appended in non-decreasing timestamp order (the
// order sensors actually emit in) and evicted lazily: Average is the only
// place eviction happens, so a window that is never queried never pays for
// eviction.
type SlidingWindow struct {
	windowSizeMs float64
	entries      []entry
}

// New returns an empty window retaining windowSizeMs worth of data, in the
// unit of the timestamps it will be given.
func New(windowSizeMs float64) *SlidingWindow {
	return &SlidingWindow{windowSizeMs: windowSizeMs}
}

// Append records a new reading. Callers are expected to append in
// timestamp order, matching how a single sensor stream is consumed.
func (w *SlidingWindow) Append(timestamp float64, reading float32) {
	w.entries = append(w.entries, entry{timestamp: timestamp, reading: float64(reading)})
}

// Average evicts everything older than now - windowSizeMs and returns the
// mean of what remains, how many entries contributed, and the timestamp of
// the youngest surviving entry (the value an alert built from this average
// reports as its own time). ok is false if the window is empty after
// eviction -- "no datum available" per the spec this window backs.
func (w *SlidingWindow) Average(now float64) (avg float64, n int, maxTs float64, ok bool) {
	w.evict(now)
	if len(w.entries) == 0 {
		return 0, 0, 0, false
	}
	var sum float64
	for _, e := range w.entries {
		sum += e.reading
		if e.timestamp > maxTs {
			maxTs = e.timestamp
		}
	}
	return sum / float64(len(w.entries)), len(w.entries), maxTs, true
}

// Len reports the number of retained entries as of the last eviction; it
// does not itself evict, so it can be cheaply polled by callers that only
// want an approximate fill level (e.g. "is the window full yet").
func (w *SlidingWindow) Len() int {
	return len(w.entries)
}

// Reset discards all retained entries, used after an alert fires.
func (w *SlidingWindow) Reset() {
	w.entries = w.entries[:0]
}

func (w *SlidingWindow) evict(now float64) {
	cutoff := now - w.windowSizeMs
	i := 0
	for i < len(w.entries) && w.entries[i].timestamp < cutoff {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}
