package round

import "sync"

// History is a fixed-capacity ring of recent crash records, newest first.
type History struct {
	mu      sync.Mutex
	records []CrashRecord
	cap     int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 50
	}
	return &History{cap: capacity}
}

// Push records a crash as the most recent entry.
func (h *History) Push(rec CrashRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append([]CrashRecord{rec}, h.records...)
	if len(h.records) > h.cap {
		h.records = h.records[:h.cap]
	}
}

// Seed loads records in newest-first order, keeping anything already pushed
// ahead of them.
func (h *History) Seed(records []CrashRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, records...)
	if len(h.records) > h.cap {
		h.records = h.records[:h.cap]
	}
}

// Recent returns up to limit records, newest first.
func (h *History) Recent(limit int) []CrashRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	out := make([]CrashRecord, limit)
	copy(out, h.records[:limit])
	return out
}
