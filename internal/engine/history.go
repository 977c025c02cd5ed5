package engine

// HistoryCapacity bounds the results buffer; the oldest snapshot is
// evicted first.
const HistoryCapacity = 1000

// history is a fixed-capacity FIFO ring of result snapshots.
type history struct {
	buf   []*CoupledResults
	start int
	count int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]*CoupledResults, capacity)}
}

func (h *history) Push(r *CoupledResults) {
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = r
		h.count++
		return
	}
	// Full: overwrite the oldest slot.
	h.buf[h.start] = r
	h.start = (h.start + 1) % len(h.buf)
}

func (h *history) Len() int { return h.count }

func (h *history) Latest() *CoupledResults {
	if h.count == 0 {
		return nil
	}
	return h.buf[(h.start+h.count-1)%len(h.buf)]
}

// All returns snapshots oldest first.
func (h *history) All() []*CoupledResults {
	out := make([]*CoupledResults, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

func (h *history) Clear() {
	h.start = 0
	h.count = 0
	for i := range h.buf {
		h.buf[i] = nil
	}
}
