package action

// History is a fixed-capacity FIFO of recent values.
// When full, pushing a new value evicts the oldest one.
type History struct {
	values []float64
	start  int
	count  int
}

// NewHistory creates an empty History holding at most size values.
// A size below 1 is treated as 1.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{values: make([]float64, size)}
}

// Push appends a value, evicting the oldest if the history is full.
func (h *History) Push(v float64) {
	size := len(h.values)
	if h.count < size {
		h.values[(h.start+h.count)%size] = v
		h.count++
		return
	}
	h.values[h.start] = v
	h.start = (h.start + 1) % size
}

// Any reports whether any stored value satisfies pred.
func (h *History) Any(pred func(float64) bool) bool {
	for i := 0; i < h.count; i++ {
		if pred(h.values[(h.start+i)%len(h.values)]) {
			return true
		}
	}
	return false
}

// Values returns the stored values, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.count)
	for i := range out {
		out[i] = h.values[(h.start+i)%len(h.values)]
	}
	return out
}

// Len returns the number of stored values.
func (h *History) Len() int {
	return h.count
}

// Cap returns the maximum number of stored values.
func (h *History) Cap() int {
	return len(h.values)
}

// Clear removes all values.
func (h *History) Clear() {
	h.start = 0
	h.count = 0
}
