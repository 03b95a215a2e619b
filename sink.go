package htmlbook

// minSinkCapacity is the smallest buffer a Sink allocates.
const minSinkCapacity = 128

// Sink is an io.Writer that accumulates engine output in memory. Its
// capacity at least doubles on each growth, starting from 128 bytes.
//
// A Sink with a limit rejects writes that would grow it past the limit
// with [ErrSinkFull]; nothing of the rejected write is kept.
type Sink struct {
	data  []byte
	limit int
}

// NewSink returns an empty Sink. A limit of zero or less means unlimited.
func NewSink(limit int) *Sink {
	return &Sink{limit: limit}
}

// Write appends p to the sink.
func (s *Sink) Write(p []byte) (int, error) {
	need := len(s.data) + len(p)
	if s.limit > 0 && need > s.limit {
		return 0, ErrSinkFull
	}
	if need > cap(s.data) {
		size := max(minSinkCapacity, cap(s.data))
		for size < need {
			size *= 2
		}
		grown := make([]byte, len(s.data), size)
		copy(grown, s.data)
		s.data = grown
	}
	s.data = append(s.data, p...)
	return len(p), nil
}

// Len returns the number of bytes written so far.
func (s *Sink) Len() int {
	return len(s.data)
}

// Cap returns the current capacity of the sink.
func (s *Sink) Cap() int {
	return cap(s.data)
}

// Drain hands the accumulated bytes over to a Result of exactly Len bytes
// and empties the sink. The sink keeps no reference to them.
func (s *Sink) Drain() *Result {
	n := len(s.data)
	data := s.data[:n:n]
	s.data = nil
	return &Result{data: data}
}

// Release drops the sink's storage. It is safe to call more than once.
func (s *Sink) Release() {
	s.data = nil
}
