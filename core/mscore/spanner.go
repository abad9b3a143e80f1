package mscore

// slurNumbers assigns output slur numbers and pairs native spanner
// references back to them. Numbers are handed out sequentially starting
// at 1 and never reused, so a number identifies one slur for the whole
// document.
//
// The two schema generations pair slurs differently. The legacy
// generation tags start and stop references with a shared identifier;
// bindings last the whole document, so an identifier recycled for a
// later slur keeps resolving to its original number. The modern
// generation carries no identifiers at all; a stop closes the most
// recently opened slur, tracked by the open stack. Overlapping anonymous
// slurs therefore mis-pair; accepted as the cost of the common case.
type slurNumbers struct {
	next int
	byID map[string]int
	open []int
}

func newSlurNumbers() *slurNumbers {
	return &slurNumbers{next: 1, byID: make(map[string]int)}
}

func (s *slurNumbers) alloc() int {
	n := s.next
	s.next++
	return n
}

// numberFor returns the number bound to a legacy identifier, binding the
// next counter value on first sight.
func (s *slurNumbers) numberFor(id string) int {
	if n, ok := s.byID[id]; ok {
		return n
	}
	n := s.alloc()
	s.byID[id] = n
	return n
}

// push opens an anonymous slur and returns its number.
func (s *slurNumbers) push() int {
	n := s.alloc()
	s.open = append(s.open, n)
	return n
}

// pop closes the most recently opened anonymous slur. With nothing open
// it allocates a fresh number so the stop still renders.
func (s *slurNumbers) pop() (int, bool) {
	if len(s.open) == 0 {
		return s.alloc(), false
	}
	n := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	return n, true
}
