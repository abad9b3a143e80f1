package mscore

import "testing"

func TestSlurNumbersByID(t *testing.T) {
	s := newSlurNumbers()

	if got := s.numberFor("a"); got != 1 {
		t.Errorf("numberFor(a) = %d, want 1", got)
	}
	if got := s.numberFor("b"); got != 2 {
		t.Errorf("numberFor(b) = %d, want 2", got)
	}
	// repeated references, including identifier reuse for a later slur,
	// keep resolving to the first binding
	if got := s.numberFor("a"); got != 1 {
		t.Errorf("numberFor(a) again = %d, want 1", got)
	}
	if got := s.numberFor("c"); got != 3 {
		t.Errorf("numberFor(c) = %d, want 3", got)
	}
}

func TestSlurNumbersStack(t *testing.T) {
	s := newSlurNumbers()

	first := s.push()
	second := s.push()
	if first != 1 || second != 2 {
		t.Fatalf("push() = %d, %d, want 1, 2", first, second)
	}

	if n, ok := s.pop(); !ok || n != 2 {
		t.Errorf("pop() = %d, %v, want 2, true (most recently opened closes)", n, ok)
	}
	if n, ok := s.pop(); !ok || n != 1 {
		t.Errorf("pop() = %d, %v, want 1, true", n, ok)
	}

	// a stop with nothing open still yields a usable number
	if n, ok := s.pop(); ok || n != 3 {
		t.Errorf("pop() on empty = %d, %v, want 3, false", n, ok)
	}
}

func TestSlurNumbersSharedCounter(t *testing.T) {
	s := newSlurNumbers()

	if got := s.numberFor("x"); got != 1 {
		t.Errorf("numberFor(x) = %d, want 1", got)
	}
	if got := s.push(); got != 2 {
		t.Errorf("push() = %d, want 2 (identifier table and stack share the counter)", got)
	}
}
