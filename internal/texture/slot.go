package texture

import "sync"

// Slot owns at most one texture at a time. Storing a new texture releases
// the one it replaces, and Release frees whatever the slot holds.
type Slot struct {
	mu  sync.Mutex
	cur *Texture
}

// Swap stores t and releases the previous texture. Storing the texture the
// slot already holds is a no-op.
func (s *Slot) Swap(t *Texture) {
	s.mu.Lock()
	prev := s.cur
	s.cur = t
	s.mu.Unlock()
	if prev != t {
		prev.Release()
	}
}

// Current returns the texture held by the slot, or nil.
func (s *Slot) Current() *Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// With calls fn with the current texture while holding the slot, so the
// texture cannot be released underneath it.
func (s *Slot) With(fn func(*Texture) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cur)
}

// Release frees the held texture and empties the slot.
func (s *Slot) Release() {
	s.Swap(nil)
}
