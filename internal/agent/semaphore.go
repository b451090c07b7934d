package agent

// Semaphore bounds concurrent tool dispatch within one loop iteration.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with n slots.
func NewSemaphore(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free.
func (s *Semaphore) Acquire() {
	s.slots <- struct{}{}
}

// Release frees a slot.
func (s *Semaphore) Release() {
	<-s.slots
}
