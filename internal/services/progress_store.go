package services

import (
	"fmt"
	"sync"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

// ProgressListener receives the state after every mutation that changed it.
type ProgressListener func(state models.ProgressState)

type subscription struct {
	id       int
	listener ProgressListener
}

type delivery struct {
	version   uint64
	state     models.ProgressState
	listeners []ProgressListener
}

// ProgressStore holds one user's position in the onboarding funnel. All
// methods are safe for concurrent use. Listeners are called after the state
// lock is released, so they may read and mutate the store. A mutation made
// while listeners are running is delivered by the goroutine already
// delivering, once the current round of listeners returns. Under concurrent
// writers a listener may skip an intermediate state, but it never sees an
// older state after a newer one.
type ProgressStore struct {
	mu        sync.Mutex
	state     models.ProgressState
	version   uint64
	listeners []subscription
	nextID    int

	notifyMu   sync.Mutex
	queue      []delivery
	delivering bool
	delivered  uint64
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{state: models.NewProgressState()}
}

func (s *ProgressStore) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentStep
}

func (s *ProgressStore) TotalSteps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalSteps
}

func (s *ProgressStore) IsCompleted(id models.StepID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Completion[id]
}

// SetCurrentStep moves the displayed screen pointer. Completion is untouched.
func (s *ProgressStore) SetCurrentStep(step int) error {
	s.mu.Lock()
	if step < 1 || step > s.state.TotalSteps {
		total := s.state.TotalSteps
		s.mu.Unlock()
		return fmt.Errorf("%w: %d not in 1..%d", models.ErrInvalidStep, step, total)
	}
	if s.state.CurrentStep == step {
		s.mu.Unlock()
		return nil
	}
	s.state.CurrentStep = step
	s.notifyLocked()
	return nil
}

// CompleteStep marks a stage as confirmed. The current step does not move.
func (s *ProgressStore) CompleteStep(id models.StepID) error {
	if !id.IsValid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownStepID, id)
	}
	s.mu.Lock()
	if s.state.Completion[id] {
		s.mu.Unlock()
		return nil
	}
	s.state.Completion[id] = true
	s.notifyLocked()
	return nil
}

func (s *ProgressStore) ResetProgress() {
	s.mu.Lock()
	fresh := models.NewProgressState()
	if s.state.Equal(fresh) {
		s.mu.Unlock()
		return
	}
	s.state = fresh
	s.notifyLocked()
}

func (s *ProgressStore) ProgressFraction() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.state.CurrentStep) / float64(s.state.TotalSteps)
}

func (s *ProgressStore) Snapshot() models.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Restore installs a previously taken snapshot. An invalid state is rejected
// with ErrCorruptState and the store keeps its current contents.
func (s *ProgressStore) Restore(state models.ProgressState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	installed := state.Clone()

	s.mu.Lock()
	if s.state.Equal(installed) {
		s.mu.Unlock()
		return nil
	}
	s.state = installed
	s.notifyLocked()
	return nil
}

// Subscribe registers a listener and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (s *ProgressStore) Subscribe(listener ProgressListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, listener: listener})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// notifyLocked must be called with s.mu held; it releases the lock before
// invoking listeners.
func (s *ProgressStore) notifyLocked() {
	listeners := make([]ProgressListener, len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.listener
	}
	s.version++
	next := delivery{version: s.version, state: s.state.Clone(), listeners: listeners}
	s.mu.Unlock()

	s.notifyMu.Lock()
	s.queue = append(s.queue, next)
	if s.delivering {
		s.notifyMu.Unlock()
		return
	}
	s.delivering = true
	defer func() {
		s.delivering = false
		s.notifyMu.Unlock()
	}()

	for len(s.queue) > 0 {
		d := s.queue[0]
		s.queue = s.queue[1:]
		if d.version <= s.delivered {
			continue
		}
		s.delivered = d.version

		s.deliver(d)
	}
}

// deliver runs one round of listeners with s.notifyMu released and takes it
// back before returning, even if a listener panics.
func (s *ProgressStore) deliver(d delivery) {
	s.notifyMu.Unlock()
	defer s.notifyMu.Lock()
	for _, listener := range d.listeners {
		listener(d.state.Clone())
	}
}
