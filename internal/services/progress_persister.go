package services

import (
	"log"
	"sync"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

type ProgressSaver interface {
	Save(key string, state models.ProgressState) error
}

// ProgressPersister writes progress snapshots in the background. Snapshots
// queued for the same key before the writer picks them up collapse into the
// last one.
type ProgressPersister struct {
	saver ProgressSaver

	mu      sync.Mutex
	pending map[string]models.ProgressState
	order   []string
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func NewProgressPersister(saver ProgressSaver) *ProgressPersister {
	p := &ProgressPersister{
		saver:   saver,
		pending: make(map[string]models.ProgressState),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.worker()
	return p
}

// Enqueue schedules state to be written under key. It never blocks on I/O.
func (p *ProgressPersister) Enqueue(key string, state models.ProgressState) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Printf("[PERSIST] Dropping write for %s: persister closed", key)
		return
	}
	if _, queued := p.pending[key]; !queued {
		p.order = append(p.order, key)
	}
	p.pending[key] = state.Clone()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	p.mu.Unlock()
}

// Listener returns a ProgressListener that enqueues every change under key.
func (p *ProgressPersister) Listener(key string) ProgressListener {
	return func(state models.ProgressState) {
		p.Enqueue(key, state)
	}
}

// Close stops accepting writes, flushes what is pending and waits for the
// writer to finish.
func (p *ProgressPersister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	close(p.wake)
	p.mu.Unlock()

	<-p.done
}

func (p *ProgressPersister) worker() {
	defer close(p.done)
	for range p.wake {
		p.flush()
	}
	p.flush()
}

func (p *ProgressPersister) flush() {
	p.mu.Lock()
	batch := p.pending
	order := p.order
	p.pending = make(map[string]models.ProgressState)
	p.order = nil
	p.mu.Unlock()

	for _, key := range order {
		if err := p.saver.Save(key, batch[key]); err != nil {
			log.Printf("[PERSIST] Failed to save progress %s: %v", key, err)
		}
	}
}
