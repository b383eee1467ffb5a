package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

const defaultSaveTimeout = 10 * time.Second

type persistJob struct {
	version int64
	ledger  ledger.Ledger
}

// Persister writes ledger snapshots in the background, one Save per
// Enqueue, in the order they were enqueued. Callers never wait for the
// write; failures are logged and the snapshot is not retried. A later
// snapshot supersedes it anyway.
type Persister struct {
	repo    storage.Repository
	logger  *log.Logger
	timeout time.Duration
	// warnAt is the backlog length at which a slow repository is reported.
	warnAt int

	mu      sync.Mutex
	cond    *sync.Cond
	pending []persistJob
	closed  bool
	done    chan struct{}
}

// NewPersister starts the writer goroutine. The backlog is unbounded so
// Enqueue never blocks; every time it grows by backlogWarn snapshots a
// warning is logged.
func NewPersister(repo storage.Repository, backlogWarn int, logger *log.Logger) *Persister {
	if backlogWarn < 1 {
		backlogWarn = 1
	}
	p := &Persister{
		repo:    repo,
		logger:  logger.WithComponent(log.ComponentStorage),
		timeout: defaultSaveTimeout,
		warnAt:  backlogWarn,
		done:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Enqueue hands a snapshot to the writer and returns immediately. It is a
// no-op after Close.
func (p *Persister) Enqueue(version int64, l ledger.Ledger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("Snapshot dropped, persister closed", log.FieldVersion, version)
		return
	}
	p.pending = append(p.pending, persistJob{version: version, ledger: l})
	if n := len(p.pending); n%p.warnAt == 0 {
		p.logger.Warn("Snapshot backlog growing, storage is slow", log.FieldVersion, version, "pending", n)
	}
	p.cond.Signal()
}

// Pending reports how many snapshots wait to be written.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		p.save(job)
	}
}

// next waits for the oldest pending snapshot. ok is false once the
// persister is closed and drained.
func (p *Persister) next() (persistJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.pending) == 0 {
		return persistJob{}, false
	}
	job := p.pending[0]
	p.pending[0] = persistJob{}
	p.pending = p.pending[1:]
	return job, true
}

func (p *Persister) save(job persistJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	if err := p.repo.Save(ctx, job.ledger); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpSave).
			WithVersion(job.version).
			WithError(err)
		p.logger.Error("Failed to persist ledger snapshot", fields.ToSlice()...)
		return
	}
	p.logger.Debug("Ledger snapshot persisted",
		log.FieldVersion, job.version,
		log.FieldRecordCount, len(job.ledger.Records),
		log.FieldDuration, time.Since(start).Milliseconds())
}

// Close waits for pending snapshots to be written, then closes the
// repository. If ctx ends first the repository is left open.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return fmt.Errorf("drain persister: %w", ctx.Err())
	}
	if err := p.repo.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	return nil
}
