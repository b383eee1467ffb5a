package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bilancio/internal/amqp"
	"bilancio/internal/ledger"
)

type seqGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func (g *seqGen) Today() string { return "2024-03-15" }

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) messages() []*amqp.LedgerChangedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.LedgerChangedMessage(nil), p.msgs...)
}

// flakyRepository fails Load with a decode error and can fail saves.
type flakyRepository struct {
	mu       sync.Mutex
	loadErr  error
	saveErr  error
	attempts int
	saved    []ledger.Ledger
}

func (r *flakyRepository) Load(context.Context) (ledger.Ledger, error) {
	return ledger.Ledger{}, r.loadErr
}

func (r *flakyRepository) Save(_ context.Context, l ledger.Ledger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, l)
	return nil
}

func (r *flakyRepository) Close() error { return nil }

var errDisk = errors.New("disk full")
