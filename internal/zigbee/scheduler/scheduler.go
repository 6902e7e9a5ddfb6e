// Package scheduler implements the single outstanding-request table
// keyed by a rolling 8-bit transaction id (C4).
package scheduler

import (
	"context"
	"sync"
	"time"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
)

// Transmitter is the narrow slice of the adapter contract the
// scheduler needs: hand a Request to the wire, report whether it was
// accepted synchronously.
type Transmitter interface {
	Transmit(ctx context.Context, req *model.Request) error
}

// Scheduler owns the id->Request table and the periodic tick that
// drains it. It never mutates Device/Endpoint state itself; Finished
// handling is left to whoever enqueued the request, via the
// OnFinished callback.
type Scheduler struct {
	mu       sync.Mutex
	requests map[byte]*model.Request
	nextID   byte

	transmitter Transmitter
	log         logger.Logger

	onFinished func(req *model.Request)

	tickInterval time.Duration
	stop         chan struct{}
}

// New builds a Scheduler. tickInterval matches the source's request
// tick timer; onFinished is invoked once per request at the moment it
// reaches Finished or Aborted. The entry itself is removed by the
// removal pass at the end of the next tick (the same tick, for a
// request that tick aborts).
func New(transmitter Transmitter, log logger.Logger, tickInterval time.Duration, onFinished func(req *model.Request)) *Scheduler {
	return &Scheduler{
		requests:     make(map[byte]*model.Request),
		transmitter:  transmitter,
		log:          log,
		onFinished:   onFinished,
		tickInterval: tickInterval,
	}
}

// Run drives the periodic tick until ctx is cancelled. The engine
// starts it as its own goroutine. Enqueue, Finish, Abort and the tick
// all guard the table with mu, so they may be called from other
// goroutines while Run is active.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// allocateID returns a free-running u8 id, skipping any value still
// present in the table with status Pending or Sent. This makes the
// transaction-id reuse policy explicit rather than silently colliding
// after 256 in-flight requests.
func (s *Scheduler) allocateID() byte {
	for i := 0; i < 256; i++ {
		id := s.nextID
		s.nextID++
		if existing, ok := s.requests[id]; !ok || existing.Status == model.RequestFinished || existing.Status == model.RequestAborted {
			return id
		}
	}
	// Every id is in flight; fall back to the next rolling value and
	// let the prior entry be logically superseded, per the documented
	// worst case.
	id := s.nextID
	s.nextID++
	return id
}

// Enqueue allocates a transaction id, installs a Pending Request of
// the given kind for device carrying payload, and returns that
// Request.
func (s *Scheduler) Enqueue(kind model.RequestKind, device model.IEEEAddress, payload interface{}) *model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocateID()
	req := &model.Request{
		ID:      id,
		Kind:    kind,
		Device:  device,
		Status:  model.RequestPending,
		Payload: payload,
	}
	s.requests[id] = req
	return req
}

// tick transmits every Pending request and removes every Finished or
// Aborted one.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	pending := make([]*model.Request, 0, len(s.requests))
	for _, req := range s.requests {
		if req.Status == model.RequestPending {
			pending = append(pending, req)
		}
	}
	s.mu.Unlock()

	for _, req := range pending {
		if err := s.transmitter.Transmit(ctx, req); err != nil {
			s.log.Warn("request %d (kind %v) refused by adapter: %v", req.ID, req.Kind, err)
			s.finishLocked(req, model.RequestAborted)
			continue
		}
		s.mu.Lock()
		req.Status = model.RequestSent
		s.mu.Unlock()
	}

	s.mu.Lock()
	for id, req := range s.requests {
		if req.Status == model.RequestFinished || req.Status == model.RequestAborted {
			delete(s.requests, id)
		}
	}
	s.mu.Unlock()
}

// Finish transitions the request with id, if present, to status and
// invokes the onFinished callback. Called from the core engine's
// event loop when the adapter signals RequestFinished(id, status) for
// Binding/Data/Remove requests.
func (s *Scheduler) Finish(id byte, status byte) {
	s.mu.Lock()
	req, ok := s.requests[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	if status != 0 {
		s.log.Warn("request %d finished with non-zero status %d", id, status)
	}
	s.finishLocked(req, model.RequestFinished)
}

// Abort transitions the request with id to Aborted without a
// RequestFinished callback ever having arrived. Nothing in the core
// calls it at present; adapter refusals are aborted by tick itself.
func (s *Scheduler) Abort(id byte) {
	s.mu.Lock()
	req, ok := s.requests[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	s.finishLocked(req, model.RequestAborted)
}

func (s *Scheduler) finishLocked(req *model.Request, status model.RequestStatus) {
	s.mu.Lock()
	req.Status = status
	s.mu.Unlock()

	if s.onFinished != nil {
		s.onFinished(req)
	}
}

// Lookup returns the request with id, or nil. Nothing in the core
// calls it at present.
func (s *Scheduler) Lookup(id byte) *model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

// Len reports how many requests remain in the table, for tests
// asserting the one-tick drain invariant.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Close stops the scheduler's internal bookkeeping channel, if any
// goroutine beyond Run was started against it. Present for symmetry
// with other components' lifecycle methods.
func (s *Scheduler) Close() {
	if s.stop != nil {
		close(s.stop)
	}
}
