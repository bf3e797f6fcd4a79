// Package worker drains the pending-routes queue: each worker polls a trip
// request, optimizes it and persists the outcome before acknowledging the
// message.
package worker

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"wayfarer/pkg/routing"
)

// idleDelay is how long a worker backs off when the queue is drained.
const idleDelay = 2 * time.Second

// Queue is the scheduler surface a worker consumes.
type Queue interface {
	PollTripRequest(ctx context.Context) (*routing.TripRequest, error)
	CompleteTrip(ctx context.Context, meta routing.Metadata) error
	DiscardTrip(ctx context.Context, meta routing.Metadata) error
}

// Optimizer solves a trip within its region.
type Optimizer interface {
	OptimizeTrip(ctx context.Context, trip routing.Trip, region string) (*routing.OptimizedTrip, error)
}

// Results records optimization outcomes.
type Results interface {
	SaveReady(ctx context.Context, req *routing.TripRequest, trip *routing.OptimizedTrip) error
	SaveFailed(ctx context.Context, req *routing.TripRequest, cause error) error
}

// Pool runs a fixed set of workers until its context is canceled.
type Pool struct {
	queue     Queue
	optimizer Optimizer
	results   Results
	size      int
	idle      time.Duration
}

// NewPool sizes the pool at NumCPU times the configured concurrency factor.
func NewPool(queue Queue, optimizer Optimizer, results Results, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		queue:     queue,
		optimizer: optimizer,
		results:   results,
		size:      runtime.NumCPU() * concurrency,
		idle:      idleDelay,
	}
}

// Run starts the workers and blocks until the context is canceled and every
// worker has drained its in-flight request.
func (p *Pool) Run(ctx context.Context) {
	slog.Info("worker pool starting", "workers", p.size)
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}
	wg.Wait()
	slog.Info("worker pool stopped")
}

func (p *Pool) work(ctx context.Context, id int) {
	log := slog.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, err := p.queue.PollTripRequest(ctx)
		if err != nil {
			log.Error("polling queue", "error", err)
			p.sleep(ctx)
			continue
		}
		if req == nil {
			p.sleep(ctx)
			continue
		}
		p.process(ctx, log, req)
	}
}

// process settles one request. Whatever happens, the message is acknowledged
// exactly once: a failed optimization is recorded as failed and the message
// discarded, never redelivered.
func (p *Pool) process(ctx context.Context, log *slog.Logger, req *routing.TripRequest) {
	log = log.With("id", req.Meta.ID, "region", req.Meta.Region)

	optimized, err := p.optimizer.OptimizeTrip(ctx, req.Trip, req.Meta.Region)
	if err != nil {
		log.Warn("optimization failed", "error", err)
		if serr := p.results.SaveFailed(ctx, req, err); serr != nil {
			log.Error("recording failed trip", "error", serr)
		}
		if derr := p.queue.DiscardTrip(ctx, req.Meta); derr != nil {
			log.Error("discarding trip", "error", derr)
		}
		return
	}

	if err := p.results.SaveReady(ctx, req, optimized); err != nil {
		log.Error("recording optimized trip", "error", err)
		if serr := p.results.SaveFailed(ctx, req, err); serr != nil {
			log.Error("recording failed trip", "error", serr)
		}
		if derr := p.queue.DiscardTrip(ctx, req.Meta); derr != nil {
			log.Error("discarding trip", "error", derr)
		}
		return
	}

	if err := p.queue.CompleteTrip(ctx, req.Meta); err != nil {
		log.Error("completing trip", "error", err)
		return
	}
	log.Info("trip optimized", "waypoints", len(optimized.Waypoints))
}

func (p *Pool) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.idle):
	}
}
