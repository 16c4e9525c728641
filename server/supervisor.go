// Package server is the connection supervisor: spec.md §5's "cooperative
// single-threaded tasks multiplexed on a worker pool", adapted from the
// teacher's parser.WorkerPool (Task/Submit/Start/Stop, atomic counters)
// from a bounded work queue of parse jobs into an accept loop of
// long-lived connection tasks bounded by a concurrency semaphore.
package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/logger"
)

// ConnHandler drives one accepted connection to completion. It must
// return once the connection closes, and should check ctx periodically
// between requests so Shutdown can drain gracefully (spec.md §5:
// "existing connections finish their current query and receive a final
// close").
type ConnHandler func(ctx context.Context, conn net.Conn) error

// Metrics mirrors the teacher's WorkerMetrics shape, generalized from
// parse-task counts to connection counts.
type Metrics struct {
	Accepted int64
	Active   int64
	Failed   int64
}

// Supervisor accepts connections on one listener, running each through
// handler while enforcing a configurable concurrency cap: accepts beyond
// the cap wait for a slot rather than being rejected, per spec.md §5.
type Supervisor struct {
	listener net.Listener
	handler  ConnHandler
	log      *logger.Logger

	sem  chan struct{}
	wg   sync.WaitGroup
	done chan struct{}

	accepted int64
	active   int64
	failed   int64
}

// NewSupervisor wraps listener with a handler and a concurrency cap
// (spec.md §5: "sized by configuration, default around 10").
func NewSupervisor(listener net.Listener, maxConns int, handler ConnHandler, log *logger.Logger) *Supervisor {
	if maxConns <= 0 {
		maxConns = 10
	}
	return &Supervisor{
		listener: listener,
		handler:  handler,
		log:      log,
		sem:      make(chan struct{}, maxConns),
		done:     make(chan struct{}),
	}
}

// Serve runs the accept loop until the listener is closed (via Shutdown)
// or ctx is cancelled. It always returns nil on an orderly shutdown; any
// other Accept failure is reported as an IOError.
func (s *Supervisor) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return nil
			}
			return flaterr.New(flaterr.ErrTypeIO, "accepting connection", err)
		}

		select {
		case s.sem <- struct{}{}:
		case <-s.done:
			conn.Close()
			return nil
		}

		atomic.AddInt64(&s.accepted, 1)
		atomic.AddInt64(&s.active, 1)
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Supervisor) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		<-s.sem
		atomic.AddInt64(&s.active, -1)
	}()
	defer conn.Close()

	if err := s.handler(ctx, conn); err != nil {
		atomic.AddInt64(&s.failed, 1)
		s.log.Warn("connection handler returned an error", map[string]interface{}{
			"remote_addr": conn.RemoteAddr().String(),
			"error":       err.Error(),
		})
	}
}

// Shutdown stops accepting new connections and waits for in-flight ones
// to finish (bounded by ctx), matching spec.md §5's drain semantics.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	close(s.done)
	if err := s.listener.Close(); err != nil {
		return flaterr.New(flaterr.ErrTypeIO, "closing listener", err)
	}

	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a point-in-time copy of the supervisor's connection
// counters for the monitoring package to sample.
func (s *Supervisor) Snapshot() Metrics {
	return Metrics{
		Accepted: atomic.LoadInt64(&s.accepted),
		Active:   atomic.LoadInt64(&s.active),
		Failed:   atomic.LoadInt64(&s.failed),
	}
}
