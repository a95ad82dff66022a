package pool

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/PrioStream/pkg/logging"
)

// Handler runs one connection to completion. A returned error ends only that
// connection; the worker stays available.
type Handler interface {
	Serve(conn net.Conn, log *logrus.Entry) error
}

type worker struct {
	id      int
	jobs    chan net.Conn
	handler Handler
}

// Pool is a fixed set of workers fed by a single dispatcher. The dispatcher only
// accepts the next connection once a worker is idle, so at most Size sessions
// run at once and further clients wait in the listen backlog.
type Pool struct {
	workers []*worker
	idle    chan int
	wg      sync.WaitGroup
	once    sync.Once

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
}

// New starts size workers; newHandler is called once per worker so each owns
// its own handler state.
func New(size int, newHandler func(id int) Handler) *Pool {
	p := &Pool{
		workers: make([]*worker, size),
		idle:    make(chan int, size),
		conns:   make(map[net.Conn]struct{}),
	}
	for id := 0; id < size; id++ {
		w := &worker{
			id:      id,
			jobs:    make(chan net.Conn, 1),
			handler: newHandler(id),
		}
		p.workers[id] = w
		p.wg.Add(1)
		go p.run(w)
	}
	return p
}

func (p *Pool) Size() int {
	return len(p.workers)
}

func (p *Pool) run(w *worker) {
	defer p.wg.Done()

	p.idle <- w.id
	for conn := range w.jobs {
		log := logging.Log.WithFields(logrus.Fields{
			"worker":  w.id,
			"session": uuid.New().String(),
			"remote":  conn.RemoteAddr().String(),
		})
		log.Infof("🤝 [worker %d] client `%s` connected", w.id, conn.RemoteAddr())

		if !p.track(conn) {
			conn.Close()
			log.Info("🛑 Dropped client, pool is shutting down")
			p.idle <- w.id
			continue
		}
		err := w.handler.Serve(conn, log)
		p.untrack(conn)
		conn.Close()
		switch {
		case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			log.Info("🔌 Client disconnected")
		default:
			log.WithError(err).Error("❌ Failed to handle connection")
		}

		p.idle <- w.id
	}
}

// Serve accepts connections from ln and hands each to the next idle worker. It
// returns when ctx is done or the listener is closed.
func (p *Pool) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Log.WithError(err).Error("❌ Failed to retrieve incoming stream")
			continue
		}

		var id int
		select {
		case id = <-p.idle:
		case <-ctx.Done():
			conn.Close()
			return nil
		}
		p.workers[id].jobs <- conn
	}
}

func (p *Pool) track(conn net.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closing {
		return false
	}
	p.conns[conn] = struct{}{}
	return true
}

func (p *Pool) untrack(conn net.Conn) {
	p.mu.Lock()
	delete(p.conns, conn)
	p.mu.Unlock()
}

// Shutdown closes every in-flight connection, stops the workers and waits for
// them. Sessions blocked on their client return with net.ErrClosed.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closing = true
		for conn := range p.conns {
			conn.Close()
		}
		p.mu.Unlock()

		for _, w := range p.workers {
			close(w.jobs)
		}
	})
	p.wg.Wait()
}
