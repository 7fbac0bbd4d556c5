// Package audittrail implements the asynchronous audit recorder.
// Appends are fire-and-forget: the mutation a record describes is already
// applied by the time Record is called, and a failed append is logged,
// never propagated back to the operation that triggered it.
package audittrail

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/audit"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/shared"
	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
	"github.com/iqc-hub/iqc-community-bot/pkg/logger"
)

const (
	queueSize    = 256
	writeTimeout = 5 * time.Second
)

// Entry is the caller-facing shape of one audit append.
type Entry struct {
	UserID  user.TelegramID
	Action  string
	AdminID string
	Delta   int
	Reason  string
	Origin  string
}

// Recorder buffers audit records and writes them from a background
// worker. When the queue is full the record is dropped and logged -
// a slow audit store must never stall the points economy.
type Recorder struct {
	repo  audit.Repository
	clock shared.Clock
	log   *logger.Logger

	queue chan *audit.Record
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewRecorder creates a recorder writing to the given repository.
func NewRecorder(repo audit.Repository, clock shared.Clock, log *logger.Logger) *Recorder {
	return &Recorder{
		repo:  repo,
		clock: clock,
		log:   log.With(logger.Component("audittrail")),
		queue: make(chan *audit.Record, queueSize),
	}
}

// Start launches the background writer. Safe to call once.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.wg.Add(1)
	go r.run()
}

// Stop drains the queue and waits for the writer to finish.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	// Closing under the mutex keeps Record from sending on a closed
	// channel: producers hold the same lock across their enqueue.
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

// Record enqueues one audit entry. Never blocks: if the queue is full
// the entry is dropped with a log line.
func (r *Recorder) Record(e Entry) {
	rec := &audit.Record{
		ID:        uuid.New().String(),
		UserID:    e.UserID,
		Action:    e.Action,
		AdminID:   e.AdminID,
		Delta:     e.Delta,
		Reason:    e.Reason,
		Origin:    e.Origin,
		Timestamp: r.clock.Now(),
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.writeOne(rec)
		return
	}

	// The non-blocking send happens under the mutex so Stop cannot close
	// the queue between the stopped check and the enqueue.
	var dropped bool
	select {
	case r.queue <- rec:
	default:
		dropped = true
	}
	r.mu.Unlock()

	if dropped {
		r.log.Warn("audit queue full, dropping record",
			logger.UserID(string(e.UserID)),
			logger.Action(e.Action),
		)
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for rec := range r.queue {
		r.writeOne(rec)
	}
}

func (r *Recorder) writeOne(rec *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Append(ctx, rec); err != nil {
		r.log.Error("failed to append audit record",
			logger.UserID(string(rec.UserID)),
			logger.Action(rec.Action),
			logger.Err(err),
		)
	}
}
