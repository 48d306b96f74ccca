package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

// SemesterWriter persists a full semester sheet. applied is false when the
// stored sheet is already newer than updatedAt.
type SemesterWriter interface {
	ReplaceRows(ctx context.Context, studentID, number int, rows semester.Rows, updatedAt time.Time) (applied bool, err error)
}

// PersistQueue is the Redis list the planner feeds with persist jobs.
type PersistQueue interface {
	PopPersist(ctx context.Context, timeout time.Duration) (raw string, ok bool, err error)
	RequeuePersist(ctx context.Context, raw string) error
}

// SemesterPersistWorker consumes persist_semesters_queue and writes each
// semester sheet to PostgreSQL.
type SemesterPersistWorker struct {
	store      SemesterWriter
	queue      PersistQueue
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewSemesterPersistWorker creates a new SemesterPersistWorker.
func NewSemesterPersistWorker(store SemesterWriter, queue PersistQueue, log zerolog.Logger) *SemesterPersistWorker {
	return &SemesterPersistWorker{
		store:      store,
		queue:      queue,
		retryDelay: 5 * time.Second,
		log:        log.With().Str("component", "semester_persist_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SemesterPersistWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SemesterPersistWorker) processNext(ctx context.Context) {
	// Blocks until an item is available or the 1s timeout.
	raw, ok, err := w.queue.PopPersist(ctx, time.Second)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Queue pop error")
		}
		return
	}
	if !ok {
		return
	}

	if err := w.handle(ctx, raw); err != nil {
		// Back to the head so a newer snapshot queued behind it is not
		// overwritten by this one later.
		w.requeue(raw)
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle persists one queued job. A malformed job is dropped and reported
// as handled; only store failures are returned for retry.
func (w *SemesterPersistWorker) handle(ctx context.Context, raw string) error {
	var job model.SemesterPersistJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping job")
		return nil
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = time.Now()
	}

	applied, err := w.store.ReplaceRows(ctx, job.StudentID, job.Number, job.Rows.Normalize(), job.UpdatedAt)
	if err != nil {
		w.log.Error().Err(err).
			Int("student_id", job.StudentID).
			Int("semester", job.Number).
			Msg("Persist error, retrying")
		return err
	}
	if !applied {
		w.log.Debug().
			Int("student_id", job.StudentID).
			Int("semester", job.Number).
			Time("updated_at", job.UpdatedAt).
			Msg("Stale snapshot skipped")
	}
	return nil
}

func (w *SemesterPersistWorker) requeue(raw string) {
	if err := w.queue.RequeuePersist(context.Background(), raw); err != nil {
		w.log.Error().Err(err).Msg("Requeue error, job lost")
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *SemesterPersistWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, ok, err := w.queue.PopPersist(ctx, 0)
		if err != nil || !ok {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.requeue(raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
