package engine

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"eartrainer/internal/models"
)

const attemptWriterBuffer = 64

type attemptRecord struct {
	sequenceID uuid.UUID
	descriptor models.AttemptDescriptor
}

// attemptWriter persists descriptors on a background goroutine so a slow or
// failing store never blocks the input loop. Records are dropped, with a log
// line, when the buffer is full or a write fails.
type attemptWriter struct {
	store     AttemptStore
	ch        chan attemptRecord
	done      chan struct{}
	closeOnce sync.Once
}

func newAttemptWriter(store AttemptStore, buffer int) *attemptWriter {
	w := &attemptWriter{
		store: store,
		ch:    make(chan attemptRecord, buffer),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *attemptWriter) enqueue(sequenceID uuid.UUID, d models.AttemptDescriptor) {
	select {
	case w.ch <- attemptRecord{sequenceID: sequenceID, descriptor: d}:
	default:
		log.Printf("Attempt writer backlog full; dropping descriptor for note %d", d.NoteIndex)
	}
}

func (w *attemptWriter) loop() {
	for rec := range w.ch {
		if err := w.store.Insert(rec.sequenceID, rec.descriptor); err != nil {
			log.Printf("Persisting attempt failed: %v", err)
		}
	}
	close(w.done)
}

// Close drains queued records and stops the goroutine. Safe to call more
// than once.
func (w *attemptWriter) Close() {
	w.closeOnce.Do(func() { close(w.ch) })
	<-w.done
}
