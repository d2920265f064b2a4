package eventlog

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
)

// DefaultBuffer is the number of events a Sink holds before dropping.
const DefaultBuffer = 4096

// Sink is a crafting.EventSink that hands events to a Writer on its own
// goroutine. Record never blocks; when the buffer is full the event is
// dropped and counted.
type Sink struct {
	w      *Writer
	logger *slog.Logger
	events chan crafting.Event

	dropped   atomic.Int64
	closeOnce sync.Once
	done      chan struct{}
	closeErr  error
}

var _ crafting.EventSink = (*Sink)(nil)

// NewSink starts a sink writing to w. buffer <= 0 selects DefaultBuffer.
func NewSink(w *Writer, buffer int, logger *slog.Logger) *Sink {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		w:      w,
		logger: logger,
		events: make(chan crafting.Event, buffer),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// Record implements crafting.EventSink.
func (s *Sink) Record(ev crafting.Event) {
	select {
	case s.events <- ev:
	default:
		if s.dropped.Add(1) == 1 {
			s.logger.Warn("event log buffer full, dropping events")
		}
	}
}

// Dropped returns the number of events lost to a full buffer.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Close writes every buffered event and closes the writer. Record must not
// be called after Close.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		close(s.events)
		<-s.done
		s.closeErr = s.w.Close()
	})
	return s.closeErr
}

func (s *Sink) loop() {
	defer close(s.done)
	for ev := range s.events {
		if err := s.w.Write(ev); err != nil {
			s.logger.Error("event log write failed", "kind", string(ev.Kind), "error", err)
		}
	}
}
