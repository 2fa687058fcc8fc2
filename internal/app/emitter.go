package app

import (
	"log/slog"

	"conclave/internal/domain"
)

// eventBufferSize bounds how far an operation can run ahead of its consumer
const eventBufferSize = 256

// emitter delivers one operation's ordered event stream. Events are queued
// non-blocking: a consumer that cannot keep up loses events rather than
// stalling the round. The terminal done or error event is the exception; it
// is always delivered, and the channel closes right after it.
type emitter struct {
	sessionID string
	ch        chan domain.Event
	logger    *slog.Logger
	closed    bool
}

func newEmitter(sessionID string, logger *slog.Logger) *emitter {
	return &emitter{
		sessionID: sessionID,
		ch:        make(chan domain.Event, eventBufferSize),
		logger:    logger,
	}
}

// events returns the receive side of the stream
func (e *emitter) events() <-chan domain.Event {
	return e.ch
}

// emit queues an event, dropping it if the buffer is full
func (e *emitter) emit(eventType domain.EventType, payload interface{}) {
	if e.closed {
		return
	}
	select {
	case e.ch <- domain.NewEvent(eventType, e.sessionID, payload):
	default:
		e.logger.Warn("event dropped, stream buffer full", "type", eventType)
	}
}

// done terminates the stream with the session's closing state
func (e *emitter) done(s *domain.Session) {
	e.terminal(domain.EventDone, domain.DonePayload{
		Phase:   s.Phase,
		Round:   s.Round,
		Tension: s.TensionLevel,
	})
}

// fail terminates the stream with an error event
func (e *emitter) fail(code, message string) {
	e.terminal(domain.EventError, domain.ErrorPayload{Code: code, Message: message})
}

// terminal sends the stream's closing event and closes the channel. Unlike
// emit it blocks rather than drops: every stream ends in exactly one done or
// error event, even for a consumer that has fallen behind.
func (e *emitter) terminal(eventType domain.EventType, payload interface{}) {
	if e.closed {
		return
	}
	e.ch <- domain.NewEvent(eventType, e.sessionID, payload)
	e.close()
}

func (e *emitter) close() {
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}
