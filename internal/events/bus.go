package events

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes a typed payload. Handlers must not assume dispatch order
// relative to other handlers of the same event.
type Handler func(ctx context.Context, payload any)

// Subscription deregisters a handler when called.
type Subscription func()

// Bus dispatches events to registered handlers. Emit is synchronous but
// isolates handler panics: one misbehaving subscriber cannot starve the rest
// or reach the emitter. Emitters therefore never block on, or fail because
// of, a subscriber's work; long-running subscribers hand off to their own
// queues (the email dispatcher enqueues and returns).
type Bus struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	handlers map[Name][]*registration
}

type registration struct {
	fn Handler
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:   logger,
		handlers: make(map[Name][]*registration),
	}
}

// On registers a handler for an event name and returns its deregistration.
func (b *Bus) On(name Name, fn Handler) Subscription {
	reg := &registration{fn: fn}
	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], reg)
	b.mu.Unlock()

	return func() { b.off(name, reg) }
}

func (b *Bus) off(name Name, reg *registration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.handlers[name]
	for i, r := range regs {
		if r == reg {
			b.handlers[name] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Emit dispatches the payload to every handler registered at emit time.
func (b *Bus) Emit(ctx context.Context, name Name, payload any) {
	b.mu.RLock()
	regs := make([]*registration, len(b.handlers[name]))
	copy(regs, b.handlers[name])
	b.mu.RUnlock()

	for _, reg := range regs {
		b.dispatch(ctx, name, reg, payload)
	}
}

func (b *Bus) dispatch(ctx context.Context, name Name, reg *registration, payload any) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				"event", string(name),
				"panic", r,
			)
		}
	}()
	reg.fn(ctx, payload)
}
