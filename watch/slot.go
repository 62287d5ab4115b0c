package watch

import (
	"context"
	"errors"
)

// ErrSlotFull is the panic value of a second Send before a receive.
var ErrSlotFull = errors.New("watch: slot already holds a value")

// Slot is a capacity-one handoff between a background task and the loop.
// A producer sends at most once; sending again before the value was taken
// is a programming error and panics.
type Slot[T any] struct {
	ch chan T
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ch: make(chan T, 1)}
}

// Send stores v without blocking.
func (s *Slot[T]) Send(v T) {
	select {
	case s.ch <- v:
	default:
		panic(ErrSlotFull)
	}
}

// Recv waits for the value or for ctx to end.
func (s *Slot[T]) Recv(ctx context.Context) (T, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryRecv takes the value if one is ready.
func (s *Slot[T]) TryRecv() (T, bool) {
	select {
	case v := <-s.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
