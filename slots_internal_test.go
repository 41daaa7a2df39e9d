package assemblyline

import (
	"context"
	"testing"
	"time"

	"github.com/maxatome/go-testdeep/td"
)

func TestSlots(t *testing.T) {
	t.Run("reserve_fill_take", func(t *testing.T) {
		// Arrange
		s := newSlots[string](2)

		// Act
		td.Require(t).CmpNoError(s.reserve(context.Background()))
		td.Require(t).True(s.tryReserve())
		full := !s.tryReserve()
		s.fill(1, "one")
		s.fill(0, "zero")
		peeked, peekOk := s.peek(0)
		taken, takeOk := s.take(0)
		_, again := s.take(0)

		// Assert
		td.CmpTrue(t, full, "capacity should be exhausted by reservations")
		td.Cmp(t, []any{peeked, peekOk, taken, takeOk, again}, []any{"zero", true, "zero", true, false})
		td.Cmp(t, s.len(), 1)
		td.CmpTrue(t, s.tryReserve(), "taking should free a slot")
	})

	t.Run("reserve_blocks_until_take", func(t *testing.T) {
		// Arrange
		s := newSlots[int](1)
		td.Require(t).CmpNoError(s.reserve(context.Background()))
		s.fill(0, 0)
		reserved := make(chan error)

		// Act
		go func() { reserved <- s.reserve(context.Background()) }()
		select {
		case <-reserved:
			t.Fatal("reserve should block while the buffer is full")
		case <-time.After(20 * time.Millisecond):
		}
		s.take(0)

		// Assert
		td.CmpNoError(t, <-reserved)
	})

	t.Run("reserve_cancelled", func(t *testing.T) {
		// Arrange
		s := newSlots[int](1)
		td.Require(t).True(s.tryReserve())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		err := s.reserve(ctx)

		// Assert
		td.CmpErrorIs(t, err, context.Canceled)
	})

	t.Run("drop_after", func(t *testing.T) {
		// Arrange
		s := newSlots[int](4)
		for i := range int64(4) {
			td.Require(t).CmpNoError(s.reserve(context.Background()))
			s.fill(i, int(i)*10)
		}

		// Act
		dropped := s.dropAfter(1)

		// Assert
		td.Cmp(t, dropped, td.Bag(20, 30))
		td.Cmp(t, s.len(), 2)
		_, kept := s.peek(1)
		td.CmpTrue(t, kept)
		td.CmpTrue(t, s.tryReserve(), "dropping should free the slots")
		td.CmpTrue(t, s.tryReserve())
		td.CmpFalse(t, s.tryReserve())
		td.CmpNil(t, s.dropAfter(5))
	})
}

func TestSignal(t *testing.T) {
	// Arrange
	s := newSignal()

	// Act
	s.notify()
	s.notify() // coalesced

	// Assert
	td.CmpLen(t, s, 1)
	<-s
	td.CmpLen(t, s, 0)
}
