package assemblyline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// input is an input buffer slot. end marks the end of the stream, err a failed parallel feed.
type input[IN any] struct {
	val IN
	end bool
	err error
}

// line holds the state shared by the stages of one run.
type line[IN, OUT any] struct {
	opts   Options
	log    zerolog.Logger
	feed   Feeder[IN]
	chew   Chewer[IN, OUT]
	digest Digester[OUT]

	inputs  *slots[input[IN]]
	outputs *slots[OUT]
	pool    workerPool
	jobs    sync.WaitGroup

	fed       atomic.Int64
	inFlight  atomic.Int64
	processed atomic.Int64
	digested  atomic.Int64

	// lastIndex is the index of the last item, valid once ended is set.
	lastIndex atomic.Int64
	ended     atomic.Bool

	toDispatch signal
	toDigest   signal
	toReport   signal

	fail context.CancelCauseFunc
}

// Run feeds, chews and digests items until the Feeder reports the end of the stream and every item before it is digested.
//
// The Digester is called exactly once per item, in index order. Run returns the first error raised by any stage, or the cause of ctx
// if it is cancelled first. In both cases the remaining items are not digested.
func Run[IN, OUT any](ctx context.Context, feed Feeder[IN], chew Chewer[IN, OUT], digest Digester[OUT], opts ...Option) error {
	if feed == nil || chew == nil || digest == nil {
		var (
			in  IN
			out OUT
		)
		return fmt.Errorf("%w from %T to %T", ErrInvalidLine, in, out)
	}
	o, err := NewOptions(opts...)
	if err != nil {
		return err
	}
	log := o.Logger.With().Str("run", uuid.NewString()).Logger()

	pool, err := newWorkerPool(o, log)
	if err != nil {
		return err
	}

	l := &line[IN, OUT]{
		opts:       o,
		log:        log,
		feed:       feed,
		chew:       chew,
		digest:     digest,
		inputs:     newSlots[input[IN]](o.BufferSize),
		outputs:    newSlots[OUT](o.BufferSize),
		pool:       pool,
		toDispatch: newSignal(),
		toDigest:   newSignal(),
		toReport:   newSignal(),
	}
	return l.run(ctx)
}

func (l *line[IN, OUT]) run(parent context.Context) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)
	l.fail = cancel

	l.log.Debug().
		Int("workers", l.opts.Workers).
		Int("buffer", l.opts.BufferSize).
		Int("feeders", l.opts.Feeders).
		Stringer("backend", l.opts.Backend).
		Msg("line started")

	stopReport, reported := l.startReporter(ctx)

	// Stage failures are recorded through l.fail, so the group error is redundant with the context cause.
	var g errgroup.Group
	g.Go(func() error { return l.guard(ctx, StageFeed, l.feedStage) })
	g.Go(func() error { return l.guard(ctx, StageDispatch, l.dispatchStage) })
	g.Go(func() error { return l.guard(ctx, StageDigest, l.digestStage) })
	_ = g.Wait()

	l.jobs.Wait()
	l.pool.Release()
	close(stopReport)
	<-reported

	if err := context.Cause(ctx); err != nil {
		l.log.Debug().Err(err).Msg("line failed")
		return err
	}
	l.log.Debug().Int64("digested", l.digested.Load()).Msg("line done")
	return nil
}

// guard runs a stage and records its failure.
func (l *line[IN, OUT]) guard(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	err := protect(func() error { return fn(ctx) })
	if err == nil {
		l.log.Debug().Str("stage", string(stage)).Msg("stage done")
		return nil
	}
	if ctx.Err() == nil {
		var se *StageError
		if !errors.As(err, &se) {
			err = newStageError(stage, -1, err)
		}
		l.log.Debug().Err(err).Str("stage", string(stage)).Msg("stage failed")
	}
	l.fail(err)
	return err
}

// changed wakes the status reporter.
func (l *line[IN, OUT]) changed() {
	l.toReport.notify()
}
