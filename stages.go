package assemblyline

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

func (l *line[IN, OUT]) feedStage(ctx context.Context) error {
	if l.opts.Feeders > 1 {
		return l.feedParallel(ctx)
	}
	for index := int64(0); ; index++ {
		if err := l.inputs.reserve(ctx); err != nil {
			return err
		}
		end, err := l.feedOne(ctx, index)
		if err != nil || end {
			return err
		}
	}
}

// feedParallel keeps up to Feeders lanes calling the Feeder. Each lane owns an input slot reserved before it starts,
// so lanes never wait on the buffer. The first lane reaching the end of the stream, or failing, stops the launches.
// A lane error is left in its slot: it fails the run only if the dispatcher reaches it before the end of the stream.
func (l *line[IN, OUT]) feedParallel(ctx context.Context) error {
	launchCtx, stop := context.WithCancel(ctx)
	defer stop()

	var stopAt atomic.Int64
	stopAt.Store(math.MaxInt64)
	halt := func(index int64) {
		for {
			current := stopAt.Load()
			if index >= current || stopAt.CompareAndSwap(current, index) {
				break
			}
		}
		stop()
	}

	var lanes errgroup.Group
	lanes.SetLimit(l.opts.Feeders)
	for index := int64(0); launchCtx.Err() == nil; index++ {
		if err := l.inputs.reserve(launchCtx); err != nil {
			break
		}
		lanes.Go(func() error {
			end, err := l.feedOne(ctx, index)
			if err != nil {
				l.inputs.fill(index, input[IN]{err: err})
				l.toDispatch.notify()
			}
			if end || err != nil {
				halt(index)
			}
			return nil
		})
	}
	_ = lanes.Wait()

	// Nothing past the first end or error can be dispatched.
	dropped := l.inputs.dropAfter(stopAt.Load())
	if fed := lo.CountBy(dropped, func(in input[IN]) bool { return !in.end && in.err == nil }); fed > 0 {
		l.fed.Add(-int64(fed))
		l.changed()
	}
	return ctx.Err()
}

// feedOne calls the Feeder for index and fills the slot reserved for it. It reports whether index is past the last item.
// On error the slot is left empty.
func (l *line[IN, OUT]) feedOne(ctx context.Context, index int64) (bool, error) {
	var (
		in IN
		ok bool
	)
	err := protect(func() (err error) {
		in, ok, err = l.feed(ctx, index)
		return err
	})
	if err != nil {
		return false, newStageError(StageFeed, index, err)
	}
	l.inputs.fill(index, input[IN]{val: in, end: !ok})
	if ok {
		l.fed.Add(1)
	} else {
		l.log.Debug().Int64("index", index).Msg("end of stream fed")
	}
	l.toDispatch.notify()
	l.changed()
	return !ok, nil
}

// dispatchStage submits the inputs to the pool in index order, as long as a worker and an output slot are free.
// Taking the end of the stream publishes the last index to the digester.
func (l *line[IN, OUT]) dispatchStage(ctx context.Context) error {
	next := int64(0)
	for {
		for ctx.Err() == nil {
			in, ok := l.inputs.peek(next)
			if !ok {
				break
			}
			if in.err != nil {
				return in.err
			}
			if in.end {
				l.inputs.take(next)
				l.lastIndex.Store(next - 1)
				l.ended.Store(true)
				l.toDigest.notify()
				l.changed()
				return nil
			}
			if l.inFlight.Load() >= int64(l.opts.Workers) || !l.outputs.tryReserve() {
				break
			}
			l.inputs.take(next)
			l.inFlight.Add(1)
			if err := l.submit(ctx, in.val, next); err != nil {
				return err
			}
			next++
			l.changed()
		}
		select {
		case <-l.toDispatch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *line[IN, OUT]) submit(ctx context.Context, in IN, index int64) error {
	l.jobs.Add(1)
	err := l.pool.Submit(func() {
		defer l.jobs.Done()
		l.chewOne(ctx, in, index)
	})
	if err != nil {
		l.jobs.Done()
		l.inFlight.Add(-1)
		return newStageError(StageDispatch, index, err)
	}
	return nil
}

// chewOne is the pool job: it chews one input into the output slot reserved by the dispatcher.
func (l *line[IN, OUT]) chewOne(ctx context.Context, in IN, index int64) {
	defer func() {
		l.inFlight.Add(-1)
		l.toDispatch.notify()
		l.changed()
	}()
	if ctx.Err() != nil {
		return
	}
	var out OUT
	err := protect(func() (err error) {
		out, err = l.chew(ctx, in, index)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			l.log.Debug().Err(err).Int64("index", index).Msg("chew failed")
		}
		l.fail(newStageError(StageChew, index, err))
		return
	}
	l.outputs.fill(index, out)
	l.processed.Add(1)
	l.toDigest.notify()
}

func (l *line[IN, OUT]) digestStage(ctx context.Context) error {
	next := int64(0)
	for {
		for !l.digestedAll(next) {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, ok := l.outputs.take(next)
			if !ok {
				break
			}
			l.toDispatch.notify()
			l.changed()
			err := protect(func() error { return l.digest(ctx, out, next) })
			if err != nil {
				return newStageError(StageDigest, next, err)
			}
			next++
			l.digested.Store(next)
			l.changed()
		}
		if l.digestedAll(next) {
			return nil
		}
		select {
		case <-l.toDigest:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// digestedAll reports whether next is past the last item of a stream whose end is known.
func (l *line[IN, OUT]) digestedAll(next int64) bool {
	return l.ended.Load() && next > l.lastIndex.Load()
}
