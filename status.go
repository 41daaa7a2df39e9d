package assemblyline

import "context"

// Status is a snapshot of a running line. Fields are read one by one without locking, so they may be slightly out of step with each other.
type Status struct {
	InputBufferSize      int
	InputBufferCapacity  int
	OutputBufferSize     int
	OutputBufferCapacity int
	// Fed counts the items returned by the Feeder, end of stream excluded. With parallel feeders, items fed past the
	// end are counted until the feeders drain, then discounted.
	Fed int64
	// Processing counts the chews in flight.
	Processing int64
	Processed  int64
	Digested   int64
}

func (l *line[IN, OUT]) snapshot() Status {
	return Status{
		InputBufferSize:      l.inputs.len(),
		InputBufferCapacity:  l.inputs.capacity,
		OutputBufferSize:     l.outputs.len(),
		OutputBufferCapacity: l.outputs.capacity,
		Fed:                  l.fed.Load(),
		Processing:           l.inFlight.Load(),
		Processed:            l.processed.Load(),
		Digested:             l.digested.Load(),
	}
}

// startReporter starts the status reporter, if a subscriber is set. Closing stop makes it report a last time and exit, then done is closed.
func (l *line[IN, OUT]) startReporter(ctx context.Context) (stop chan struct{}, done <-chan struct{}) {
	stop = make(chan struct{})
	finished := make(chan struct{})
	if l.opts.Status == nil {
		close(finished)
		return stop, finished
	}

	go func() {
		defer close(finished)
		for {
			if err := l.report(); err != nil {
				l.reportFailed(ctx, err)
				return
			}
			select {
			case <-l.toReport:
			case <-stop:
				if err := l.report(); err != nil {
					l.reportFailed(ctx, err)
				}
				return
			}
		}
	}()
	return stop, finished
}

// reportFailed fails the run, unless it already ended or every item is digested.
func (l *line[IN, OUT]) reportFailed(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	if l.digestedAll(l.digested.Load()) {
		l.log.Debug().Err(err).Msg("status failed after the last digest, ignored")
		return
	}
	l.fail(err)
}

func (l *line[IN, OUT]) report() error {
	if err := protect(func() error { return l.opts.Status(l.snapshot()) }); err != nil {
		return newStageError(StageStatus, -1, err)
	}
	return nil
}
