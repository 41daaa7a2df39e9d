/*
assemblyline runs ordered, three stage pipelines: items are fed sequentially, chewed in parallel, and digested sequentially in their original order.

It fits workloads where the input can only be produced one item at a time (reading a file, walking a cursor) and the output must be consumed one item
at a time in the same order (writing a file, appending to a log), while the work in between is the bottleneck and can run on many goroutines.

The line is made of:

- a Feeder, called with the indices 0, 1, 2, ... until it reports the end of the stream. Its items go to a bounded input buffer.
- a dispatcher, which hands the next expected input to the worker pool whenever a worker and an output slot are both free.
- a worker pool running the Chewer. Two backends are available: a fixed set of goroutines owned by the line (BackendPool), or an ants pool acting as a generic task scheduler (BackendScheduler).
- a Digester, called strictly in index order from the bounded output buffer.
- an optional status reporter, woken on every state change, which hands a Status snapshot to the subscriber.

Both buffers default to twice the worker count. Since every stage waits on the one downstream of it, memory stays bounded whatever the speed of the
Feeder: a slow Digester stalls the workers, which stall the dispatcher, which stalls the Feeder.

Any failure (an error returned or a panic raised by a callback) is fatal: the first one cancels the context handed to every callback, the line drains,
and Run returns that error wrapped in a *StageError. Run never returns before every goroutine it started has exited.

For instance, to write a compressed copy of a file block by block:

	err := assemblyline.Run(ctx,
		func(ctx context.Context, i int64) ([]byte, bool, error) { return readBlock(f, i) },
		func(ctx context.Context, block []byte, _ int64) ([]byte, error) { return compress(block) },
		func(ctx context.Context, block []byte, _ int64) error { _, err := out.Write(block); return err },
		assemblyline.WithWorkers(8),
	)

Parallel feeding (WithFeeders) calls the Feeder for several indices at once. The first index, in index order, at which the Feeder reports the end
of the stream terminates it, and anything fed past it is dropped. Only use it with a Feeder whose result depends on the index alone.
*/

package assemblyline
