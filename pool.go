package assemblyline

import (
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// releaseTimeout bounds the wait for the scheduler workers to exit once the pool is released.
const releaseTimeout = 5 * time.Second

// workerPool runs the chew jobs. Submit may block until a worker is available.
type workerPool interface {
	Submit(job func()) error
	// Release stops the pool and waits for its goroutines to exit.
	Release()
}

// newWorkerPool builds the pool for the configured backend.
func newWorkerPool(o Options, log zerolog.Logger) (workerPool, error) {
	if o.Backend == BackendScheduler {
		return newSchedulerPool(o, log)
	}
	return newFixedPool(o.Workers), nil
}

// fixedPool is a set of long lived goroutines sharing one job queue.
type fixedPool struct {
	jobs chan func()
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newFixedPool(size int) *fixedPool {
	p := &fixedPool{
		jobs: make(chan func(), size),
		quit: make(chan struct{}),
	}
	p.wg.Add(size)
	for range size {
		go p.work()
	}
	return p
}

func (p *fixedPool) work() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			job()
		case <-p.quit:
			return
		}
	}
}

// Submit queues job. The queue holds as many jobs as there are workers.
func (p *fixedPool) Submit(job func()) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	}
}

// Release wakes every worker and joins them. Jobs still queued are dropped.
func (p *fixedPool) Release() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// schedulerPool delegates every job to an ants pool.
type schedulerPool struct {
	pool *ants.Pool
	log  zerolog.Logger
}

func newSchedulerPool(o Options, log zerolog.Logger) (*schedulerPool, error) {
	opts := []ants.Option{ants.WithLogger(&log)}
	if o.LongRunning {
		opts = append(opts, ants.WithPreAlloc(true), ants.WithDisablePurge(true))
	}
	opts = append(opts, o.SchedulerOptions...)
	pool, err := ants.NewPool(o.Workers, opts...)
	if err != nil {
		return nil, err
	}
	return &schedulerPool{pool: pool, log: log}, nil
}

func (p *schedulerPool) Submit(job func()) error {
	err := p.pool.Submit(job)
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

func (p *schedulerPool) Release() {
	if err := p.pool.ReleaseTimeout(releaseTimeout); err != nil {
		p.log.Debug().Err(err).Msg("scheduler workers still running after release")
	}
}
