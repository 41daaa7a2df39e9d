package assemblyline_test

import (
	"sync"
	"testing"
	"time"

	"github.com/fogfactory/assemblyline"
	"github.com/maxatome/go-testdeep/td"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/goleak"
)

func InitPool(t testing.TB, opts ...assemblyline.Option) assemblyline.WorkerPool {
	o, err := assemblyline.NewOptions(opts...)
	td.Require(t).CmpNoError(err)
	pool, err := assemblyline.NewWorkerPool(o)
	td.Require(t).CmpNoError(err)
	return pool
}

func TestPool(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend.String(), func(t *testing.T) {
			t.Run("runs_all_jobs", func(t *testing.T) {
				// Arrange
				defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
				pool := InitPool(t, assemblyline.WithBackend(backend), assemblyline.WithWorkers(4))
				var mu sync.Mutex
				var wg sync.WaitGroup
				var done []int

				// Act
				for i := range 20 {
					wg.Add(1)
					td.CmpNoError(t, pool.Submit(func() {
						defer wg.Done()
						mu.Lock()
						done = append(done, i)
						mu.Unlock()
					}))
				}
				wg.Wait()
				pool.Release()

				// Assert
				// We use a bag since jobs run concurrently
				td.CmpBag(t, done, lo.ToAnySlice(lo.Range(20)))
			})

			t.Run("runs_jobs_concurrently", func(t *testing.T) {
				// Arrange
				pool := InitPool(t, assemblyline.WithBackend(backend), assemblyline.WithWorkers(2))
				defer pool.Release()
				topeLa := make(chan bool)
				var wg sync.WaitGroup
				deadlock := false
				job := func() {
					defer wg.Done()
					// Arbitrary reconciliation to check that both jobs run in separate goroutines
					select {
					case topeLa <- true:
					case <-topeLa:
					case <-time.After(500 * time.Millisecond):
						deadlock = true
					}
				}

				// Act
				wg.Add(2)
				td.CmpNoError(t, pool.Submit(job))
				td.CmpNoError(t, pool.Submit(job))
				wg.Wait()

				// Assert
				td.CmpFalse(t, deadlock, "Deadlock detected. Jobs are not run in several workers")
			})

			t.Run("submit_after_release", func(t *testing.T) {
				// Arrange
				pool := InitPool(t, assemblyline.WithBackend(backend), assemblyline.WithWorkers(1))
				pool.Release()

				// Act
				err := pool.Submit(func() {})

				// Assert
				td.CmpErrorIs(t, err, assemblyline.ErrPoolClosed)
			})
		})
	}

	t.Run("scheduler_options", func(t *testing.T) {
		// Arrange
		panics := make(chan any, 1)
		pool := InitPool(t,
			assemblyline.WithBackend(assemblyline.BackendScheduler),
			assemblyline.WithWorkers(1),
			assemblyline.WithLongRunning(true),
			assemblyline.WithSchedulerOptions(ants.WithPanicHandler(func(i any) { panics <- i })))
		defer pool.Release()

		// Act
		td.CmpNoError(t, pool.Submit(func() { panic("raw job panic") }))

		// Assert
		select {
		case p := <-panics:
			td.Cmp(t, p, "raw job panic")
		case <-time.After(time.Second):
			t.Fatal("the panic handler was not called")
		}
	})
}
