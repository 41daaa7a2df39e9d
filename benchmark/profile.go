package benchmark

import (
	"context"
	"io"
	"runtime/pprof"
	"time"

	"github.com/fogfactory/assemblyline"
	"github.com/samber/lo"
)

// Result holds the durations measured by Profile.
type Result struct {
	Parallel   time.Duration
	Sequential time.Duration
}

// Profile runs a line of items which each sleep for a millisecond while chewed, under CPU profiling, then the same work sequentially.
// The profile is written to w.
//
// - items Number of items fed.
// - workers Worker count of the line.
// - backend Worker pool backend.
//
// use pprof to read the profile (go install github.com/google/pprof@latest).
func Profile(w io.Writer, items, workers int, backend assemblyline.Backend) (Result, error) {
	var result Result
	dumbChew := func(i int) int { time.Sleep(time.Millisecond); return i }

	err := func() error {
		if err := pprof.StartCPUProfile(w); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()

		start := time.Now()
		err := assemblyline.Run(context.Background(),
			assemblyline.FeedSlice(lo.Range(items)),
			assemblyline.AsChewer(dumbChew),
			assemblyline.AsDigester(func(int, int64) {}),
			assemblyline.WithWorkers(workers),
			assemblyline.WithBackend(backend))
		result.Parallel = time.Since(start)
		return err
	}()
	if err != nil {
		return result, err
	}

	start := time.Now()
	for i := range items {
		_ = dumbChew(i)
	}
	result.Sequential = time.Since(start)

	// Pprof file can be read with
	// pprof -http=:8080 $file
	return result, nil
}
