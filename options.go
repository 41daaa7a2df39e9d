package assemblyline

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Backend selects the worker pool running the Chewer.
type Backend int

const (
	// BackendPool runs chews on a fixed set of goroutines owned by the line for the duration of the run.
	BackendPool Backend = iota
	// BackendScheduler submits every chew to an ants pool.
	BackendScheduler
)

func (b Backend) String() string {
	switch b {
	case BackendPool:
		return "pool"
	case BackendScheduler:
		return "scheduler"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// Options tunes a run. The zero value is valid: every field left to zero gets its default.
type Options struct {
	// Workers is the maximum count of concurrent chews. Defaults to runtime.NumCPU().
	Workers int `validate:"min=1"`
	// BufferSize is the capacity of the input and of the output buffer. Defaults to 2*Workers.
	BufferSize int `validate:"min=1"`
	// Feeders is the count of concurrent Feeder calls. 1, the default, keeps feeding sequential.
	Feeders int     `validate:"min=1"`
	Backend Backend `validate:"oneof=0 1"`
	// LongRunning tells the scheduler backend that chews are long: its workers are allocated up front and never reclaimed.
	LongRunning bool
	// Status, when set, receives a snapshot on every state change.
	Status StatusFunc `validate:"-"`
	Logger zerolog.Logger `validate:"-"`
	// SchedulerOptions are appended to the options of the scheduler backend pool.
	SchedulerOptions []ants.Option `validate:"-"`
}

// Option updates Options.
type Option func(*Options)

// WithWorkers sets the maximum count of concurrent chews.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithBufferSize sets the capacity of both buffers.
func WithBufferSize(n int) Option {
	return func(o *Options) { o.BufferSize = n }
}

// WithFeeders allows n concurrent Feeder calls.
func WithFeeders(n int) Option {
	return func(o *Options) { o.Feeders = n }
}

// WithBackend selects the worker pool backend.
func WithBackend(b Backend) Option {
	return func(o *Options) { o.Backend = b }
}

// WithLongRunning marks chews as long running.
func WithLongRunning(longRunning bool) Option {
	return func(o *Options) { o.LongRunning = longRunning }
}

// WithStatus subscribes fn to line snapshots.
func WithStatus(fn StatusFunc) Option {
	return func(o *Options) { o.Status = fn }
}

// WithLogger sets the logger receiving the line lifecycle events, at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithSchedulerOptions adds options to the scheduler backend pool.
func WithSchedulerOptions(opts ...ants.Option) Option {
	return func(o *Options) { o.SchedulerOptions = append(o.SchedulerOptions, opts...) }
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// NewOptions applies opts over the defaults and validates the result.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.Workers = lo.Ternary(o.Workers == 0, runtime.NumCPU(), o.Workers)
	o.BufferSize = lo.Ternary(o.BufferSize == 0, 2*o.Workers, o.BufferSize)
	o.Feeders = lo.Ternary(o.Feeders == 0, 1, o.Feeders)

	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return o, nil
}
