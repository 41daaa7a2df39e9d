package assemblyline

// WorkerPool is the set of methods the line needs from a worker pool backend.
type WorkerPool interface {
	Submit(job func()) error
	Release()
}

// NewWorkerPool exposes the worker pool backends.
func NewWorkerPool(o Options) (WorkerPool, error) {
	return newWorkerPool(o, o.Logger)
}
