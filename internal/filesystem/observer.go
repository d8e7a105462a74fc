package filesystem

import "sync/atomic"

// Observer records filesystem operation metrics. The metrics package provides
// the implementation, which keeps this package free of a metrics import.
type Observer interface {
	// ObserveOperation records the total duration and outcome of op
	// ("stat", "open", "readdir"), retries included.
	ObserveOperation(op string, durationSeconds float64, err error)

	ObserveRetryAttempt(op string)
	ObserveRetrySuccess(op string)
	ObserveRetryFailure(op string)
	ObserveStaleError(op string)
}

var defaultObserver atomic.Pointer[Observer]

// SetObserver sets the package-level metrics observer. Passing nil disables
// metric recording.
func SetObserver(o Observer) {
	if o == nil {
		defaultObserver.Store(nil)
		return
	}
	defaultObserver.Store(&o)
}

func observe() Observer {
	if p := defaultObserver.Load(); p != nil {
		return *p
	}
	return nil
}
