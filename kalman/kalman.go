// Package kalman implements a minimal scalar Kalman filter.
//
// It is used throughout wlsun to smooth noisy single-dimension
// measurements — ambient lux readings and webcam-derived lightness — before
// the predictor uses them.
package kalman

// Filter is a scalar, one-dimensional Kalman filter.
//
// It is not safe for concurrent use; each goroutine that needs smoothing
// (the predictor, the webcam sampler) owns its own instance.
type Filter struct {
	q float64 // process noise
	r float64 // measurement noise
	p float64 // estimate covariance
	x float64 // current estimate

	initialized bool
}

// New returns a Filter with the given process noise q, measurement noise r
// and initial estimate covariance p.
func New(q, r, p float64) *Filter {
	return &Filter{q: q, r: r, p: p}
}

// Initialized reports whether Process has been called at least once.
func (f *Filter) Initialized() bool {
	return f.initialized
}

// Process feeds a new measurement z through the filter and returns the
// updated estimate, truncated to uint64.
//
// The first call transitions Initialized from false to true, but still
// returns a value — callers that require at least one prior measurement
// before trusting the estimate must check Initialized themselves.
func (f *Filter) Process(z uint64) uint64 {
	f.p += f.q
	k := f.p / (f.p + f.r)
	f.x += k * (float64(z) - f.x)
	f.p *= 1 - k
	f.initialized = true
	return uint64(f.x)
}
