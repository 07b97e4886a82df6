package brightness

import (
	"fmt"
	"time"
)

const rampTick = 16 * time.Millisecond

// Controller owns one output's (or keyboard's) Backend and implements
// §4.4's loop: ramp toward the latest prediction, and forward any
// brightness change the controller didn't itself write as a
// user-brightness event.
type Controller struct {
	backend      Backend
	predictionRx <-chan uint64
	userTx       chan<- uint64

	name string

	lastWritten uint64
	target      uint64
}

// NewController constructs a Controller for backend and immediately sends
// the currently observed brightness on userTx — the initial handshake the
// predictor's cold start depends on (§4.4, §4.3).
func NewController(backend Backend, predictionRx <-chan uint64, userTx chan<- uint64, name string) (*Controller, error) {
	cur, err := backend.Get()
	if err != nil {
		return nil, fmt.Errorf("brightness(%s): %v", name, err)
	}

	c := &Controller{
		backend:      backend,
		predictionRx: predictionRx,
		userTx:       userTx,
		name:         name,
		lastWritten:  cur,
		target:       cur,
	}
	userTx <- cur
	return c, nil
}

// Run drives the ramp loop until stop is closed.
func (c *Controller) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if err := c.tick(); err != nil {
			return err
		}

		select {
		case <-stop:
			return nil
		case <-time.After(rampTick):
		}
	}
}

// tick runs one ramp step: detect an externally-initiated change, or else
// step the device brightness by at most one rate-limited increment toward
// the current target (§4.4).
func (c *Controller) tick() error {
	if v, ok := drainLast(c.predictionRx); ok {
		c.target = v
	}

	cur, err := c.backend.Get()
	if err != nil {
		return fmt.Errorf("brightness(%s): %v", c.name, err)
	}

	if cur != c.lastWritten {
		// Nobody but this Controller's own Set calls should move the
		// device; any other delta is the user's doing.
		c.lastWritten = cur
		c.target = cur
		c.userTx <- cur
		return nil
	}

	if cur == c.target {
		return nil
	}

	next := rampStep(cur, c.target)
	if err := c.backend.Set(next); err != nil {
		return fmt.Errorf("brightness(%s): %v", c.name, err)
	}
	c.lastWritten = next
	return nil
}

// rampStep returns the next brightness value, moving from cur toward
// target by at most max(1, |target-cur|/10) device units per tick (§4.4).
func rampStep(cur, target uint64) uint64 {
	if target > cur {
		delta := target - cur
		step := delta / 10
		if step < 1 {
			step = 1
		}
		if step > delta {
			step = delta
		}
		return cur + step
	}
	delta := cur - target
	step := delta / 10
	if step < 1 {
		step = 1
	}
	if step > delta {
		step = delta
	}
	return cur - step
}

// drainLast drains every currently-queued prediction and returns the last
// one, or (0, false) if none was queued.
func drainLast(rx <-chan uint64) (uint64, bool) {
	var last uint64
	ok := false
	for {
		select {
		case v := <-rx:
			last = v
			ok = true
		default:
			return last, ok
		}
	}
}
