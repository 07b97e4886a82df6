package predictor

import (
	"fmt"
	"math"
	"time"

	"github.com/maximbaz/wlsun/kalman"
)

const (
	initialBrightnessTimeout = 2 * time.Second
	pendingCooldownReset     = 15
)

// Controller is the per-output Predictor/Controller described in spec
// §4.3: it owns the learned Data, the tentative Pending entry, and a
// Kalman filter used only to smooth ambient-lux inputs.
type Controller struct {
	predictionTx chan<- uint64
	userRx       <-chan uint64
	alsRx        <-chan uint64

	kalman *kalman.Filter

	data            Data
	pending         *Entry
	pendingCooldown uint8

	stateful   bool
	outputName string

	// initialBrightness holds the handshake value until it is consumed by
	// the first process() call, at which point it behaves exactly like a
	// user-initiated change (spec §4.3 "Initial handshake").
	initialBrightness *uint64
}

// New constructs a Controller. It blocks for up to 2 seconds waiting for
// the initial brightness handshake on userRx; if none arrives in time, it
// returns a handshake-timeout error (spec §4.3, §7, §8 scenario E).
//
// If stateful, the learned Data for outputName is loaded from disk first
// (an absent file yields empty Data); otherwise Data starts empty and is
// never persisted.
func New(predictionTx chan<- uint64, userRx <-chan uint64, alsRx <-chan uint64, stateful bool, outputName string) (*Controller, error) {
	var data Data
	if stateful {
		path, err := Path(outputName)
		if err != nil {
			return nil, err
		}
		data, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	var initial *uint64
	select {
	case v := <-userRx:
		initial = &v
	case <-time.After(initialBrightnessTimeout):
		return nil, fmt.Errorf("predictor(%s): handshake-timeout: did not receive initial brightness within %s", outputName, initialBrightnessTimeout)
	}

	// If there are no learned entries yet, use the handshake value as the
	// first data point, assuming the user is happy with the current
	// brightness (spec §4.3).
	if len(data.Entries) != 0 {
		initial = nil
	}

	return &Controller{
		predictionTx:      predictionTx,
		userRx:            userRx,
		alsRx:             alsRx,
		kalman:            kalman.New(1.0, 20.0, 10.0),
		data:              data,
		stateful:          stateful,
		outputName:        outputName,
		initialBrightness: initial,
	}, nil
}

// Adjust runs one tick of the predictor (spec §4.3 "Tick"). luma is the
// perceived lightness of the current captured frame, or nil when it isn't
// being observed. The frame capturer calls this once per frame.
func (c *Controller) Adjust(luma *uint8) error {
	raw, ok := <-c.alsRx
	if !ok {
		return fmt.Errorf("predictor(%s): channel-disconnected: als_rx closed", c.outputName)
	}
	wasInitialized := c.kalman.Initialized()
	lux := c.kalman.Process(raw)

	if !wasInitialized {
		// This was the filter's first observation; no prediction this tick
		// (spec §4.3 step 1, §8 property 8).
		return nil
	}
	return c.process(lux, luma)
}

func (c *Controller) process(lux uint64, luma *uint8) error {
	initial := c.initialBrightness
	c.initialBrightness = nil

	userChanged, ok := drainLast(c.userRx)
	if !ok {
		userChanged = initial
	}

	switch {
	case userChanged != nil:
		if c.pending == nil {
			e := NewEntry(lux, luma, *userChanged)
			c.pending = &e
		} else {
			c.pending.Brightness = *userChanged
		}
		c.pendingCooldown = pendingCooldownReset
		return nil

	case c.pendingCooldown > 0:
		c.pendingCooldown--
		return nil

	case c.pending != nil:
		return c.learn()

	default:
		return c.predict(lux, luma)
	}
}

// drainLast drains every currently-queued value from rx and returns the
// last one, or (nil, false) if none was queued (spec §4.3 step 2: "Drain
// any queued user-brightness values from user_rx; keep the last one").
func drainLast(rx <-chan uint64) (*uint64, bool) {
	var last *uint64
	for {
		select {
		case v := <-rx:
			last = &v
		default:
			return last, last != nil
		}
	}
}

// learn implements spec §4.3.1: insert the pending entry, evicting every
// prior entry now contradicted by it, per the dominance table.
func (c *Controller) learn() error {
	p := *c.pending
	c.pending = nil

	kept := c.data.Entries[:0:0]
	for _, e := range c.data.Entries {
		if !dominated(e, p) {
			kept = append(kept, e)
		}
	}
	kept = append(kept, p)
	c.data.Entries = kept
	c.pendingCooldown = 0

	if c.stateful {
		path, err := Path(c.outputName)
		if err != nil {
			return err
		}
		if err := Save(path, c.data); err != nil {
			return fmt.Errorf("predictor(%s): persistence-write: %v", c.outputName, err)
		}
	}
	return nil
}

// dominated reports whether e must be evicted once p is learned, per the
// (lux, luma) dominance relationship in spec §4.3.1: an entry in a darker
// environment than the incoming pending point should never need more
// brightness than it, and one in a brighter environment never less; at the
// same environment, a darker screen should never need less brightness and a
// brighter screen never more; the two corners
// where both axes move in the same direction as the new point carry no
// brightness constraint at all, since they're simply superseded without
// being contradicted, and the exact-same-conditions cell is always
// superseded (spec §9 open question: this collapses a repeated
// observation onto the freshly learned one rather than keeping a stale
// duplicate).
func dominated(e, p Entry) bool {
	el, pl := e.lumaOrZero(), p.lumaOrZero()

	darkerEnv := e.Lux < p.Lux
	sameEnv := e.Lux == p.Lux
	brighterEnv := e.Lux > p.Lux

	darkerScreen := el < pl
	sameScreen := el == pl
	brighterScreen := el > pl

	switch {
	case darkerEnv && darkerScreen:
		return false
	case darkerEnv && sameScreen:
		return e.Brightness > p.Brightness
	case darkerEnv && brighterScreen:
		return e.Brightness > p.Brightness
	case sameEnv && darkerScreen:
		return e.Brightness < p.Brightness
	case sameEnv && sameScreen:
		return true
	case sameEnv && brighterScreen:
		return e.Brightness > p.Brightness
	case brighterEnv && darkerScreen:
		return e.Brightness < p.Brightness
	case brighterEnv && sameScreen:
		return e.Brightness < p.Brightness
	case brighterEnv && brighterScreen:
		return false
	}
	return false // unreachable: every (env, screen) combination is covered above
}

// predict implements spec §4.3.2: inverse-distance-weighted interpolation
// over the learned entries, using the product-of-others formulation so a
// single exact hit doesn't require dividing by zero.
func (c *Controller) predict(lux uint64, luma *uint8) error {
	n := len(c.data.Entries)
	if n == 0 {
		return nil
	}
	if n == 1 {
		c.predictionTx <- c.data.Entries[0].Brightness
		return nil
	}

	lumaF := 0.0
	if luma != nil {
		lumaF = float64(*luma)
	}

	distances := make([]float64, n)
	for i, e := range c.data.Entries {
		dLux := float64(lux) - float64(e.Lux)
		dLuma := lumaF - float64(e.lumaOrZero())
		distances[i] = math.Sqrt(dLux*dLux + dLuma*dLuma)
	}

	// Exact hit: spec §4.3.2 requires reproducing the degenerate behavior
	// where the numerator and denominator collapse onto that entry.
	for i, d := range distances {
		if d == 0 {
			c.predictionTx <- c.data.Entries[i].Brightness
			return nil
		}
	}

	productOfOthers := make([]float64, n)
	denominator := 0.0
	for i := range distances {
		p := 1.0
		for j, d := range distances {
			if j != i {
				p *= d
			}
		}
		productOfOthers[i] = p
		denominator += p
	}

	prediction := 0.0
	for i, e := range c.data.Entries {
		prediction += float64(e.Brightness) * productOfOthers[i] / denominator
	}

	c.predictionTx <- uint64(prediction)
	return nil
}
