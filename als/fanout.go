package als

import "fmt"

// FanOut is the single ALS sampler thread (spec §4.2): it repeatedly calls
// Get on one chosen Source and forwards every value to every configured
// output's channel, in the order it was sampled.
type FanOut struct {
	source Source
	outs   []chan<- uint64
}

// NewFanOut builds a fan-out controller over source, broadcasting to outs.
func NewFanOut(source Source, outs []chan<- uint64) *FanOut {
	return &FanOut{source: source, outs: outs}
}

// Run samples the source forever and fans each value out, returning only
// when stop is closed or the source itself fails.
//
// Go channels have no "receiver disconnected" signal the way Rust's mpsc
// does, so spec §4.2's "a disconnected receiver is fatal" is realized
// differently here: stop is the shared errgroup cancellation signal, so
// when a predictor goroutine dies of its own fatal error the whole group
// unwinds and this loop exits too, rather than blocking forever on a send
// nobody will ever receive.
func (f *FanOut) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		v, err := f.source.Get()
		if err != nil {
			return fmt.Errorf("als-fanout: %v", err)
		}

		for _, out := range f.outs {
			select {
			case out <- v:
			case <-stop:
				return nil
			}
		}
	}
}
