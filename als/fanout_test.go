package als

import (
	"errors"
	"testing"
	"time"
)

type constSource struct {
	v   uint64
	err error
}

func (c constSource) Get() (uint64, error) { return c.v, c.err }

func TestFanOutBroadcastsInOrder(t *testing.T) {
	out1 := make(chan uint64, 3)
	out2 := make(chan uint64, 3)
	stop := make(chan struct{})
	src := &sequenceSource{values: []uint64{1, 2, 3}, stop: stop}

	f := NewFanOut(src, []chan<- uint64{out1, out2})
	done := make(chan error, 1)
	go func() { done <- f.Run(stop) }()

	for _, want := range []uint64{1, 2, 3} {
		select {
		case got := <-out1:
			if got != want {
				t.Fatalf("out1: got %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for out1")
		}
		select {
		case got := <-out2:
			if got != want {
				t.Fatalf("out2: got %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for out2")
		}
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fan-out did not stop")
	}
}

func TestFanOutReturnsErrorOnSourceFailure(t *testing.T) {
	src := constSource{err: errors.New("boom")}
	stop := make(chan struct{})
	f := NewFanOut(src, nil)

	err := f.Run(stop)
	if err == nil {
		t.Fatal("expected error from failing source")
	}
}

// sequenceSource yields a fixed list of values once each, then parks on
// stop so the fan-out loop blocks instead of busy-looping once the
// scripted sequence is exhausted.
type sequenceSource struct {
	values []uint64
	i      int
	stop   <-chan struct{}
}

func (s *sequenceSource) Get() (uint64, error) {
	if s.i < len(s.values) {
		v := s.values[s.i]
		s.i++
		return v, nil
	}
	<-s.stop
	return 0, nil
}
