package brightness

import "testing"

type fakeBackend struct {
	cur uint64
	max uint64
}

func (f *fakeBackend) Get() (uint64, error) { return f.cur, nil }
func (f *fakeBackend) Set(v uint64) error   { f.cur = v; return nil }
func (f *fakeBackend) Max() (uint64, error) { return f.max, nil }

func TestNewControllerSendsInitialHandshake(t *testing.T) {
	backend := &fakeBackend{cur: 42, max: 100}
	predictionRx := make(chan uint64, 1)
	userTx := make(chan uint64, 1)

	if _, err := NewController(backend, predictionRx, userTx, "test"); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-userTx:
		if v != 42 {
			t.Fatalf("handshake value = %d, want 42", v)
		}
	default:
		t.Fatal("expected an initial handshake value on userTx")
	}
}

func TestTickRampsTowardTargetGradually(t *testing.T) {
	backend := &fakeBackend{cur: 0, max: 100}
	predictionRx := make(chan uint64, 1)
	userTx := make(chan uint64, 1)
	c, err := NewController(backend, predictionRx, userTx, "test")
	if err != nil {
		t.Fatal(err)
	}
	<-userTx // drain handshake

	predictionRx <- 100
	if err := c.tick(); err != nil {
		t.Fatal(err)
	}
	if backend.cur == 0 || backend.cur >= 100 {
		t.Fatalf("expected a partial ramp step, got %d", backend.cur)
	}

	steps := 1
	for backend.cur != 100 && steps < 1000 {
		if err := c.tick(); err != nil {
			t.Fatal(err)
		}
		steps++
	}
	if backend.cur != 100 {
		t.Fatalf("did not converge to target, stuck at %d", backend.cur)
	}
}

func TestTickForwardsExternalChangeAsUserEvent(t *testing.T) {
	backend := &fakeBackend{cur: 50, max: 100}
	predictionRx := make(chan uint64, 1)
	userTx := make(chan uint64, 1)
	c, err := NewController(backend, predictionRx, userTx, "test")
	if err != nil {
		t.Fatal(err)
	}
	<-userTx // drain handshake

	backend.cur = 70 // simulate the user moving a physical hotkey
	if err := c.tick(); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-userTx:
		if v != 70 {
			t.Fatalf("forwarded user value = %d, want 70", v)
		}
	default:
		t.Fatal("expected the external change to be forwarded on userTx")
	}
	if c.target != 70 {
		t.Fatalf("target = %d, want 70 (controller should stop fighting the user)", c.target)
	}
}

func TestTickNoOpWhenAtTarget(t *testing.T) {
	backend := &fakeBackend{cur: 50, max: 100}
	predictionRx := make(chan uint64, 1)
	userTx := make(chan uint64, 1)
	c, err := NewController(backend, predictionRx, userTx, "test")
	if err != nil {
		t.Fatal(err)
	}
	<-userTx

	if err := c.tick(); err != nil {
		t.Fatal(err)
	}
	if backend.cur != 50 {
		t.Fatalf("expected no change at target, got %d", backend.cur)
	}
	select {
	case v := <-userTx:
		t.Fatalf("unexpected userTx event %d with no change", v)
	default:
	}
}

func TestRampStepMinimumOneUnit(t *testing.T) {
	if got := rampStep(10, 11); got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
	if got := rampStep(11, 10); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
}

func TestRampStepNeverOvershoots(t *testing.T) {
	if got := rampStep(0, 3); got > 3 {
		t.Fatalf("got %d, should not overshoot target 3", got)
	}
}
