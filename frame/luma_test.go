package frame

import "testing"

func TestPerceivedLightnessAllBlack(t *testing.T) {
	rgb := make([]byte, 3*4)
	if got := PerceivedLightness(rgb, false, 4); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestPerceivedLightnessAllWhite(t *testing.T) {
	rgb := make([]byte, 3*4)
	for i := range rgb {
		rgb[i] = 255
	}
	if got := PerceivedLightness(rgb, false, 4); got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}

func TestPerceivedLightnessInverted(t *testing.T) {
	rgb := make([]byte, 3*4)
	for i := range rgb {
		rgb[i] = 255
	}
	if got := PerceivedLightness(rgb, true, 4); got != 0 {
		t.Fatalf("got %d, want 0 (inverted white)", got)
	}
}

func TestPerceivedLightnessDeterministic(t *testing.T) {
	rgb := []byte{10, 20, 30, 200, 100, 50}
	a := PerceivedLightness(rgb, false, 2)
	b := PerceivedLightness(rgb, false, 2)
	if a != b {
		t.Fatalf("not deterministic: %d != %d", a, b)
	}
}

func TestPerceivedLightnessZeroPixels(t *testing.T) {
	if got := PerceivedLightness(nil, false, 0); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
