package als

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewIIOIlluminance(t *testing.T) {
	base := t.TempDir()
	dev := filepath.Join(base, "iio:device0")
	writeFile(t, filepath.Join(dev, "name"), "als\n")
	writeFile(t, filepath.Join(dev, "in_illuminance_raw"), "100\n")
	writeFile(t, filepath.Join(dev, "in_illuminance_scale"), "2\n")
	writeFile(t, filepath.Join(dev, "in_illuminance_offset"), "5\n")

	src, err := NewIIO(base)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := src.Get()
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(210); got != want { // (100+5)*2
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestNewIIOIlluminanceDefaultsScaleOffset(t *testing.T) {
	base := t.TempDir()
	dev := filepath.Join(base, "iio:device0")
	writeFile(t, filepath.Join(dev, "name"), "acpi-als\n")
	writeFile(t, filepath.Join(dev, "in_illuminance_raw"), "50\n")

	src, err := NewIIO(base)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := src.Get()
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestNewIIOFallsBackToIntensity(t *testing.T) {
	base := t.TempDir()
	dev := filepath.Join(base, "iio:device0")
	writeFile(t, filepath.Join(dev, "name"), "als\n")
	writeFile(t, filepath.Join(dev, "in_intensity_red_raw"), "10\n")
	writeFile(t, filepath.Join(dev, "in_intensity_green_raw"), "10\n")
	writeFile(t, filepath.Join(dev, "in_intensity_blue_raw"), "10\n")

	src, err := NewIIO(base)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := src.Get()
	if err != nil {
		t.Fatal(err)
	}
	// -0.32466*10 + 1.57837*10 - 0.73191*10 = 5.218
	if got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestNewIIOIntensityClampsNegative(t *testing.T) {
	base := t.TempDir()
	dev := filepath.Join(base, "iio:device0")
	writeFile(t, filepath.Join(dev, "name"), "als\n")
	writeFile(t, filepath.Join(dev, "in_intensity_red_raw"), "1000\n")
	writeFile(t, filepath.Join(dev, "in_intensity_green_raw"), "0\n")
	writeFile(t, filepath.Join(dev, "in_intensity_blue_raw"), "0\n")

	src, err := NewIIO(base)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := src.Get()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("got %d, want 0 (clamped)", got)
	}
}

func TestNewIIOSkipsUnrelatedEntries(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "iio:device0", "name"), "bmp280\n")
	dev1 := filepath.Join(base, "iio:device1")
	writeFile(t, filepath.Join(dev1, "name"), "als\n")
	writeFile(t, filepath.Join(dev1, "in_illuminance_raw"), "7\n")

	src, err := NewIIO(base)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := src.Get()
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestNewIIONoDevice(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "iio:device0", "name"), "bmp280\n")

	if _, err := NewIIO(base); err == nil {
		t.Fatal("expected error when no als device is present")
	}
}
