package als

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/maximbaz/wlsun/internal/devfile"
)

// iioNames are the sysfs "name" file contents that identify a candidate ALS
// device under an iio:deviceN entry.
var iioNames = map[string]bool{"als": true, "acpi-als": true}

// IIO reads an ambient-light sensor exposed through the Linux Industrial
// I/O (iio) sysfs interface, preferring a direct illuminance channel and
// falling back to a red/green/blue intensity triple when illuminance files
// are absent.
type IIO struct {
	illuminance *devfile.Handle
	scale       float64
	offset      float64

	red, green, blue *devfile.Handle
}

// NewIIO scans basePath (typically "/sys/bus/iio/devices") for the first
// entry whose "name" file is "als" or "acpi-als", and opens whichever
// channel files it exposes.
func NewIIO(basePath string) (*IIO, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("als-iio: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		dir := filepath.Join(basePath, e.Name())
		name, err := devfile.ReadString(filepath.Join(dir, "name"))
		if err != nil || !iioNames[name] {
			continue
		}
		if src, err := newIlluminance(dir); err == nil {
			return src, nil
		}
		if src, err := newIntensity(dir); err == nil {
			return src, nil
		}
	}
	return nil, fmt.Errorf("als-iio: no illuminance or intensity device found under %s", basePath)
}

func newIlluminance(dir string) (*IIO, error) {
	h, err := devfile.OpenHandle(filepath.Join(dir, "in_illuminance_raw"))
	if err != nil {
		return nil, err
	}
	scale := readFloatOrDefault(filepath.Join(dir, "in_illuminance_scale"), 1)
	offset := readFloatOrDefault(filepath.Join(dir, "in_illuminance_offset"), 0)
	return &IIO{illuminance: h, scale: scale, offset: offset}, nil
}

func newIntensity(dir string) (*IIO, error) {
	r, err := devfile.OpenHandle(filepath.Join(dir, "in_intensity_red_raw"))
	if err != nil {
		return nil, err
	}
	g, err := devfile.OpenHandle(filepath.Join(dir, "in_intensity_green_raw"))
	if err != nil {
		r.Close()
		return nil, err
	}
	b, err := devfile.OpenHandle(filepath.Join(dir, "in_intensity_blue_raw"))
	if err != nil {
		r.Close()
		g.Close()
		return nil, err
	}
	return &IIO{red: r, green: g, blue: b}, nil
}

// readFloatOrDefault reads path as a decimal integer and returns def when
// the file is absent or unreadable, per spec §4.1 ("scale and offset
// default to 1 and 0 when the corresponding files are absent").
func readFloatOrDefault(path string, def float64) float64 {
	v, err := devfile.ReadInt(path)
	if err != nil {
		return def
	}
	return float64(v)
}

// Get implements Source.
func (s *IIO) Get() (uint64, error) {
	if s.illuminance != nil {
		raw, err := s.illuminance.ReadInt()
		if err != nil {
			return 0, fmt.Errorf("als-iio: %v", err)
		}
		v := (float64(raw) + s.offset) * s.scale
		return clampToUint64(v), nil
	}

	r, err := s.red.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("als-iio: %v", err)
	}
	g, err := s.green.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("als-iio: %v", err)
	}
	b, err := s.blue.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("als-iio: %v", err)
	}
	v := -0.32466*float64(r) + 1.57837*float64(g) - 0.73191*float64(b)
	return clampToUint64(v), nil
}

// clampToUint64 clamps a possibly-negative float at zero before converting
// to uint64, resolving spec §9's open question on the RGB-intensity
// formula going negative under some sensors.
func clampToUint64(v float64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// Close releases the open channel file handles.
func (s *IIO) Close() error {
	for _, h := range []*devfile.Handle{s.illuminance, s.red, s.green, s.blue} {
		if h != nil {
			h.Close()
		}
	}
	return nil
}

var _ Source = (*IIO)(nil)
