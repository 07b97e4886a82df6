// Package config holds the fixed configuration shape wlsun runs with.
//
// There is deliberately no file parser here: config is a plain Go struct
// assembled by cmd/wlsun/main.go. Parsing a config file format is out of
// scope (§1 Non-goals).
package config

// ALSKind selects which ambient-light source backs the fan-out.
type ALSKind int

const (
	ALSNone ALSKind = iota
	ALSIIO
	ALSTime
	ALSWebcam
)

// ALSConfig configures the single ambient-light source shared by every
// output (§4.1, §4.2).
type ALSConfig struct {
	Kind ALSKind

	// Path is the IIO device's base sysfs directory, used when Kind is
	// ALSIIO.
	Path string

	// Video is the /dev/videoN index, used when Kind is ALSWebcam.
	Video int

	// TimeThresholds maps a "HH:MM" wall-clock time to the lux value that
	// holds from that moment on, used when Kind is ALSTime (als.NewTime).
	TimeThresholds map[string]uint64

	// Profiles is an optional named-profile table in the shape of
	// als.ProfileTable, for classifying a raw reading with als.FindProfile.
	// cmd/wlsun neither sets nor reads it.
	Profiles map[uint64]string
}

// BackendKind selects a brightness device backend.
type BackendKind int

const (
	BackendSysfs BackendKind = iota
	BackendDDC
)

// CapturerKind selects how an output's screen content is sampled for luma.
type CapturerKind int

const (
	CapturerNone CapturerKind = iota
	CapturerCompositor
)

// OutputConfig configures one learned display output (§3, §4.3, §4.4).
type OutputConfig struct {
	Name string

	Backend BackendKind
	// Path is the sysfs backlight name or the DDC/CI I²C bus device,
	// depending on Backend.
	Path string

	Capturer CapturerKind

	// Stateful controls whether this output's learned Data is loaded and
	// persisted to disk (§4.7). A non-stateful output still learns and
	// predicts for the lifetime of the process, it just never touches disk.
	Stateful bool
}

// KeyboardConfig configures one keyboard backlight (§4.8). A keyboard
// backlight has no Predictor and no capturer: it either mirrors a paired
// output's predictions or simply follows the user's own adjustments.
type KeyboardConfig struct {
	Name string

	Backend BackendKind
	Path    string

	// FollowsOutput names an OutputConfig whose predictions this keyboard
	// backlight mirrors. Empty means the keyboard backlight has no
	// predictor at all and only ever reflects user-initiated changes.
	FollowsOutput string
}

// Config is the complete, fixed runtime configuration for one wlsun
// process.
type Config struct {
	ALS       ALSConfig
	Outputs   []OutputConfig
	Keyboards []KeyboardConfig
}
