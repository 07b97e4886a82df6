// Package frame defines the boundary between wlsun and whatever captures
// on-screen pixels: the Capturer interface (a compositor screencopy
// backend, treated as an external collaborator) and the one piece of real
// logic that belongs to this repo — reducing a captured frame to a single
// perceived-lightness byte.
package frame

// PerceivedLightness reduces a tightly-packed 8-bit-per-channel RGB buffer
// to a single byte in [0, 100] representing perceived lightness, per spec
// §4.5.
//
// It uses the standard luminance-weighted average of the R, G and B
// components (ITU-R BT.601 coefficients); invert flips the result so that
// 0 means brightest and 100 means darkest, for callers that want the
// opposite polarity. The function is pure and deterministic: bit-exact
// agreement with any other implementation is not required by the spec,
// only determinism given identical inputs.
func PerceivedLightness(rgb []byte, invert bool, pixels int) uint8 {
	if pixels <= 0 {
		return 0
	}

	var sum float64
	n := pixels
	if max := len(rgb) / 3; max < n {
		n = max
	}
	for i := 0; i < n; i++ {
		r := float64(rgb[i*3+0])
		g := float64(rgb[i*3+1])
		b := float64(rgb[i*3+2])
		sum += 0.299*r + 0.587*g + 0.114*b
	}
	if n == 0 {
		return 0
	}

	avg := sum / float64(n) / 255 * 100
	if invert {
		avg = 100 - avg
	}
	if avg < 0 {
		avg = 0
	}
	if avg > 100 {
		avg = 100
	}
	return uint8(avg)
}
