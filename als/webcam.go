package als

import (
	"log"
	"time"

	"github.com/maximbaz/wlsun/frame"
	"github.com/maximbaz/wlsun/kalman"
)

const (
	webcamDefaultLux    = 100
	webcamSampleSleep   = 2 * time.Second
	webcamKalmanQ       = 1.0
	webcamKalmanR       = 20.0
	webcamKalmanP       = 10.0
)

// WebcamSampler owns the V4L2 device handle and runs on its own goroutine,
// capturing one frame roughly every two seconds, reducing it to a
// perceived-lightness byte and smoothing it with its own Kalman filter
// before pushing it onto samples.
//
// It is the single producer for the Webcam Source's cache; nothing else may
// touch the device handle.
type WebcamSampler struct {
	dev     *v4l2Device
	kalman  *kalman.Filter
	samples chan<- uint64
}

// NewWebcamSampler opens /dev/video<index> and negotiates the largest
// discrete RGB3 framesize it advertises.
func NewWebcamSampler(index int, samples chan<- uint64) (*WebcamSampler, error) {
	dev, err := openV4L2Device(index)
	if err != nil {
		return nil, err
	}
	return &WebcamSampler{
		dev:     dev,
		kalman:  kalman.New(webcamKalmanQ, webcamKalmanR, webcamKalmanP),
		samples: samples,
	}, nil
}

// Run captures frames forever, sleeping webcamSampleSleep between attempts.
// A single frame-capture failure is logged, no sample is sent for that
// iteration, and capture is retried on the next one (§7).
func (s *WebcamSampler) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if rgb, pixels, err := s.dev.captureFrame(); err == nil {
			luxRaw := uint64(frame.PerceivedLightness(rgb, false, pixels))
			lux := s.kalman.Process(luxRaw)
			s.samples <- lux
		} else {
			log.Printf("%v", err)
		}

		select {
		case <-stop:
			return nil
		case <-time.After(webcamSampleSleep):
		}
	}
}

// Close releases the underlying device.
func (s *WebcamSampler) Close() error {
	return s.dev.close()
}

// Webcam is the Source exposed to a predictor: it drains whatever the
// WebcamSampler has produced since the last Get and caches the most recent
// value, per spec §4.1 and the testable property in spec §8.2.
type Webcam struct {
	samples <-chan uint64
	last    uint64
}

// NewWebcamSource wraps a channel fed by a WebcamSampler. The cache starts
// at webcamDefaultLux until the first sample arrives.
func NewWebcamSource(samples <-chan uint64) *Webcam {
	return &Webcam{samples: samples, last: webcamDefaultLux}
}

// Get drains every queued sample and returns the most recent one, or the
// cached last-known value if none arrived since the previous call.
func (w *Webcam) Get() (uint64, error) {
	for {
		select {
		case v := <-w.samples:
			w.last = v
		default:
			return w.last, nil
		}
	}
}

var _ Source = (*Webcam)(nil)
