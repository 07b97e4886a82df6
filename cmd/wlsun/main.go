// wlsun adaptively drives display and keyboard backlights by learning the
// user's brightness preference against ambient light and screen content.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maximbaz/wlsun/als"
	"github.com/maximbaz/wlsun/brightness"
	"github.com/maximbaz/wlsun/config"
	"github.com/maximbaz/wlsun/frame"
	"github.com/maximbaz/wlsun/predictor"
)

var verbose = os.Getenv("WLSUN_LOG") == "debug"

func debugf(format string, args ...interface{}) {
	if verbose {
		log.Printf(format, args...)
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("wlsun: fatal: %v", r)
			os.Exit(1)
		}
	}()

	cfg := parseFlags()
	if err := run(cfg); err != nil {
		log.Printf("wlsun: %v", err)
		os.Exit(1)
	}
}

func parseFlags() config.Config {
	alsKind := flag.String("als", "iio", "ambient light source: iio, time, webcam, none")
	alsPath := flag.String("als-path", "/sys/bus/iio/devices", "IIO devices base path (als=iio)")
	alsVideo := flag.Int("als-video", 0, "/dev/videoN index (als=webcam)")

	outputName := flag.String("output", "", "output name, used in logs and for the learned-data file")
	outputBackend := flag.String("output-backend", "sysfs", "backlight backend: sysfs, ddc")
	outputPath := flag.String("output-path", "", "sysfs backlight name or DDC I2C bus device")
	stateful := flag.Bool("stateful", true, "persist learned data to disk for this output")

	keyboardName := flag.String("keyboard", "", "keyboard backlight name, empty disables it")
	keyboardBackend := flag.String("keyboard-backend", "sysfs", "keyboard backlight backend: sysfs, ddc")
	keyboardPath := flag.String("keyboard-path", "", "sysfs keyboard backlight name")
	keyboardFollows := flag.String("keyboard-follows", "", "output name whose predictions the keyboard mirrors")

	flag.Parse()

	cfg := config.Config{
		ALS: config.ALSConfig{
			Path:  *alsPath,
			Video: *alsVideo,
		},
	}
	switch *alsKind {
	case "time":
		cfg.ALS.Kind = config.ALSTime
	case "webcam":
		cfg.ALS.Kind = config.ALSWebcam
	case "none":
		cfg.ALS.Kind = config.ALSNone
	default:
		cfg.ALS.Kind = config.ALSIIO
	}

	if *outputName != "" {
		out := config.OutputConfig{
			Name:     *outputName,
			Path:     *outputPath,
			Capturer: config.CapturerNone,
			Stateful: *stateful,
		}
		if *outputBackend == "ddc" {
			out.Backend = config.BackendDDC
		}
		cfg.Outputs = append(cfg.Outputs, out)
	}

	if *keyboardName != "" {
		kb := config.KeyboardConfig{
			Name:          *keyboardName,
			Path:          *keyboardPath,
			FollowsOutput: *keyboardFollows,
		}
		if *keyboardBackend == "ddc" {
			kb.Backend = config.BackendDDC
		}
		cfg.Keyboards = append(cfg.Keyboards, kb)
	}

	return cfg
}

// run wires the whole fabric described by cfg under one errgroup.Group and
// blocks until a goroutine fails or the process is killed (§2, §5).
func run(cfg config.Config) error {
	if len(cfg.Outputs) == 0 {
		return fmt.Errorf("wlsun: no output configured (pass -output)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	stop := ctx.Done()

	source, webcamSampler, err := buildALSSource(cfg.ALS)
	if err != nil {
		return err
	}
	if webcamSampler != nil {
		g.Go(guard("als-webcam", func() error { return webcamSampler.Run(stop) }))
	}

	var fanOuts []chan<- uint64
	// predictionBroadcast[output.Name] lets keyboard backlights mirror an
	// output's predictions (§4.8) without racing the output's own
	// brightness controller for the same values. It is fully populated
	// before any broadcaster goroutine is started, below.
	predictionBroadcast := map[string][]chan<- uint64{}

	type wiredOutput struct {
		name          string
		capturer      config.CapturerKind
		predictionCh  chan uint64
		brightnessCh  chan uint64
		brightnessCtl *brightness.Controller
		predictorCtl  *predictor.Controller
	}
	var wired []wiredOutput

	for _, out := range cfg.Outputs {
		alsCh := make(chan uint64, 1)
		fanOuts = append(fanOuts, alsCh)

		backend, err := buildBackend(out.Backend, out.Path)
		if err != nil {
			return fmt.Errorf("wlsun: output %s: %v", out.Name, err)
		}

		userCh := make(chan uint64, 1)
		predictionCh := make(chan uint64, 1)
		brightnessCh := make(chan uint64, 1)
		predictionBroadcast[out.Name] = append(predictionBroadcast[out.Name], brightnessCh)

		brightnessCtl, err := brightness.NewController(backend, brightnessCh, userCh, out.Name)
		if err != nil {
			return fmt.Errorf("wlsun: output %s: %v", out.Name, err)
		}
		predictorCtl, err := predictor.New(predictionCh, userCh, alsCh, out.Stateful, out.Name)
		if err != nil {
			return fmt.Errorf("wlsun: output %s: %v", out.Name, err)
		}

		wired = append(wired, wiredOutput{
			name:          out.Name,
			capturer:      out.Capturer,
			predictionCh:  predictionCh,
			brightnessCh:  brightnessCh,
			brightnessCtl: brightnessCtl,
			predictorCtl:  predictorCtl,
		})
	}

	for _, kb := range cfg.Keyboards {
		kbCopy := kb
		backend, err := buildBackend(kb.Backend, kb.Path)
		if err != nil {
			return fmt.Errorf("wlsun: keyboard %s: %v", kb.Name, err)
		}

		userCh := make(chan uint64, 1)
		brightnessCh := make(chan uint64, 1)
		if kb.FollowsOutput != "" {
			predictionBroadcast[kb.FollowsOutput] = append(predictionBroadcast[kb.FollowsOutput], brightnessCh)
		}

		brightnessCtl, err := brightness.NewController(backend, brightnessCh, userCh, kb.Name)
		if err != nil {
			return fmt.Errorf("wlsun: keyboard %s: %v", kb.Name, err)
		}
		g.Go(guard("brightness-"+kbCopy.Name, func() error { return brightnessCtl.Run(stop) }))
		// A keyboard backlight with no predictor still needs its user_rx
		// drained so the brightness controller's handshake send never
		// blocks a full buffer; nothing else reads it, so just discard.
		g.Go(guard("drain-"+kbCopy.Name, func() error { return drainForever(stop, userCh) }))
	}

	// predictionBroadcast is fully populated now (every keyboard that
	// follows an output has registered its channel), so it's safe to start
	// reading it concurrently from here on.
	for _, w := range wired {
		w := w
		g.Go(guard("brightness-"+w.name, func() error { return w.brightnessCtl.Run(stop) }))
		g.Go(guard("predictor-"+w.name, func() error {
			return runCapturer(stop, w.capturer, w.predictorCtl)
		}))
		g.Go(guard("broadcast-"+w.name, func() error {
			return broadcastPredictions(stop, w.predictionCh, predictionBroadcast[w.name])
		}))
	}

	g.Go(guard("als-fanout", func() error {
		return als.NewFanOut(source, fanOuts).Run(stop)
	}))

	return g.Wait()
}

// broadcastPredictions fans every value predictor sends on predictionCh out
// to every brightness controller subscribed to it (the output's own, plus
// any keyboard backlight mirroring it, per §4.8).
func broadcastPredictions(stop <-chan struct{}, predictionCh <-chan uint64, outs []chan<- uint64) error {
	for {
		select {
		case <-stop:
			return nil
		case v := <-predictionCh:
			for _, out := range outs {
				select {
				case out <- v:
				case <-stop:
					return nil
				}
			}
		}
	}
}

func drainForever(stop <-chan struct{}, ch <-chan uint64) error {
	for {
		select {
		case <-stop:
			return nil
		case <-ch:
		}
	}
}

func runCapturer(stop <-chan struct{}, kind config.CapturerKind, adj frame.Adjuster) error {
	switch kind {
	case config.CapturerCompositor:
		// The wlroots screencopy capturer is an external collaborator and
		// intentionally not implemented here (§4.5); fall back to the
		// no-op ticking source rather than fail the process.
		log.Printf("wlsun: compositor capturer requested but not implemented, falling back to ambient-only ticking")
		fallthrough
	default:
		tick := make(chan struct{})
		go func() {
			t := time.NewTicker(time.Second)
			defer t.Stop()
			for {
				select {
				case <-stop:
					close(tick)
					return
				case <-t.C:
					select {
					case tick <- struct{}{}:
					case <-stop:
						close(tick)
						return
					}
				}
			}
		}()
		return frame.None{Tick: tick}.Run(stop, adj)
	}
}

func buildALSSource(cfg config.ALSConfig) (als.Source, *als.WebcamSampler, error) {
	switch cfg.Kind {
	case config.ALSIIO:
		src, err := als.NewIIO(cfg.Path)
		return src, nil, err
	case config.ALSTime:
		src, err := als.NewTime(cfg.TimeThresholds)
		return src, nil, err
	case config.ALSWebcam:
		samples := make(chan uint64, 4)
		sampler, err := als.NewWebcamSampler(cfg.Video, samples)
		if err != nil {
			return nil, nil, err
		}
		return als.NewWebcamSource(samples), sampler, nil
	default:
		return als.None{}, nil, nil
	}
}

func buildBackend(kind config.BackendKind, path string) (brightness.Backend, error) {
	if kind == config.BackendDDC {
		return brightness.NewDDC(path)
	}
	return brightness.NewSysfs(path)
}

// guard wraps fn so a programmer-error panic (nil pointer, index out of
// range) in a supervised goroutine is logged and aborts the process via
// os.Exit(1), rather than unwinding into the runtime's default crash
// handler or being silently lost inside errgroup (§7).
func guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("wlsun: %s: panic: %v", name, r)
				os.Exit(1)
			}
		}()
		return fn()
	}
}
