package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"codeberg.org/mutker/robotctl/internal/camera"
	"codeberg.org/mutker/robotctl/internal/chassis"
	"codeberg.org/mutker/robotctl/internal/config"
	"codeberg.org/mutker/robotctl/internal/control"
	"codeberg.org/mutker/robotctl/internal/drive"
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/feedback"
	"codeberg.org/mutker/robotctl/internal/gamepad"
	"codeberg.org/mutker/robotctl/internal/logger"
	"codeberg.org/mutker/robotctl/internal/metrics"
	"codeberg.org/mutker/robotctl/internal/pid"
	"codeberg.org/mutker/robotctl/internal/ratemon"
	"codeberg.org/mutker/robotctl/internal/servo"
	"codeberg.org/mutker/robotctl/internal/telemetry"
	"codeberg.org/mutker/robotctl/internal/vision"
)

// actuators is whatever drives the wheels, servos and buzzer
type actuators interface {
	control.Motor
	servo.Servo
	feedback.Player
}

type hardware struct {
	motor  control.Motor
	servo  servo.Servo
	player feedback.Player
}

// loopFunc is a control loop ready to run
type loopFunc func(ctx context.Context) error

type app struct {
	cfg      *config.Config
	log      logger.Logger
	hw       hardware
	loops    map[string]loopFunc
	services []loopFunc
	closers  []func()
}

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}

	logger.Init(level, logger.IsService())
	logger.Debug().Str("mode", string(cfg.Mode)).Msg("Config loaded")
}

func main() {
	guard := pid.New("")
	if err := guard.Acquire(); err != nil {
		logger.Fatal().Err(err).Str("pid_file", guard.Path()).Msg("robotctl is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	a := &app{cfg: cfg, log: logger.Default(), loops: make(map[string]loopFunc)}
	a.setup()

	err := a.run(ctx, cancel)
	cancel()
	a.cleanup()

	if err := guard.Release(); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove PID file")
	}

	if err != nil {
		logger.Error().Err(err).Msg("Exiting with error")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// setup opens the devices each enabled loop needs. A loop whose device is
// missing is logged and left out.
func (a *app) setup() {
	a.hw = a.openHardware()

	if a.cfg.Mode.Drive() {
		if loop, err := a.driveLoop(); err != nil {
			a.logStartup(err, "drive")
		} else {
			a.loops["drive"] = loop
		}
	}

	if a.cfg.Mode.Vision() {
		if loop, err := a.visionLoop(); err != nil {
			a.logStartup(err, "vision")
		} else {
			a.loops["vision"] = loop
		}
	}

	if a.cfg.Metrics.Listen != "" {
		a.services = append(a.services, func(ctx context.Context) error {
			return metrics.Serve(ctx, a.cfg.Metrics.Listen, a.log)
		})
	}
}

func (a *app) logStartup(err error, loop string) {
	var coded errors.Error
	if !errors.As(err, &coded) {
		coded = errors.New().Wrap(errors.ErrInitApp, err)
	}

	a.log.ErrorWithContext(coded, loop, "start").
		Stringer("kind", errors.KindOf(err)).
		Msg("Loop not started")
}

func (a *app) openHardware() hardware {
	if !a.cfg.Chassis.Enabled {
		sim := chassis.NewSimulated(a.log)
		a.log.Info().Msg("Chassis disabled, simulating actuators")
		return hardwareFrom(sim)
	}

	board, err := chassis.Open(chassis.Config{
		I2CBus:     a.cfg.Chassis.I2CBus,
		I2CAddress: a.cfg.Chassis.I2CAddress,
		PWMFreq:    a.cfg.Chassis.PWMFreq,
		BuzzerPin:  a.cfg.Chassis.BuzzerPin,
	}, a.log.With("chassis"))
	if err != nil {
		a.logStartup(err, "chassis")
		a.log.Warn().Msg("Falling back to simulated actuators")
		return hardwareFrom(chassis.NewSimulated(a.log))
	}

	a.closers = append(a.closers, func() {
		if err := board.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close chassis")
		}
	})

	return hardware{motor: board.Motor(), servo: board.Servo(), player: board.Buzzer()}
}

func hardwareFrom(act actuators) hardware {
	return hardware{motor: act, servo: act, player: act}
}

func (a *app) driveLoop() (loopFunc, error) {
	pad, err := gamepad.Open(a.cfg.Gamepad.Device, gamepad.Options{
		Hats:       a.cfg.Gamepad.Hats,
		QuitButton: a.cfg.Gamepad.ButtonQuit,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { pad.Close() })

	s := a.cfg.Servo
	router := servo.NewRouter(a.hw.servo, a.log, servo.Channel{
		ID:      s.Channel,
		Neutral: s.Neutral,
		A:       s.Up,
		B:       s.Down,
		Min:     s.Min,
		Max:     s.Max,
	})
	if err := router.Bind(a.cfg.Gamepad.ButtonUp, s.Channel, servo.ExtremeA); err != nil {
		return nil, err
	}
	if err := router.Bind(a.cfg.Gamepad.ButtonDown, s.Channel, servo.ExtremeB); err != nil {
		return nil, err
	}

	d := a.cfg.Drive
	loop := control.New(control.Config{
		Interval:         d.LoopInterval(),
		DeadZoneMovement: d.DeadZoneMovement,
		DeadZoneTurn:     d.DeadZoneTurn,
		InvertForward:    d.InvertForward,
		Axes: control.Axes{
			Forward: a.cfg.Gamepad.AxisForward,
			Strafe:  a.cfg.Gamepad.AxisStrafe,
			Turn:    a.cfg.Gamepad.AxisTurn,
		},
	}, pad, a.hw.motor, router, drive.NewMixer(d.MaxPWM, d.TurnScale), a.log)

	return loop.Run, nil
}

func (a *app) visionLoop() (loopFunc, error) {
	dict, err := vision.ParseDictionary(a.cfg.Vision.Dictionary)
	if err != nil {
		return nil, err
	}

	detector, err := vision.NewDetector(dict)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { detector.Close() })

	cam, err := camera.Open(camera.Config{
		Backend:      a.cfg.Camera.Backend,
		Device:       a.cfg.Camera.Device,
		Width:        a.cfg.Camera.Width,
		Height:       a.cfg.Camera.Height,
		FrameTimeout: a.cfg.Camera.FrameTimeout,
	}, a.log)
	if err != nil {
		return nil, err
	}

	recorder, err := telemetry.NewService(telemetry.Config{
		Enabled:      a.cfg.Telemetry.Enabled,
		DBPath:       a.cfg.Telemetry.DBPath,
		BatchSize:    a.cfg.Telemetry.BatchSize,
		BatchTimeout: time.Duration(a.cfg.Telemetry.BatchTimeout) * time.Second,
	}, a.log.With("telemetry"))
	if err != nil {
		a.log.Warn().Err(err).Msg("Telemetry unavailable, detections will not be recorded")
		recorder = nil
	} else {
		a.closers = append(a.closers, func() {
			if err := recorder.Close(); err != nil {
				a.log.Warn().Err(err).Msg("Failed to close telemetry")
			}
		})
	}

	queue := feedback.NewQueue(a.cfg.Feedback.QueueSize)
	scheduler := feedback.NewScheduler(feedback.SystemClock)
	dispatcher := feedback.NewDispatcher(queue, scheduler, a.cfg.Feedback.Delay, a.log)

	counter := ratemon.NewFpsCounter(time.Now())
	monitor := ratemon.NewMonitor(counter, a.cfg.Monitor.Interval, a.log,
		ratemon.LogReporter(a.log.With("ratemon")),
		ratemon.GaugeReporter(),
	)

	opts := []vision.Option{}
	if a.cfg.Vision.SaveImages {
		opts = append(opts, vision.WithAnnotator(&vision.Annotator{Dir: a.cfg.Vision.OutputDir}))
	}
	if recorder != nil {
		opts = append(opts, vision.WithRecorder(recorder))
	}
	pipeline := vision.NewPipeline(cam, detector, dispatcher, counter, a.log, opts...)

	player := a.hw.player
	a.services = append(a.services,
		func(ctx context.Context) error { return scheduler.Run(ctx) },
		func(ctx context.Context) error { monitor.Run(ctx); return nil },
		func(ctx context.Context) error { feedback.Consume(ctx, queue, player, a.log); return nil },
	)

	return pipeline.Run, nil
}

// run starts every loop and background service. The first loop to end
// stops the rest; its error, if any, is returned.
func (a *app) run(ctx context.Context, cancel context.CancelFunc) error {
	if len(a.loops) == 0 {
		return errors.New().WithMessage(errors.ErrDeviceUnavailable, "no control loop could be started")
	}

	serviceCtx, stopServices := context.WithCancel(context.Background())
	var services sync.WaitGroup
	for _, svc := range a.services {
		services.Add(1)
		go func(svc loopFunc) {
			defer services.Done()
			if err := svc(serviceCtx); err != nil {
				a.log.Warn().Err(err).Msg("Background service stopped")
			}
		}(svc)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for name, loop := range a.loops {
		wg.Add(1)
		go func(name string, loop loopFunc) {
			defer wg.Done()
			defer cancel()

			if err := loop(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.New().Wrap(loopErrorCode(name), err)
				}
				mu.Unlock()
			}
		}(name, loop)
	}

	wg.Wait()
	stopServices()
	services.Wait()

	return firstErr
}

func loopErrorCode(name string) errors.ErrorCode {
	if name == "vision" {
		return errors.ErrVisionLoop
	}

	return errors.ErrDriveLoop
}

// cleanup releases devices in reverse order of opening
func (a *app) cleanup() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
