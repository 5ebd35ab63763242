package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/cjeanneret/ScreenGo/internal/config"
	"github.com/cjeanneret/ScreenGo/internal/debug"
	"github.com/cjeanneret/ScreenGo/internal/device"
	"github.com/cjeanneret/ScreenGo/internal/hw/gpio"
	"github.com/cjeanneret/ScreenGo/internal/logic/capture"
	"github.com/cjeanneret/ScreenGo/internal/logic/naming"
	"github.com/cjeanneret/ScreenGo/internal/notify"
	"github.com/cjeanneret/ScreenGo/internal/trigger"
	"github.com/cjeanneret/ScreenGo/internal/web"
)

const toolName = "screengo"

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

const description = `Gets a screenshot from a connected device.

The image is in PNG format for iOS 9+ and otherwise in TIFF format.
The screenshot is saved as an image with the given FILE name.
If FILE has no extension, FILE will be a prefix of the saved filename.
If FILE is not specified, "screenshot-DATE", will be used as a prefix
of the filename, e.g.:
   ./screenshot-2013-12-31-23-59-59.tiff

NOTE: A mounted developer disk image is required on iOS devices, otherwise
the screenshotr service is not available.`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := newApp(os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by the app to the process exit status.
func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

// newApp builds the command line interface. User-facing status goes to out.
func newApp(out io.Writer) *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s %s\n", toolName, cCtx.App.Version)
	}

	return &cli.App{
		Name:            toolName,
		Usage:           "take screenshots of a mobile device",
		UsageText:       toolName + " [OPTIONS] [FILE]",
		Description:     description,
		Version:         version,
		Writer:          out,
		ErrWriter:       out,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "udid", Aliases: []string{"u"}, Usage: "target specific device by `UDID`"},
			&cli.BoolFlag{Name: "network", Aliases: []string{"n"}, Usage: "connect to network device"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable communication debugging"},
			&cli.IntFlag{Name: "rate", Aliases: []string{"r"}, Usage: "take screenshots at specified frame rate (use with --join or a FILE containing a %d format specifier)"},
			&cli.BoolFlag{Name: "join", Aliases: []string{"j"}, Usage: "save screen series joined in single file, suitable for ffmpeg *_pipe inputs"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load settings from YAML `FILE`"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "device platform: ios, android or mock"},
			&cli.StringFlag{Name: "web", Aliases: []string{"w"}, Usage: "serve a live preview on `PORT`"},
		},
		// Bad usage prints the help text and exits successfully.
		OnUsageError: func(cCtx *cli.Context, err error, isSubcommand bool) error {
			return cli.ShowAppHelp(cCtx)
		},
		ExitErrHandler: func(*cli.Context, error) {},
		Action:         run,
	}
}

// run is the main action: it applies flags over the configuration, opens
// the device and drives the capture loop.
func run(cCtx *cli.Context) error {
	out := cCtx.App.Writer

	if cCtx.NArg() > 1 {
		return cli.ShowAppHelp(cCtx)
	}
	if cCtx.IsSet("udid") && cCtx.String("udid") == "" {
		return cli.ShowAppHelp(cCtx)
	}
	if cCtx.IsSet("rate") && cCtx.Int("rate") <= 0 {
		return cli.ShowAppHelp(cCtx)
	}

	cfg, err := config.Load(cCtx.String("config"))
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err)
		return cli.Exit("", 1)
	}
	if err := applyFlags(cCtx, cfg); err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err)
		return cli.Exit("", 1)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	if cCtx.Bool("debug") {
		debug.EnableProtocolLogging()
	}

	runID := uuid.NewString()
	debug.Section("Initialization")
	debug.Value("Run ID", runID)
	debug.Value("Config path", cCtx.String("config"))
	debug.PrintStruct("Config", *cfg)

	debug.Step(1, "Opening device")
	dev, err := device.Open(device.Options{
		Platform: cfg.Device.Platform,
		UDID:     cfg.Device.UDID,
		Network:  cfg.Device.Network,
	})
	if err != nil {
		reportOpenError(out, cfg.Device.UDID, err)
		return cli.Exit("", 1)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			debug.Error(fmt.Errorf("closing device: %w", err))
		}
	}()

	var observers []capture.Observer

	ctx, stop := context.WithCancel(cCtx.Context)
	defer stop()

	if cfg.Notify.MQTT.Broker != "" {
		debug.Step(2, "Connecting frame notifications")
		clientID := cfg.Notify.MQTT.ClientID
		if clientID == "" {
			clientID = toolName + "-" + runID
		}
		pub := notify.NewMQTT(notify.MQTTConfig{
			Broker:   cfg.Notify.MQTT.Broker,
			Topic:    cfg.Notify.MQTT.Topic,
			ClientID: clientID,
			RunID:    runID,
		})
		if err := pub.Connect(ctx); err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", err)
			return cli.Exit("", 1)
		}
		defer pub.Close()
		observers = append(observers, pub)
	}

	webDone := make(chan error, 1)
	if cfg.Web.Port > 0 {
		debug.Step(3, "Starting preview server")
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
		store := web.NewFrameStore(broadcaster)
		observers = append(observers, store)

		srv, err := web.NewServer(":"+strconv.Itoa(cfg.Web.Port), broadcaster, store, web.RunInfo{
			RunID:    runID,
			Platform: cfg.Device.Platform,
			UDID:     cfg.Device.UDID,
			Network:  cfg.Device.Network,
			Output:   cfg.Capture.Output,
			Rate:     cfg.Capture.Rate,
			Join:     cfg.Capture.Join,
			Trigger:  cfg.Trigger.Type,
		})
		if err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", err)
			return cli.Exit("", 1)
		}
		go func() { webDone <- srv.Run(ctx) }()
	} else {
		webDone <- nil
	}

	params := capture.Params{
		Output: cfg.Capture.Output,
		Join:   cfg.Capture.Join,
	}
	if cfg.Periodic() {
		src, err := newTrigger(cfg)
		if err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", err)
			return cli.Exit("", 1)
		}
		defer src.Stop()
		params.Ticks = src.C()
	}

	debug.Section("Capturing")
	resolver := naming.NewResolver(cfg.Capture.MaxNameAttempts, out)
	loop := capture.NewLoop(dev, resolver, out, observers...)
	st, err := loop.Run(ctx, params)
	debug.Summary(fmt.Sprintf("%d frame(s) saved, %d attempt(s), %d capture failure(s)",
		st.Frames, st.Attempts, st.CaptureFailures))

	stop()
	if werr := <-webDone; werr != nil {
		debug.Error(fmt.Errorf("web server: %w", werr))
	}

	if err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cCtx *cli.Context, cfg *config.Config) error {
	if cCtx.IsSet("udid") {
		cfg.Device.UDID = cCtx.String("udid")
	}
	if cCtx.IsSet("network") {
		cfg.Device.Network = cCtx.Bool("network")
	}
	if cCtx.IsSet("platform") {
		cfg.Device.Platform = cCtx.String("platform")
	}
	if cCtx.IsSet("rate") {
		cfg.Capture.Rate = cCtx.Int("rate")
	}
	if cCtx.IsSet("join") {
		cfg.Capture.Join = cCtx.Bool("join")
	}
	if cCtx.NArg() == 1 {
		cfg.Capture.Output = cCtx.Args().First()
	}
	if cCtx.IsSet("web") {
		port, err := parsePort(cCtx.String("web"))
		if err != nil {
			return err
		}
		cfg.Web.Port = port
	}
	if cCtx.Bool("debug") && cfg.Defaults.DebugLevel < debug.LevelVerbose {
		cfg.Defaults.DebugLevel = debug.LevelVerbose
	}
	return cfg.Validate()
}

// parsePort accepts an empty value for the default preview port.
func parsePort(s string) (int, error) {
	if s == "" {
		return 8080, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid web port %q", s)
	}
	if v <= 0 || v > 65535 {
		return 0, fmt.Errorf("port must be 1-65535, got %d", v)
	}
	return v, nil
}

// newTrigger selects the tick source for periodic captures.
func newTrigger(cfg *config.Config) (trigger.Source, error) {
	switch cfg.Trigger.Type {
	case config.TriggerGPIO:
		drv, err := gpio.NewDriver(cfg.Trigger.MockGPIO)
		if err != nil {
			return nil, fmt.Errorf("init GPIO failed: %w", err)
		}
		btn, err := trigger.NewButton(drv, cfg.Trigger.GPIOPin, cfg.PollInterval())
		if err != nil {
			drv.Close()
			return nil, err
		}
		return &closingSource{Source: btn, closer: drv}, nil
	default:
		return trigger.NewInterval(cfg.Capture.Rate)
	}
}

// closingSource releases the GPIO driver once the button stops polling.
type closingSource struct {
	trigger.Source
	closer io.Closer
}

func (s *closingSource) Stop() {
	s.Source.Stop()
	if err := s.closer.Close(); err != nil {
		debug.Error(fmt.Errorf("closing GPIO driver: %w", err))
	}
}

// reportOpenError prints the user-facing message for a failed device session.
func reportOpenError(out io.Writer, udid string, err error) {
	debug.Error(err)
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		if udid != "" {
			fmt.Fprintf(out, "No device found with udid %s.\n", udid)
		} else {
			fmt.Fprintln(out, "No device found.")
		}
	case errors.Is(err, device.ErrServiceUnavailable):
		fmt.Fprintln(out, "Could not start screenshotr service! Remember that you have to mount the Developer disk image on your device if you want to use the screenshotr service.")
	default:
		fmt.Fprintf(out, "ERROR: Could not connect to device: %v\n", err)
	}
}
