package main

import (
	"io"
	golog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logbothps/hps/hps"
	"github.com/paypal/gatt"
	"github.com/paypal/gatt/examples/option"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cmd/peripheral advertises the HTTP Proxy Service and proxies requests to
// the network on behalf of a connected central. Grounded on
// peripheral/main.go's main/init/onStateChanged/advertisePeriodically,
// generalized from flag to cobra and from package-level globals to an
// injected *hps.Server.

var (
	name       string
	timeout    int
	mtu        int
	configPath string
	level      string
	consoleLog bool

	poweredOn bool
)

func init() {
	golog.SetOutput(io.Discard)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

func main() {
	root := &cobra.Command{
		Use:   "peripheral",
		Short: "Advertise a BLE HTTP Proxy Service peripheral",
		RunE:  run,
	}
	root.Flags().StringVar(&name, "name", "", "Device name to advertise (overrides config/default)")
	root.Flags().IntVar(&timeout, "timeout", 0, "HTTP request timeout in seconds (overrides config/default)")
	root.Flags().IntVar(&mtu, "mtu", 0, "Chunk size override in bytes, 0 to derive from the link MTU")
	root.Flags().StringVar(&configPath, "config", "", "Optional YAML config file")
	root.Flags().StringVar(&level, "level", "info", "Logging level: panic, fatal, error, warn, info, debug, trace")
	root.Flags().BoolVar(&consoleLog, "console-log", true, "Colorized console logging instead of JSON")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := hps.LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	if name != "" {
		cfg.Name = name
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if mtu > 0 {
		cfg.MTU = mtu
	}

	var logger zerolog.Logger
	if consoleLog {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	lvl, lerr := zerolog.ParseLevel(level)
	if lerr != nil {
		logger.Warn().Str("level", level).Msg("invalid log level, defaulting to info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger.Info().Str("device_name", cfg.Name).Msg("creating peripheral")

	srv := hps.NewServer(cfg, logger)

	d, derr := gatt.NewDevice(option.DefaultServerOptions...)
	if derr != nil {
		return derr
	}

	d.Handle(
		gatt.CentralConnected(srv.OnCentralConnected),
		gatt.CentralDisconnected(srv.OnCentralDisconnected),
	)

	onStateChanged := func(dev gatt.Device, s gatt.State) {
		logger.Info().Str("state", s.String()).Msg("state changed")
		switch s {
		case gatt.StatePoweredOn:
			poweredOn = true
			svc := srv.BuildService()
			dev.AddService(svc)
			go advertisePeriodically(dev, logger, cfg.Name, []gatt.UUID{svc.UUID()})
		default:
			poweredOn = false
		}
	}

	d.Init(onStateChanged)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")
	poweredOn = false
	d.StopAdvertising()
	return nil
}

func advertisePeriodically(d gatt.Device, logger zerolog.Logger, name string, services []gatt.UUID) {
	logger.Info().Msg("start advertising")
	for poweredOn {
		d.AdvertiseNameAndServices(name, services)
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info().Msg("stop advertising")
}
