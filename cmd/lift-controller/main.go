package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"agv-lift/internal/config"
	"agv-lift/internal/core"
	"agv-lift/internal/hardware"
	"agv-lift/internal/logger"
	"agv-lift/internal/messaging"
	"agv-lift/internal/metrics"
	"agv-lift/internal/types"
)

func main() {
	// Service log level
	var serviceLogLevel int
	flag.IntVar(&serviceLogLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	configPath := flag.String("config", "", "YAML file overriding the default pin map and timings")
	redisAddr := flag.String("redis", "", "Redis address for status publishing (empty disables it)")
	metricsFile := flag.String("metrics-textfile", "", "Prometheus textfile written on every state change")

	flag.Parse()

	l := logger.NewStdLogger(logger.LogLevel(serviceLogLevel))

	l.Infof("Starting lift controller...")

	cfg, err := config.Load(*configPath, config.DefaultLift())
	if err != nil {
		l.Fatalf("Invalid configuration: %v", err)
	}

	var publisher core.StatusPublisher = messaging.Discard{}
	if *redisAddr != "" {
		client := messaging.NewRedisClient(*redisAddr, types.ControllerLift, l.WithTag("Redis"))
		if err := client.Connect(); err != nil {
			l.Fatalf("Failed to connect to Redis: %v", err)
		}
		l.Infof("Publishing status to %s (run %s)", *redisAddr, client.Run())
		publisher = client
	}
	defer publisher.Close()

	io := hardware.NewLinuxHardwareIO(cfg.Hardware, l.WithTag("Hardware"))
	lift := core.NewLiftController(io, publisher, metrics.New(types.ControllerLift), cfg, clock.New(), l.WithTag("Lift"))
	defer lift.Shutdown()

	dispatcher, err := lift.NewDispatcher()
	if err != nil {
		l.Fatalf("Failed to build state machine: %v", err)
	}
	dispatcher.WriteMetricsTo(*metricsFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatcher.Run(ctx); err != nil {
		lift.Shutdown()
		publisher.Close()
		l.Fatalf("Lift stopped in %s: %v", dispatcher.State(), err)
	}
	l.Infof("Unloading complete")
}
