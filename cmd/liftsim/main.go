package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/liftsim/liftsim/internal/building"
	"github.com/liftsim/liftsim/internal/config"
	"github.com/liftsim/liftsim/internal/dispatcher"
	"github.com/liftsim/liftsim/internal/display"
	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/internal/influx"
	"github.com/liftsim/liftsim/internal/logging"
	"github.com/liftsim/liftsim/internal/metrics"
	intOtel "github.com/liftsim/liftsim/internal/otel"
	"github.com/liftsim/liftsim/internal/randsrc"
	"github.com/liftsim/liftsim/internal/recorder"
	"github.com/liftsim/liftsim/internal/runctx"
	"github.com/liftsim/liftsim/internal/storage"
	"github.com/liftsim/liftsim/pkg/core"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	ProgramName string = "liftsim"
)

// ConfigDirEnv overrides the directory searched for the config file.
const ConfigDirEnv = "LIFTSIM_CONFIG_DIR"

const (
	dispatchBuffer  = 1024
	shutdownTimeout = 5 * time.Second
)

const usage = `usage: liftsim [run [seed] | version]`

type command struct {
	name    string
	seed    uint64
	hasSeed bool
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: "run"}, nil
	}

	switch strings.ToLower(args[0]) {
	case "run":
		cmd := command{name: "run"}
		switch len(args) {
		case 1:
		case 2:
			seed, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return command{}, fmt.Errorf("invalid seed %q: %w", args[1], err)
			}
			cmd.seed = seed
			cmd.hasSeed = true
		default:
			return command{}, errors.New("run takes at most one argument")
		}
		return cmd, nil
	case "version":
		return command{name: "version"}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", args[0])
	}
}

// pickSeed prefers the command line, then the config file, then the clock.
func pickSeed(cmd command, configured uint64) uint64 {
	switch {
	case cmd.hasSeed:
		return cmd.seed
	case configured != 0:
		return configured
	default:
		return randsrc.TimeSeed()
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage)
		return 1
	}

	if cmd.name == "version" {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", ProgramName, CurrentVersion, BuildDate)
		return 0
	}

	a := &app{start: time.Now(), stdout: stdout, stderr: stderr, runCtx: runctx.NewContext()}
	defer a.close()

	a.setup()
	if err := a.simulate(cmd); err != nil {
		a.log.Error("Run failed", "error", err)
		return 1
	}
	return 0
}

// app holds the process-wide services of one invocation.
type app struct {
	start  time.Time
	stdout io.Writer
	stderr io.Writer

	slog    *logging.SlogManager
	log     *slog.Logger
	zlog    zerolog.Logger
	logFile *os.File
	gelf    *logging.GELFHandler
	otel    *intOtel.Provider
	runCtx  *runctx.Context

	closers []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("Error during shutdown", "error", err)
		}
	}
	a.closers = nil
}

// setup loads the config and builds the logging stack. Nothing here is
// fatal; missing pieces degrade to stderr logging.
func (a *app) setup() {
	configDir := os.Getenv(ConfigDirEnv)
	if configDir == "" {
		configDir = "."
	}
	configErr := config.Load(configDir)

	level := config.GetString("logLevel")

	var logOut io.Writer = a.stderr
	var logFileErr error
	a.logFile, logFileErr = logging.OpenLogFile(config.GetString("logsDir"), ProgramName, a.start)
	if logFileErr == nil {
		logOut = a.logFile
		a.onClose(a.logFile.Close)
	}

	otelCfg := config.GetOTelConfig()
	var otelErr error
	if otelCfg.Enabled {
		a.otel, otelErr = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logOut,
			MetricWriter: logOut,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if otelErr == nil {
			a.onClose(func() error {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return a.otel.Shutdown(ctx)
			})
		}
	}

	var extra []slog.Handler
	graylogCfg := config.GetGraylogConfig()
	var gelfErr error
	if graylogCfg.Enabled {
		w, err := logging.DialGELF(graylogCfg.Address)
		if err != nil {
			gelfErr = err
		} else {
			a.gelf = logging.NewGELFHandler(w, logging.ParseLevel(level), ProgramName)
			a.onClose(a.gelf.Close)
			extra = append(extra, a.gelf)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if a.otel != nil {
		otelLogProvider = a.otel.LoggerProvider()
	}

	a.slog = logging.NewSlogManager().WithContext(a.runCtx.Attrs)
	a.slog.Setup(logOut, level, otelLogProvider, extra...)
	a.log = a.slog.Logger()
	a.zlog = logging.NewZerolog(logOut, level)

	switch {
	case errors.Is(configErr, config.ErrNotFound):
		a.log.Warn("Config file not found, using defaults", "dir", configDir)
	case configErr != nil:
		a.log.Warn("Failed to load config, using defaults!", "error", configErr)
	default:
		a.log.Info("Loaded config", "dir", configDir)
	}
	if logFileErr != nil {
		a.log.Error("Failed to create/open log file!", "error", logFileErr)
	} else {
		a.log.Info("Begin logging in logs directory", "path", a.logFile.Name())
	}
	if otelErr != nil {
		a.log.Error("Failed to initialize OTel provider", "error", otelErr)
	} else if a.otel != nil {
		a.log.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
	}
	if gelfErr != nil {
		a.log.Error("Failed to connect to Graylog", "error", gelfErr)
	} else if a.gelf != nil {
		a.log.Info("Shipping logs to Graylog", "address", graylogCfg.Address)
	}
}

// simulate runs one simulation from building generation to the final
// sweep and closes the run in storage.
func (a *app) simulate(cmd command) error {
	simCfg := config.GetSimulationConfig()
	seed := pickSeed(cmd, simCfg.Seed)

	b, err := building.New(building.Config{
		MinFloors:     simCfg.MinFloors,
		MaxFloors:     simCfg.MaxFloors,
		MinPassengers: simCfg.MinPassengers,
		MaxPassengers: simCfg.MaxPassengers,
	}, randsrc.New(seed))
	if err != nil {
		return fmt.Errorf("building: %w", err)
	}
	floors := b.GenerateFloors()

	backend, err := createStorageBackend(config.GetStorageConfig(), config.GetDBConfig(), a.log)
	if err != nil {
		return err
	}
	if backend != nil {
		if err := backend.Init(); err != nil {
			return fmt.Errorf("failed to initialize storage backend: %w", err)
		}
		a.onClose(backend.Close)
	}

	runInfo := core.Run{
		Seed:       seed,
		FloorCount: b.FloorCount(),
		Capacity:   simCfg.Capacity,
		Passengers: core.TotalWaiting(building.Views(floors)),
		StartTime:  a.start,
	}

	var rec *recorder.Recorder
	if backend != nil {
		rec = recorder.New(backend, a.log)
		runInfo, err = rec.StartRun(runInfo)
		if err != nil {
			return err
		}
	}
	a.runCtx.SetRun(runInfo)
	a.log.Info("Run started", "passengers", runInfo.Passengers, "capacity", runInfo.Capacity)

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog))
	if err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}

	if rec != nil {
		d.Register("recorder", dispatcher.HandlerFor(rec), dispatcher.Buffered(dispatchBuffer), dispatcher.Blocking())
	}

	if m, err := metrics.New(a.otelMeter()); err != nil {
		a.log.Warn("Metrics disabled", "error", err)
	} else {
		d.Register("metrics", dispatcher.HandlerFor(m))
	}

	if mgr := a.connectInflux(runInfo); mgr != nil {
		d.Register("influx", dispatcher.HandlerFor(influx.NewSink(mgr, runInfo.ID)),
			dispatcher.Buffered(dispatchBuffer), dispatcher.Logged())
	}

	a.log.Debug("Dispatcher ready", "handlers", d.Handlers())

	// The board renders on the scheduling goroutine, ahead of the dispatcher.
	var sinks elevator.Sinks
	var board *display.Board
	if config.GetBool("display.enabled") {
		board = display.NewBoard(a.stdout)
		sinks = append(sinks, board)
	}
	sinks = append(sinks, dispatcher.NewSink(d))

	e, err := elevator.New(floors, sinks,
		elevator.WithCapacity(simCfg.Capacity),
		elevator.WithLogger(a.log))
	if err != nil {
		d.Close()
		return err
	}

	res := e.Run()
	d.Close()

	if board != nil && board.Err() != nil {
		a.log.Warn("Board output failed", "error", board.Err())
	}

	if rec == nil {
		a.log.Info("Run finished", "sweeps", res.Sweeps, "delivered", res.Delivered)
		return nil
	}

	finished, err := rec.Finish(res)
	if err != nil {
		return err
	}
	a.runCtx.SetRun(finished)
	a.log.Info("Run finished",
		"sweeps", finished.Sweeps,
		"delivered", finished.Delivered,
		"floors_travelled", finished.FloorsTravelled,
		"elapsed", a.runCtx.Elapsed(time.Now()))

	if exp, ok := backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		a.log.Info("Trace exported", "path", exp.ExportedFilePath())
	}
	return nil
}

func (a *app) otelMeter() metric.Meter {
	if a.otel == nil {
		return nil
	}
	return a.otel.Meter(ProgramName)
}

// connectInflux returns a connected manager, or nil when export is off or
// unavailable. Influx problems never stop a run.
func (a *app) connectInflux(runInfo core.Run) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}

	backupPath := filepath.Join(config.GetString("logsDir"),
		fmt.Sprintf("%s_influx_%s.lp.gz", ProgramName, a.start.Format("20060102_150405")))
	mgr := influx.NewManager(a.zlog, cfg, backupPath)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := mgr.Connect(ctx); err != nil {
		a.log.Error("Failed to set up InfluxDB export", "error", err)
		_ = mgr.Close()
		return nil
	}
	a.onClose(mgr.Close)
	a.log.Info("InfluxDB export enabled", "bucket", mgr.Bucket(), "run_id", runInfo.ID)
	return mgr
}
