package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/erfan111/yawn-governor/governor"
	"github.com/erfan111/yawn-governor/internal/debugapi"
	"github.com/erfan111/yawn-governor/internal/trace"
	"github.com/erfan111/yawn-governor/platform"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the governor daemon and its debug API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	registry := prometheus.NewRegistry()
	metrics := governor.NewMetrics(registry)

	var pf governor.Platform
	switch cfg.Platform.Driver {
	case "sim":
		pf = platform.NewSim(time.Now(), cfg.Governor.NumCPUs)
	default:
		pf = platform.NewLinux()
	}

	var recorder *trace.Recorder
	if cfg.Trace.Enabled {
		store, err := trace.Open(cfg.Trace.DBPath)
		if err != nil {
			logger.Warn("trace store unavailable, recording in-memory only", "error", err)
			recorder = trace.NewRecorder(cfg.Trace.MaxSpans, nil)
		} else {
			recorder = trace.NewRecorder(cfg.Trace.MaxSpans, store)
		}
	}

	drv := defaultDriver()
	opts := []governor.Option{
		governor.WithLogger(logger),
		governor.WithMetrics(metrics),
	}
	if recorder != nil {
		opts = append(opts, governor.WithRecorder(recorder))
	}
	engine := governor.NewEngine(drv, pf, opts...)

	for cpu := 0; cpu < cfg.Governor.NumCPUs; cpu++ {
		engine.EnableDevice(&governor.DeviceState{
			CPU:     cpu,
			Disable: make([]bool, len(drv.States)),
			GetLastResidencyUs: func() uint64 {
				return 0
			},
		})
	}
	engine.SetThresholds(cfg.Governor.DeepThresholdUs, cfg.Governor.ShallowThresholdUs)

	srv := debugapi.NewServer(engine, recorder, registry)
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	logger.Info("yawngovd listening", "addr", addr, "driver", cfg.Platform.Driver)
	return http.ListenAndServe(addr, srv.Handler())
}
