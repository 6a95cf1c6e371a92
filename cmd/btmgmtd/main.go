package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muxable/btmgmt/internal/config"
	"github.com/muxable/btmgmt/internal/logging"
	"github.com/muxable/btmgmt/internal/metrics"
	"github.com/muxable/btmgmt/pkg/mgmt"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	if err := run(cfg, logger); err != nil {
		logger.Error("btmgmtd exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	reg := metrics.NewRegistry()
	cm := metrics.NewCommandMetrics(reg)

	if cfg.Metrics.Enable {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	sck, err := mgmt.NewSocket()
	if err != nil {
		return err
	}
	a := mgmt.NewAdapter(sck,
		mgmt.WithCommandTimeout(cfg.Controller.CommandTimeout),
		mgmt.WithAdapterLogger(log))
	defer a.Close()

	m, err := mgmt.New(a, cfg.Controller.Index,
		mgmt.WithLogger(log),
		mgmt.WithAdvertisement(cfg.AdvertisementPayload()),
		mgmt.WithObserver(cm))
	if err != nil {
		return err
	}
	cm.ObserveSettings(a.Settings())
	a.OnSettings(cm.ObserveSettings)

	profile := cfg.Profile()
	if err := m.Configure(profile); err != nil {
		return err
	}
	log.Info("adapter configured",
		zap.Uint16("index", m.Index()),
		zap.String("name", mgmt.TruncateName(profile.Name)),
		zap.String("shortName", mgmt.TruncateShortName(profile.ShortName)),
		zap.Stringer("settings", a.Settings()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if profile.Advertise {
		m.RemoveAdvertising()
	}
	return nil
}
