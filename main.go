package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"p9e.in/eicr/config"
	"p9e.in/eicr/handlers"
	"p9e.in/eicr/pkg/circuitstore"
	"p9e.in/eicr/pkg/schedule"
	"p9e.in/eicr/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := config.NewLogger(settings)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(settings, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(settings config.Settings, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.Connect(settings, logger)
	if err != nil {
		return err
	}

	presets, err := config.LoadPresets(settings.PresetsFile, logger)
	if err != nil {
		return err
	}

	var exports handlers.ExportStorage = handlers.LocalExportStorage{Dir: settings.ExportDir}
	exportDir := settings.ExportDir
	if settings.UseGCS {
		gcs, err := handlers.NewGCSExportStorage(ctx, settings.GCSBucket)
		if err != nil {
			return err
		}
		defer gcs.Close()
		exports = gcs
		exportDir = ""
	}

	queue := schedule.NewQueue(settings.FallbackTick, logger.Named("queue"))
	h := handlers.NewScheduleHandler(circuitstore.New(db, logger.Named("store")), queue, presets, exports, logger.Named("handlers"))
	h.SingleField = settings.BatchMode == config.BatchModeSingle

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           routes.RegisterRoutes(h, exportDir, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("server starting", zap.String("port", settings.Port), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
