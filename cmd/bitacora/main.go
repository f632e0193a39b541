package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/vbonduro/bitacora/internal/airtable"
	"github.com/vbonduro/bitacora/internal/config"
	"github.com/vbonduro/bitacora/internal/db"
	"github.com/vbonduro/bitacora/internal/export"
	"github.com/vbonduro/bitacora/internal/logging"
	"github.com/vbonduro/bitacora/internal/metrics"
	"github.com/vbonduro/bitacora/internal/photostore"
	"github.com/vbonduro/bitacora/internal/photostore/cloudinary"
	"github.com/vbonduro/bitacora/internal/photostore/local"
	"github.com/vbonduro/bitacora/internal/service"
	"github.com/vbonduro/bitacora/internal/store"
	"github.com/vbonduro/bitacora/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		cleanup()
		os.Exit(1)
	}

	m := metrics.New()

	photoStg, err := newPhotoStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}
	renderer := export.NewPDFRenderer(cfg.LogoPath, photoStg, logger)

	var svc *service.ReportService
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return
		}
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()
		logger.Info("using SQLite record store", "path", cfg.DBPath)
		svc = service.NewReportService(
			store.NewReportStore(database),
			store.NewSupervisorStore(database),
			store.NewProjectStore(database),
			photoStg, renderer, m, logger,
		)
	default:
		logger.Info("using Airtable record store", "base_id", cfg.Airtable.BaseID)
		client := airtable.NewClient(cfg.Airtable, logger, m)
		svc = service.NewReportService(client, client, client, photoStg, renderer, m, logger)
	}

	server := web.NewServer(svc, photoStg, cfg.PhotoBackend == config.BackendLocal, m, logger)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newPhotoStore(cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case config.BackendLocal:
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		return local.NewLocalPhotoStore(cfg.PhotoPath)
	default:
		logger.Info("using Cloudinary photo store", "cloud_name", cfg.Cloudinary.CloudName)
		return cloudinary.New(cfg.Cloudinary.APIURL, cfg.Cloudinary.DeliveryURL, cfg.Cloudinary.CloudName, cfg.Cloudinary.UploadPreset, logger), nil
	}
}
