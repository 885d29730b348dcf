package main

import (
	"context"
	"image"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/domain/derivation"
	"jan-server/services/attachment-api/internal/domain/photo"
	"jan-server/services/attachment-api/internal/infrastructure/database"
)

func newDatabaseConfig(cfg *config.Config) database.Config {
	dbCfg := database.ConfigFromService(cfg)
	dbCfg.LogLevel = gormlogger.Warn
	return dbCfg
}

func newGormDB(ctx context.Context, cfg *config.Config, dbCfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(ctx, dbCfg, log)
	if err != nil {
		return nil, err
	}
	if !cfg.DBAutoMigrate {
		return db, nil
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newPathResolver(cfg *config.Config) (*attachment.PathResolver, error) {
	return attachment.NewPathResolver(cfg.StorageRoot)
}

func newNormalizer(cfg *config.Config) *attachment.Normalizer {
	return attachment.NewNormalizer(cfg.TempDir)
}

func newThumbnailSpec(cfg *config.Config) derivation.ThumbnailSpec {
	return derivation.ThumbnailSpec{
		Enabled: cfg.ThumbEnabled,
		Width:   cfg.ThumbWidth,
		Height:  cfg.ThumbHeight,
	}
}

func newWatermarkSpec(cfg *config.Config) derivation.WatermarkSpec {
	return derivation.WatermarkSpec{
		Enabled:  cfg.WatermarkEnabled,
		Kind:     derivation.WatermarkKind(cfg.WatermarkKind),
		Content:  cfg.WatermarkContent,
		Position: image.Pt(cfg.WatermarkX, cfg.WatermarkY),
		FontSize: cfg.WatermarkFontSize,
	}
}

// newNotifier subscribes the derived image pipeline to committed photo images.
func newNotifier(pipeline *derivation.Pipeline) *attachment.Notifier {
	notifier := attachment.NewNotifier()
	notifier.Subscribe(photo.FieldImage, pipeline)
	return notifier
}
