//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/domain/derivation"
	"jan-server/services/attachment-api/internal/domain/photo"
	"jan-server/services/attachment-api/internal/infrastructure/imaging"
	"jan-server/services/attachment-api/internal/infrastructure/logger"
	"jan-server/services/attachment-api/internal/infrastructure/metrics"
	repo "jan-server/services/attachment-api/internal/infrastructure/repository/photo"
	"jan-server/services/attachment-api/internal/infrastructure/storage"
	"jan-server/services/attachment-api/internal/interfaces/httpserver"
	"jan-server/services/attachment-api/internal/interfaces/httpserver/handlers"
)

var derivationSet = wire.NewSet(
	imaging.NewProcessor,
	wire.Bind(new(derivation.Processor), new(*imaging.Processor)),
	metrics.NewDerivationRecorder,
	wire.Bind(new(derivation.Recorder), new(*metrics.DerivationRecorder)),
	newThumbnailSpec,
	newWatermarkSpec,
	derivation.NewPipeline,
)

var attachmentSet = wire.NewSet(
	storage.NewLocalStorage,
	wire.Bind(new(attachment.Filesystem), new(*storage.LocalStorage)),
	wire.Bind(new(httpserver.HealthChecker), new(*storage.LocalStorage)),
	metrics.NewAttachmentRecorder,
	wire.Bind(new(attachment.Recorder), new(*metrics.AttachmentRecorder)),
	newPathResolver,
	newNormalizer,
	newNotifier,
	attachment.NewManager,
)

var photoSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(photo.Repository), new(*repo.Repository)),
	photo.NewService,
)

// BuildApplication assembles the attachment API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		derivationSet,
		attachmentSet,
		photoSet,
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}
