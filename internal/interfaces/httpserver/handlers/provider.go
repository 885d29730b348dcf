package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/domain/photo"
	"jan-server/services/attachment-api/internal/infrastructure/storage"
)

// Provider wires HTTP handlers.
type Provider struct {
	Photo *PhotoHandler
	File  *FileHandler
}

func NewProvider(cfg *config.Config, service *photo.Service, store *storage.LocalStorage, log zerolog.Logger) *Provider {
	return &Provider{
		Photo: NewPhotoHandler(cfg, service, log),
		File:  NewFileHandler(store, log),
	}
}
