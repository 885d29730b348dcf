package photo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/attachment-api/internal/domain/attachment"
	domain "jan-server/services/attachment-api/internal/domain/photo"
	"jan-server/services/attachment-api/internal/infrastructure/database/entities"
	"jan-server/services/attachment-api/internal/utils/platformerrors"
)

// Repository handles photo persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or updates p. The hooks run inside the write transaction, and
// attachment errors are returned as they are so callers can classify them.
func (r *Repository) Save(ctx context.Context, p *domain.Photo, hooks domain.Hooks) error {
	entity := entities.NewPhoto(p, hooks)
	db := r.db.WithContext(ctx)

	var err error
	if p.IsNew() {
		err = db.Create(entity).Error
	} else {
		err = db.Save(entity).Error
	}
	if err != nil {
		if isHookError(err) {
			return err
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to save photo",
			err,
			"3f6c1a2e-8d4b-4f7a-9c1e-5b2d7a8e0f13",
		)
	}
	return entity.Commit()
}

func (r *Repository) Delete(ctx context.Context, p *domain.Photo, hooks domain.Hooks) error {
	entity := entities.NewPhoto(p, hooks)
	result := r.db.WithContext(ctx).Delete(entity)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete photo",
			result.Error,
			"8a1d4c7e-2b5f-4e9a-b3c6-0d7e1f2a4b58",
		)
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Photo, error) {
	var entity entities.Photo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, err)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get photo by id",
			err,
			"5e2b9f1c-7a3d-4c6e-8b0f-2d4a6c8e1f37",
		)
	}
	return entity.Domain(), nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*domain.Photo, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Photo{}).Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count photos",
			err,
			"c4d7e0a3-1f6b-4a9d-8e2c-5b8f1a4d7e06",
		)
	}

	var rows []entities.Photo
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list photos",
			err,
			"9b3e6a0d-4c7f-4b2e-a5d8-1e4b7c0f3a69",
		)
	}

	items := make([]*domain.Photo, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].Domain())
	}
	return items, total, nil
}

func notFound(ctx context.Context, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound,
		"photo not found",
		err,
		"1d4a7b0e-3c6f-4e9b-8a2d-5f8c1b4e7a90",
	)
}

// isHookError reports whether a write was aborted by an attachment hook.
func isHookError(err error) bool {
	_, ok := attachment.KindOf(err)
	return ok
}
