package photo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/utils/platformerrors"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Repository persists photos. Save and Delete run hooks around the write in
// one transaction; a hook error rolls the write back.
type Repository interface {
	Save(ctx context.Context, p *Photo, hooks Hooks) error
	Delete(ctx context.Context, p *Photo, hooks Hooks) error
	FindByID(ctx context.Context, id string) (*Photo, error)
	List(ctx context.Context, limit, offset int) ([]*Photo, int64, error)
}

// Service manages photos and their attachments.
type Service struct {
	repo     Repository
	manager  *attachment.Manager
	bindings []attachment.Binding
	validate *validator.Validate
	log      zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, manager *attachment.Manager, log zerolog.Logger) (*Service, error) {
	bindings := Bindings(cfg)
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return &Service{
		repo:     repo,
		manager:  manager,
		bindings: bindings,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With().Str("component", "photo-service").Logger(),
	}, nil
}

// Bindings returns the attachment bindings of a photo.
func Bindings(cfg *config.Config) []attachment.Binding {
	return []attachment.Binding{
		{
			Attribute:         FieldImage,
			FilenameAttribute: FieldImageName,
			PathTemplate:      cfg.ImagePathTemplate,
			Image:             true,
		},
		{
			Attribute:    FieldDocument,
			PathTemplate: cfg.DocumentPathTemplate,
		},
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Photo, error) {
	p := &Photo{
		Title:     strings.TrimSpace(in.Title),
		ImageName: strings.TrimSpace(in.ImageName),
		Image:     inlineOnly(in.Image),
	}
	group := s.manager.Bind(p, s.bindings...)
	if err := s.save(ctx, p, group, in.Uploads); err != nil {
		return nil, err
	}
	s.log.Info().Str("photo_id", p.ID).Str("image", p.Image).Msg("photo created")
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Photo, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Prior paths come from the stored row, before any client value lands on p.
	group := s.manager.Bind(p, s.bindings...)

	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.ImageName != nil {
		p.ImageName = strings.TrimSpace(*in.ImageName)
	}
	if in.Image != nil {
		p.Image = inlineOnly(*in.Image)
	}
	if err := s.save(ctx, p, group, in.Uploads); err != nil {
		return nil, err
	}
	s.log.Info().Str("photo_id", p.ID).Str("image", p.Image).Msg("photo updated")
	return p, nil
}

func (s *Service) save(ctx context.Context, p *Photo, group *attachment.Group, uploads attachment.UploadSource) error {
	defer group.Discard()

	if err := group.BeforeValidate(ctx, p, uploads); err != nil {
		return s.mapError(ctx, err, "failed to read attachment")
	}
	if err := s.validate.StructCtx(ctx, p); err != nil {
		return s.validationError(ctx, err)
	}

	hooks := &collectingHooks{Hooks: group}
	if err := s.repo.Save(ctx, p, hooks); err != nil {
		return s.mapError(ctx, err, "failed to save photo")
	}
	p.Warnings = hooks.warnings(s.log, p.ID)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) (*Photo, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	group := s.manager.Bind(p, s.bindings...)
	hooks := &collectingHooks{Hooks: group}
	if err := s.repo.Delete(ctx, p, hooks); err != nil {
		return nil, s.mapError(ctx, err, "failed to delete photo")
	}
	p.Warnings = hooks.warnings(s.log, p.ID)
	s.log.Info().Str("photo_id", p.ID).Msg("photo deleted")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Photo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"photo id is required", nil, "photo_id_required")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get photo")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) (*ListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list photos")
	}
	return &ListResult{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) mapError(ctx context.Context, err error, message string) error {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, message)
	}
	kind, ok := attachment.KindOf(err)
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, message, err, "photo_internal")
	}
	switch kind {
	case attachment.KindDecode:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"inline image is not valid base64", err, "attachment_decode")
	case attachment.KindInvalidTemplate:
		if errors.Is(err, attachment.ErrMissingExtension) {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"uploaded file name has no extension", err, "attachment_missing_extension")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"cannot derive a storage path for the upload", err, "attachment_invalid_template")
	case attachment.KindPersist:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"failed to store the upload", err, "attachment_persist")
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, message, err, "attachment_"+string(kind))
	}
}

func (s *Service) validationError(ctx context.Context, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid photo", err, "photo_invalid")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		strings.Join(msgs, "; "), err, "photo_invalid")
}

func fieldName(structField string) string {
	switch structField {
	case "ImageName":
		return FieldImageName
	default:
		return strings.ToLower(structField)
	}
}

// inlineOnly keeps a client-supplied image value only when it is a data URI;
// stored paths are never taken from the client.
func inlineOnly(value string) string {
	value = strings.TrimSpace(value)
	if attachment.IsInlineImage(value) {
		return value
	}
	return ""
}

// collectingHooks keeps the advisories reported by the wrapped hooks.
type collectingHooks struct {
	Hooks
	advisories []error
}

func (h *collectingHooks) AfterSave(ctx context.Context, rec attachment.Record) attachment.Outcome {
	out := h.Hooks.AfterSave(ctx, rec)
	h.advisories = append(h.advisories, out.Advisories...)
	return out
}

func (h *collectingHooks) BeforeDelete(ctx context.Context, rec attachment.Record) attachment.Outcome {
	out := h.Hooks.BeforeDelete(ctx, rec)
	h.advisories = append(h.advisories, out.Advisories...)
	return out
}

func (h *collectingHooks) warnings(log zerolog.Logger, photoID string) []string {
	if len(h.advisories) == 0 {
		return nil
	}
	out := make([]string, 0, len(h.advisories))
	for _, err := range h.advisories {
		out = append(out, err.Error())
	}
	log.Warn().Str("photo_id", photoID).Strs("warnings", out).Msg("attachment completed with warnings")
	return out
}
