package responses

import (
	"path"
	"strings"
	"time"

	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/domain/photo"
)

// PhotoResponse is the JSON shape of a photo.
type PhotoResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Image        string    `json:"image"`
	ImageName    string    `json:"image_name"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Document     string    `json:"document,omitempty"`
	DocumentURL  string    `json:"document_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// PhotoListResponse is one page of photos.
type PhotoListResponse struct {
	Data   []PhotoResponse `json:"data"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// URLBuilder turns stored relative paths into public URLs.
type URLBuilder struct {
	BaseURL    string
	Thumbnails bool
}

func (b URLBuilder) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return strings.TrimSuffix(b.BaseURL, "/") + "/" + strings.TrimPrefix(rel, "/")
}

func (b URLBuilder) ThumbnailURL(rel string) string {
	if !b.Thumbnails || rel == "" {
		return ""
	}
	return b.URL(path.Clean(attachment.ThumbnailPath(rel)))
}

func NewPhotoResponse(p *photo.Photo, urls URLBuilder) PhotoResponse {
	return PhotoResponse{
		ID:           p.ID,
		Title:        p.Title,
		Image:        p.Image,
		ImageName:    p.ImageName,
		ImageURL:     urls.URL(p.Image),
		ThumbnailURL: urls.ThumbnailURL(p.Image),
		Document:     p.Document,
		DocumentURL:  urls.URL(p.Document),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Warnings:     p.Warnings,
	}
}

func NewPhotoListResponse(res *photo.ListResult, urls URLBuilder) PhotoListResponse {
	data := make([]PhotoResponse, 0, len(res.Items))
	for _, p := range res.Items {
		data = append(data, NewPhotoResponse(p, urls))
	}
	return PhotoListResponse{Data: data, Total: res.Total, Limit: res.Limit, Offset: res.Offset}
}
