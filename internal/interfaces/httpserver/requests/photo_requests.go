package requests

import (
	"io"
	"mime/multipart"
	"strings"

	"jan-server/services/attachment-api/internal/domain/attachment"
)

// PhotoRequest is the JSON body of create and update calls.
// Image may carry a base64 data URI such as data:image/png;base64,....
type PhotoRequest struct {
	Title     *string `json:"title"`
	ImageName *string `json:"image_name"`
	Image     *string `json:"image"`
}

// ListPhotosQuery holds paging parameters.
type ListPhotosQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// FromMultipart reads the text fields of a multipart form. Fields that were not
// sent stay nil.
func FromMultipart(form *multipart.Form) PhotoRequest {
	var req PhotoRequest
	if form == nil {
		return req
	}
	req.Title = formValue(form, "title")
	req.ImageName = formValue(form, "image_name")
	req.Image = formValue(form, "image")
	return req
}

func formValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// UploadsFromMultipart maps the first file of each named part to an upload.
func UploadsFromMultipart(form *multipart.Form, attributes ...string) attachment.Uploads {
	uploads := attachment.Uploads{}
	if form == nil {
		return uploads
	}
	for _, attr := range attributes {
		files := form.File[attr]
		if len(files) == 0 || strings.TrimSpace(files[0].Filename) == "" {
			continue
		}
		uploads[attr] = fileUpload(files[0])
	}
	return uploads
}

func fileUpload(fh *multipart.FileHeader) *attachment.Upload {
	return &attachment.Upload{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
