package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SourceKind tells where an artifact came from.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceMultipart
	SourceInline
)

func (k SourceKind) String() string {
	switch k {
	case SourceMultipart:
		return "multipart-file"
	case SourceInline:
		return "inline-base64"
	default:
		return "none"
	}
}

const (
	defaultInlineExtension = "jpg"
	inlineBaseName         = "tmp"
	tempPattern            = "attachment-upload-*"
)

// inlineImagePattern identifies data URIs carrying a base64 image; the MIME type is optional.
var inlineImagePattern = regexp.MustCompile(`^data:(image/[A-Za-z0-9.+-]+)?;base64,`)

// Artifact is an incoming file normalized from any submission form.
type Artifact struct {
	Kind         SourceKind
	TempPath     string
	OriginalName string
	Extension    string
	MimeType     string
	Size         int64
}

// Present reports whether something was submitted.
func (a *Artifact) Present() bool {
	return a != nil && a.Kind != SourceNone
}

// BaseName is the original file name without directory and extension.
func (a *Artifact) BaseName() string {
	base := path.Base(filepath.ToSlash(a.OriginalName))
	if idx := strings.LastIndex(base, "."); idx > 0 {
		return base[:idx]
	}
	return base
}

// Discard removes the staged file unless it was already promoted.
func (a *Artifact) Discard() error {
	if a == nil || a.TempPath == "" {
		return nil
	}
	err := os.Remove(a.TempPath)
	a.TempPath = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PendingValue is written to the bound attribute while an artifact awaits its final path.
func PendingValue(a *Artifact) string {
	return a.OriginalName
}

// IsInlineImage reports whether value is a base64 image data URI.
func IsInlineImage(value string) bool {
	return inlineImagePattern.MatchString(value)
}

// Normalizer turns raw submissions into staged artifacts.
type Normalizer struct {
	tempDir string
}

// NewNormalizer stages files in tempDir, or the OS default when empty.
func NewNormalizer(tempDir string) *Normalizer {
	return &Normalizer{tempDir: tempDir}
}

// Normalize prefers a real upload, then an inline data URI in the attribute value.
// Absence of input is not an error.
func (n *Normalizer) Normalize(upload *Upload, inline string) (*Artifact, error) {
	if upload != nil && upload.Open != nil {
		return n.fromUpload(upload)
	}
	if IsInlineImage(inline) {
		return n.fromInline(inline)
	}
	return &Artifact{Kind: SourceNone}, nil
}

func (n *Normalizer) fromUpload(upload *Upload) (*Artifact, error) {
	src, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", upload.Filename, err)
	}
	defer src.Close()

	tempPath, size, err := n.stage(src)
	if err != nil {
		return nil, fmt.Errorf("stage upload %s: %w", upload.Filename, err)
	}
	return &Artifact{
		Kind:         SourceMultipart,
		TempPath:     tempPath,
		OriginalName: upload.Filename,
		Extension:    Extension(upload.Filename),
		MimeType:     upload.MimeType,
		Size:         size,
	}, nil
}

func (n *Normalizer) fromInline(value string) (*Artifact, error) {
	loc := inlineImagePattern.FindStringSubmatchIndex(value)
	mimeType := ""
	if loc[2] >= 0 {
		mimeType = strings.ToLower(value[loc[2]:loc[3]])
	}
	data, err := decodeBase64(value[loc[1]:])
	if err != nil {
		return nil, newError(KindDecode, "normalize", "", err)
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	ext := extensionForMIME(mimeType)

	tempPath, size, err := n.stage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("stage inline payload: %w", err)
	}
	return &Artifact{
		Kind:         SourceInline,
		TempPath:     tempPath,
		OriginalName: inlineBaseName + "." + ext,
		Extension:    ext,
		MimeType:     mimeType,
		Size:         size,
	}, nil
}

// stage copies src into a fresh temp file; a partial file is removed on failure.
func (n *Normalizer) stage(src io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(n.tempDir, tempPattern)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), size, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errors.New("empty base64 payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("malformed base64 payload: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("empty base64 payload")
	}
	return data, nil
}

// extensionForMIME derives the extension from an image MIME subtype, e.g. svg+xml
// becomes svg. Anything that is not an image type falls back to jpg.
func extensionForMIME(mimeType string) string {
	mediaType, _, _ := strings.Cut(mimeType, ";")
	major, subtype, ok := strings.Cut(strings.TrimSpace(mediaType), "/")
	if !ok || !strings.EqualFold(major, "image") {
		return defaultInlineExtension
	}
	subtype, _, _ = strings.Cut(subtype, "+")
	subtype = strings.ToLower(strings.TrimSpace(subtype))
	if subtype == "" || subtype == "octet-stream" || strings.ContainsAny(subtype, `/\.`) {
		return defaultInlineExtension
	}
	return subtype
}
