// Package images accepts agent card images, checks their type by content
// sniffing and hands them to an object store. Records only ever keep the
// returned URL.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxBytes matches the limit enforced by the settings page.
const DefaultMaxBytes int64 = 5 << 20

// keyPrefix namespaces agent images inside the bucket.
const keyPrefix = "agents/"

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("images: file too large")

	// ErrUnsupportedType is returned for anything that is not an accepted image.
	ErrUnsupportedType = errors.New("images: unsupported file type")

	// ErrEmpty is returned for a zero-byte upload.
	ErrEmpty = errors.New("images: empty file")
)

// accepted maps each allowed MIME type to the extension used for its key.
var accepted = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", ".jpg"},
	{"image/png", ".png"},
	{"image/gif", ".gif"},
	{"image/webp", ".webp"},
	{"image/svg+xml", ".svg"},
}

// Store persists an object and returns the URL it is served from.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// Detect sniffs data and returns its MIME type and key extension, or
// ErrUnsupportedType.
func Detect(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmpty
	}
	m := mimetype.Detect(data)
	for _, a := range accepted {
		if m.Is(a.mime) {
			return a.mime, a.ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, m.String())
}

// Upload is the result of a successful Put.
type Upload struct {
	URL         string
	Key         string
	ContentType string
	Size        int64
}

// Uploader validates uploads and writes them to a Store.
type Uploader struct {
	store    Store
	maxBytes int64
	newKey   func(ext string) string
}

// NewUploader returns an Uploader. maxBytes <= 0 selects DefaultMaxBytes.
func NewUploader(store Store, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{
		store:    store,
		maxBytes: maxBytes,
		newKey: func(ext string) string {
			return keyPrefix + uuid.NewString() + ext
		},
	}
}

// MaxBytes returns the per-file size limit.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload reads at most MaxBytes from r, checks the content type and stores it.
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("images: read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return Upload{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, u.maxBytes)
	}

	contentType, ext, err := Detect(data)
	if err != nil {
		return Upload{}, err
	}

	key := u.newKey(ext)
	url, err := u.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Upload{}, fmt.Errorf("images: store %s: %w", key, err)
	}
	return Upload{URL: url, Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}
