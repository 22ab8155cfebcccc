package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// DefaultAllowedTypes are the document and image formats accepted for
// upload.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/webp",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
}

// Policy bounds what a Batch accepts. MaxBytes <= 0 disables the size check;
// an empty Allowed list means DefaultAllowedTypes.
type Policy struct {
	MaxBytes int64
	Allowed  []string
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FromFileHeader adapts one multipart file header.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// FromFileHeaders adapts multipart file headers.
func FromFileHeaders(fhs []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(fhs))
	for _, fh := range fhs {
		out = append(out, FromFileHeader(fh))
	}
	return out
}

// Batch stores the uploads of one request. Objects saved through it are
// deleted by Rollback unless Commit was called first.
type Batch struct {
	store  BlobStore
	policy Policy

	mu        sync.Mutex
	saved     []Object
	committed bool
}

// NewBatch starts a batch on store.
func NewBatch(store BlobStore, p Policy) *Batch {
	if len(p.Allowed) == 0 {
		p.Allowed = DefaultAllowedTypes
	}
	return &Batch{store: store, policy: p}
}

// Save validates u and stores it in bucket.
func (b *Batch) Save(ctx context.Context, bucket string, u Upload) (Object, error) {
	rc, err := u.Open()
	if err != nil {
		return Object{}, fmt.Errorf("open %s: %w", u.Name, err)
	}
	defer rc.Close()

	r := io.Reader(rc)
	if b.policy.MaxBytes > 0 {
		r = io.LimitReader(rc, b.policy.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", u.Name, err)
	}
	if len(data) == 0 {
		return Object{}, fmt.Errorf("%s: %w", u.Name, ErrEmptyFile)
	}
	if b.policy.MaxBytes > 0 && int64(len(data)) > b.policy.MaxBytes {
		return Object{}, fmt.Errorf("%s: %w", u.Name, ErrFileTooLarge)
	}

	mt := mimetype.Detect(data)
	if !allowed(mt, b.policy.Allowed) {
		return Object{}, fmt.Errorf("%s (%s): %w", u.Name, mt.String(), ErrUnsupportedType)
	}

	obj, err := b.store.Save(ctx, bucket, u.Name, bytes.NewReader(data))
	if err != nil {
		return Object{}, err
	}
	obj.ContentType = mt.String()

	b.mu.Lock()
	b.saved = append(b.saved, obj)
	b.mu.Unlock()
	return obj, nil
}

// SaveAll stores every upload in order and returns their URLs. On the first
// failure the error is returned; objects already saved stay tracked.
func (b *Batch) SaveAll(ctx context.Context, bucket string, ups []Upload) ([]string, error) {
	urls := make([]string, 0, len(ups))
	for _, u := range ups {
		obj, err := b.Save(ctx, bucket, u)
		if err != nil {
			return nil, err
		}
		urls = append(urls, obj.URL)
	}
	return urls, nil
}

// Commit keeps every saved object.
func (b *Batch) Commit() {
	b.mu.Lock()
	b.committed = true
	b.mu.Unlock()
}

// Rollback deletes every saved object unless the batch was committed.
func (b *Batch) Rollback(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.committed {
		return nil
	}
	var errs []error
	for _, o := range b.saved {
		if err := b.store.Delete(ctx, o.URL); err != nil {
			errs = append(errs, err)
		}
	}
	b.saved = nil
	return errors.Join(errs...)
}

// Saved returns the objects stored so far.
func (b *Batch) Saved() []Object {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Object(nil), b.saved...)
}

// IsRejected reports whether err is a validation failure of the upload
// itself rather than a storage failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrUnsupportedType)
}

func allowed(mt *mimetype.MIME, list []string) bool {
	for _, a := range list {
		if mt.Is(a) {
			return true
		}
	}
	return false
}
