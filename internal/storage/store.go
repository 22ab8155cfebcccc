// Package storage persists uploaded documents (scanned memos, attachments,
// reception proofs) and hands back the URL recorded on the owning entity.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Buckets used by the services.
const (
	BucketMemos      = "memos"
	BucketForums     = "forums"
	BucketOficios    = "oficios-presidencia"
	BucketSentMemos  = "sent-memos"
	defaultURLPrefix = "/uploads"
)

// Object describes a stored blob.
type Object struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// BlobStore saves and deletes blobs addressed by URL.
type BlobStore interface {
	Save(ctx context.Context, bucket, name string, r io.Reader) (Object, error)
	Delete(ctx context.Context, url string) error
}

// LocalStore keeps blobs on the local filesystem under Root/<bucket>/.
type LocalStore struct {
	Root      string
	URLPrefix string

	now func() time.Time
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: empty upload dir")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &LocalStore{Root: root, URLPrefix: defaultURLPrefix, now: time.Now}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces name to a safe base file name.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeName.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	if len(base) > 120 {
		base = base[len(base)-120:]
	}
	return base
}

// Save writes r to Root/bucket/<unix-nanos>-<name>.
func (s *LocalStore) Save(ctx context.Context, bucket, name string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	bucket = SanitizeName(bucket)
	dir := filepath.Join(s.Root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("storage: create bucket: %w", err)
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	file := fmt.Sprintf("%d-%s", now().UnixNano(), SanitizeName(name))
	f, err := os.OpenFile(filepath.Join(dir, file), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("storage: create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, file))
		return Object{}, fmt.Errorf("storage: write file: %w", err)
	}

	prefix := s.URLPrefix
	if prefix == "" {
		prefix = defaultURLPrefix
	}
	return Object{URL: path.Join(prefix, bucket, file), Name: name, Size: n}, nil
}

// Delete removes the blob behind url. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	p, err := s.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// pathFor maps a URL returned by Save back to a path inside Root.
func (s *LocalStore) pathFor(url string) (string, error) {
	prefix := s.URLPrefix
	if prefix == "" {
		prefix = defaultURLPrefix
	}
	clean := path.Clean("/" + url)
	base := path.Clean(prefix) + "/"
	if !strings.HasPrefix(clean, base) {
		return "", fmt.Errorf("storage: url %q is outside the store", url)
	}
	rel := strings.TrimPrefix(clean, base)
	if rel == "" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("storage: url %q is outside the store", url)
	}
	return filepath.Join(s.Root, filepath.FromSlash(rel)), nil
}
