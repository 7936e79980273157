// Package uploads stores user files on local disk under
// <kind>/YYYY/MM/<uuid8>-<name> and builds their public URLs.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload kinds, used as the top-level directory.
const (
	KindDocuments = "documents"
	KindPhotos    = "photos"
	KindNews      = "news"
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrType        = errors.New("file type not allowed")
	ErrMissingFile = errors.New("no file provided")
)

// Allowed content types per use.
var (
	DocumentTypes = []string{
		"application/pdf",
		"image/jpeg", "image/png", "image/webp",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	ImageTypes = []string{"image/jpeg", "image/png", "image/webp"}
)

// Info describes a stored file.
type Info struct {
	Key         string // path relative to the upload root, slash separated
	URL         string
	FileName    string
	Size        int64
	ContentType string
}

// Local is a disk-backed file store.
type Local struct {
	root    string
	baseURL string
	maxSize int64
}

// NewLocal creates the root directory if needed. baseURL is the prefix the
// files are served under (e.g. "/uploads").
func NewLocal(root, baseURL string, maxSize int64) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}, nil
}

// Root returns the directory served at BaseURL.
func (l *Local) Root() string { return l.root }

// BaseURL returns the URL prefix.
func (l *Local) BaseURL() string { return l.baseURL }

// MaxSize returns the per-file size cap in bytes.
func (l *Local) MaxSize() int64 { return l.maxSize }

// URL returns the public URL for key.
func (l *Local) URL(key string) string { return l.baseURL + "/" + key }

// KeyForURL recovers the storage key of a URL built by URL. It returns ""
// for URLs outside BaseURL.
func (l *Local) KeyForURL(url string) string {
	prefix := l.baseURL + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// NewKey returns a fresh storage key for a file named name.
func NewKey(kind, name string, now time.Time) string {
	now = now.UTC()
	return path.Join(kind, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", now.Month()),
		uuid.New().String()[:8]+"-"+SanitizeFilename(name))
}

// Put writes r under a new key. Reads past maxSize fail with ErrTooLarge and
// leave nothing behind.
func (l *Local) Put(ctx context.Context, kind, name, contentType string, r io.Reader) (Info, error) {
	key := NewKey(kind, name, time.Now())
	full, err := l.fullPath(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Info{}, err
	}
	f, err := os.Create(full)
	if err != nil {
		return Info{}, err
	}

	n, err := io.Copy(f, io.LimitReader(r, l.maxSize+1))
	closeErr := f.Close()
	switch {
	case err == nil && n > l.maxSize:
		err = ErrTooLarge
	case err == nil:
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(full)
		return Info{}, err
	}
	return Info{Key: key, URL: l.URL(key), FileName: name, Size: n, ContentType: contentType}, nil
}

// Delete removes key. A missing file is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	full, err := l.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// fullPath maps key into root, refusing keys that escape it.
func (l *Local) fullPath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// FromRequest reads the multipart field, checks its content type against
// allowed and stores it. The caller should have capped the body with
// http.MaxBytesReader.
func (l *Local) FromRequest(r *http.Request, field, kind string, allowed []string) (Info, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return Info{}, ErrMissingFile
		}
		return Info{}, err
	}
	defer file.Close()

	if header.Size > l.maxSize {
		return Info{}, ErrTooLarge
	}
	ct, err := sniff(file, header)
	if err != nil {
		return Info{}, err
	}
	if !contains(allowed, ct) {
		return Info{}, ErrType
	}
	return l.Put(r.Context(), kind, header.Filename, ct, file)
}

// sniff detects the content type from the first 512 bytes, falling back to
// the declared type for formats the detector reports as zip or octet-stream
// (docx/xlsx).
func sniff(file multipart.File, header *multipart.FileHeader) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	ct := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if ct == "application/zip" || ct == "application/octet-stream" {
		if declared := header.Header.Get("Content-Type"); declared != "" {
			return declared, nil
		}
	}
	return ct, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// SanitizeFilename keeps the base name, replaces characters outside
// [A-Za-z0-9._-] with '_' and caps the length at 100, keeping the extension.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b = append(b, c)
		default:
			b = append(b, '_')
		}
	}
	out := strings.TrimLeft(string(b), ".")
	if out == "" {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(out)
		if len(ext) > 0 && len(ext) < 10 {
			out = out[:100-len(ext)] + ext
		} else {
			out = out[:100]
		}
	}
	return out
}
