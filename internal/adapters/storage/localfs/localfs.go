package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const PublicPrefix = "/uploads/"

// Storage guarda archivos subidos en un directorio servido bajo /uploads/.
type Storage struct {
	dir string
}

func New(dir string) *Storage { return &Storage{dir: dir} }

func (s *Storage) Dir() string { return s.dir }

func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	file := uuid.NewString()[:8] + "-" + sanitizeFileName(name)
	dst := filepath.Join(s.dir, file)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("guardar %s: %w", file, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return PublicPrefix + file, nil
}

// Delete borra un archivo por su URL pública; URLs externas se ignoran.
func (s *Storage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, PublicPrefix) {
		return nil
	}
	name := path.Base(strings.TrimPrefix(url, PublicPrefix))
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func sanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "archivo"
	}
	if len(out) > 60 {
		out = out[:60]
	}
	return out + ext
}
