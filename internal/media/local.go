package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images under Dir/products and serves them from URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Dir: dir, URLPrefix: "/uploads"}
}

func (s *LocalStore) Save(_ context.Context, data []byte) (Image, error) {
	ext, err := Sniff(data, 0)
	if err != nil {
		return Image{}, err
	}
	rel := filepath.ToSlash(filepath.Join("products", newName()+ext))
	full := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Image{}, fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return Image{}, fmt.Errorf("write image: %w", err)
	}
	return Image{URL: s.URLPrefix + "/" + rel, PublicID: rel}, nil
}

// Delete removes the file named by publicID; ids escaping Dir are refused.
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	clean := filepath.Clean(filepath.FromSlash(publicID))
	if publicID == "" || clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("refusing to delete %q", publicID)
	}
	err := os.Remove(filepath.Join(s.Dir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
