package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// File reads clips from the local filesystem. Relative ids are resolved
// against BaseDir; a leading ~ is expanded to the home directory. Ids that
// start with a slash, like the web paths in the default catalog, are tried
// under BaseDir first.
type File struct {
	BaseDir string
}

// Fetch implements Transport.
func (f File) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, path := range f.candidates(id) {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (f File) candidates(id string) []string {
	expanded, err := homedir.Expand(id)
	if err != nil {
		expanded = id
	}

	base := f.BaseDir
	if base != "" {
		if b, err := homedir.Expand(base); err == nil {
			base = b
		}
	}

	if !filepath.IsAbs(expanded) {
		if base == "" {
			return []string{expanded}
		}
		return []string{filepath.Join(base, expanded)}
	}
	if base != "" && expanded == id {
		return []string{filepath.Join(base, filepath.FromSlash(id)), expanded}
	}
	return []string{expanded}
}
