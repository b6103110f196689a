package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PhotoPrefix is the key prefix of temporary photo assets.
const PhotoPrefix = "photos/"

// Local keeps assets as files under a temp directory. Refs are paths relative to Dir.
type Local struct {
	Dir string
	now func() time.Time
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Local{Dir: dir, now: time.Now}, nil
}

func (l *Local) path(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid asset ref %q", ref)
	}
	return filepath.Join(l.Dir, clean), nil
}

func (l *Local) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return key, nil
}

func (l *Local) Get(_ context.Context, ref string) ([]byte, error) {
	p, err := l.path(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Delete ignores refs that are already gone.
func (l *Local) Delete(_ context.Context, refs []string) error {
	var errs []error
	for _, ref := range refs {
		p, err := l.path(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PurgeOlderThan removes files whose mtime is older than age. age <= 0 removes everything.
func (l *Local) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := l.now().Add(-age)
	deleted := 0
	err := filepath.WalkDir(l.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if age > 0 && info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		deleted++
		return nil
	})
	return deleted, err
}

// Upload lets Local serve as the artifact store too; the url is a file path.
func (l *Local) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ref, err := l.Put(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	p, _ := l.path(ref)
	return "file://" + filepath.ToSlash(p), nil
}
