// Package fs is the filesystem implementation of the
// securefile.StorageProvider interface. It handles bytes only; encryption,
// access control and signing are the caller's concern.
package fs

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudconstruct/securefile/pkg/securefile"
)

// Config options for the filesystem provider.
type Config struct {
	Root      string // Secure directory root
	Subfolder string // Optional subfolder under the root, created on demand
}

// Provider stores objects as plain files under a root directory.
type Provider struct {
	dir string
}

// New creates a filesystem provider, creating the root (and subfolder) if
// missing.
func New(config Config) (*Provider, error) {
	if config.Root == "" {
		return nil, errors.New("root directory is required")
	}

	dir := config.Root
	if config.Subfolder != "" {
		dir = filepath.Join(dir, config.Subfolder)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Provider{dir: dir}, nil
}

func (p *Provider) path(name string) string {
	return filepath.Join(p.dir, filepath.Base(name))
}

// Get reads the full file payload. The content type is a pure lookup from
// the filename extension.
func (p *Provider) Get(ctx context.Context, name string) (*securefile.StoredFile, error) {
	data, err := os.ReadFile(p.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, securefile.ErrObjectNotFound
		}
		return nil, &securefile.StorageError{Provider: "fs", Name: name, Op: "get", Err: err}
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &securefile.StoredFile{
		FileName:      name,
		ContentType:   contentType,
		ContentLength: int64(len(data)),
		Bytes:         data,
	}, nil
}

// Insert writes the file. With overwrite false an existing file is left
// untouched and ErrObjectExists is returned.
func (p *Provider) Insert(ctx context.Context, name string, data []byte, contentType string, length int64, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(p.path(name)); err == nil {
			return securefile.ErrObjectExists
		} else if !os.IsNotExist(err) {
			return &securefile.StorageError{Provider: "fs", Name: name, Op: "insert", Err: err}
		}
	}

	if err := os.WriteFile(p.path(name), data, 0644); err != nil {
		return &securefile.StorageError{Provider: "fs", Name: name, Op: "insert", Err: err}
	}
	return nil
}

// Update is Insert with implicit overwrite.
func (p *Provider) Update(ctx context.Context, name string, data []byte, contentType string, length int64) error {
	return p.Insert(ctx, name, data, contentType, length, true)
}

// Delete removes the file, reporting whether anything was removed.
func (p *Provider) Delete(ctx context.Context, name string) (bool, error) {
	err := os.Remove(p.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &securefile.StorageError{Provider: "fs", Name: name, Op: "delete", Err: err}
	}
	return true, nil
}

// Exists reports whether the file is present.
func (p *Provider) Exists(ctx context.Context, name string) (bool, error) {
	if _, err := os.Stat(p.path(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &securefile.StorageError{Provider: "fs", Name: name, Op: "exists", Err: err}
	}
	return true, nil
}

// SignedURL is not supported by the filesystem provider.
func (p *Provider) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	return "", securefile.ErrSignedURLUnsupported
}
