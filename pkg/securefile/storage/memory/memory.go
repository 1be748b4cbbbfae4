// Package memory is an in-memory implementation of the
// securefile.StorageProvider interface, used in tests and development.
package memory

import (
	"context"
	"mime"
	"path/filepath"
	"sync"
	"time"

	"github.com/cloudconstruct/securefile/pkg/securefile"
)

type object struct {
	data        []byte
	contentType string
}

// Provider stores objects in a map guarded by a mutex.
type Provider struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory provider.
func New() *Provider {
	return &Provider{objects: make(map[string]object)}
}

// Get returns a copy of the stored bytes.
func (p *Provider) Get(ctx context.Context, name string) (*securefile.StoredFile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	obj, ok := p.objects[name]
	if !ok {
		return nil, securefile.ErrObjectNotFound
	}

	contentType := obj.contentType
	if contentType == "" {
		if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
			contentType = ct
		} else {
			contentType = "application/octet-stream"
		}
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)

	return &securefile.StoredFile{
		FileName:      name,
		ContentType:   contentType,
		ContentLength: int64(len(data)),
		Bytes:         data,
	}, nil
}

// Insert stores a copy of the bytes. With overwrite false an existing object
// yields ErrObjectExists.
func (p *Provider) Insert(ctx context.Context, name string, data []byte, contentType string, length int64, overwrite bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[name]; ok && !overwrite {
		return securefile.ErrObjectExists
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	p.objects[name] = object{data: stored, contentType: contentType}
	return nil
}

// Update is Insert with implicit overwrite.
func (p *Provider) Update(ctx context.Context, name string, data []byte, contentType string, length int64) error {
	return p.Insert(ctx, name, data, contentType, length, true)
}

// Delete removes the object, reporting whether anything was removed.
func (p *Provider) Delete(ctx context.Context, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[name]; !ok {
		return false, nil
	}
	delete(p.objects, name)
	return true, nil
}

// Exists reports whether the object is present.
func (p *Provider) Exists(ctx context.Context, name string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.objects[name]
	return ok, nil
}

// SignedURL is not supported by the in-memory provider.
func (p *Provider) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	return "", securefile.ErrSignedURLUnsupported
}
