package securefile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StorageProvider is the uniform contract over storage backends. Both the
// local filesystem and the remote blob implementation behave identically from
// the gateway's point of view.
type StorageProvider interface {
	// Get fetches the object's bytes, content type and length. Returns
	// ErrObjectNotFound when the object does not exist.
	Get(ctx context.Context, name string) (*StoredFile, error)

	// Insert persists an object. With overwrite false an existing object
	// yields ErrObjectExists and storage is left unchanged.
	Insert(ctx context.Context, name string, data []byte, contentType string, length int64, overwrite bool) error

	// Update is Insert with implicit overwrite.
	Update(ctx context.Context, name string, data []byte, contentType string, length int64) error

	// Delete removes an object, reporting whether anything was removed.
	// Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) (bool, error)

	// Exists reports whether the object is present.
	Exists(ctx context.Context, name string) (bool, error)

	// SignedURL issues a read-only, time-boxed direct link to the object.
	// Backends without that capability return ErrSignedURLUnsupported.
	SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error)
}

// ContentStore resolves content records from the host content manager.
type ContentStore interface {
	// GetRecord loads a content record by id. Returns ErrContentNotFound
	// when the record does not exist.
	GetRecord(ctx context.Context, id uuid.UUID) (*ContentRecord, error)
}

// ViewPermissionChecker is the host's generic "can view this record" check,
// consulted when a record carries no active permission policy.
type ViewPermissionChecker interface {
	CanView(ctx context.Context, identity *Identity, record *ContentRecord) bool
}

// ViewPermissionCheckerFunc adapts a function to the ViewPermissionChecker
// interface.
type ViewPermissionCheckerFunc func(ctx context.Context, identity *Identity, record *ContentRecord) bool

func (f ViewPermissionCheckerFunc) CanView(ctx context.Context, identity *Identity, record *ContentRecord) bool {
	return f(ctx, identity, record)
}

// Tokenizer expands custom subfolder templates against a content record. The
// substitution grammar belongs to the host.
type Tokenizer interface {
	Expand(template string, record *ContentRecord) string
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(template string, record *ContentRecord) string

func (f TokenizerFunc) Expand(template string, record *ContentRecord) string {
	return f(template, record)
}

// Codec is symmetric encode/decode of byte payloads for at-rest encryption.
type Codec interface {
	Encode(plaintext []byte) ([]byte, error)
	Decode(ciphertext []byte) ([]byte, error)
}

// ProviderFactory builds the storage provider for a field's settings. The
// subfolder applies to local storage paths; remote storage scopes objects by
// container instead.
type ProviderFactory func(settings StorageSettings, subfolder string) (StorageProvider, error)
