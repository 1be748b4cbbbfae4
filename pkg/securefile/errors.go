package securefile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentNotFound indicates the content record does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrFieldNotFound indicates the named field is not declared on the
	// record. This is a configuration error, not a normal miss.
	ErrFieldNotFound = errors.New("field not found")

	// ErrAccessDenied indicates the requester failed the access check. This
	// is an expected outcome, not a fault.
	ErrAccessDenied = errors.New("access denied")

	// ErrObjectNotFound indicates the stored object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectExists indicates a non-overwriting insert hit an existing
	// object. Storage is left unchanged.
	ErrObjectExists = errors.New("object already exists")

	// ErrSignedURLUnsupported indicates the storage backend cannot issue
	// signed URLs.
	ErrSignedURLUnsupported = errors.New("signed URLs not supported by this storage backend")
)

// ValidationError is a field-level upload rejection (extension mismatch,
// missing required file). The upload is rejected before any persistence
// attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Message)
}

// FieldError wraps an error with the content and field it occurred on.
type FieldError struct {
	ContentID uuid.UUID
	Field     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s on content %s: %v", e.Field, e.ContentID, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// StorageError represents a failed storage operation after the backend's own
// retry policy has been exhausted.
type StorageError struct {
	Provider string
	Name     string
	Op       string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for %s on %s provider: %v", e.Op, e.Name, e.Provider, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
