package securefile

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known role names synthesized during access resolution.
const (
	RoleAnonymous     = "Anonymous"
	RoleAuthenticated = "Authenticated"
)

// Identity describes the requester. A nil *Identity means an anonymous
// request.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
	Roles    []string  `json:"roles,omitempty"`
}

// PermissionPolicy is the role-based view policy attached to a content
// record. When Enabled is false the policy is ignored and the host's generic
// view check applies instead.
type PermissionPolicy struct {
	Enabled      bool     `json:"enabled"`
	ViewRoles    []string `json:"view_roles"`
	ViewOwnRoles []string `json:"view_own_roles"`
}

// ContentRecord is the gateway's view of a host content item: ownership, an
// optional view policy, an optional container for single-hop policy
// inheritance, and the file fields attached to it.
type ContentRecord struct {
	ID          uuid.UUID          `json:"id"`
	OwnerID     *uuid.UUID         `json:"owner_id,omitempty"`
	ContainerID *uuid.UUID         `json:"container_id,omitempty"`
	Policy      *PermissionPolicy  `json:"policy,omitempty"`
	Fields      []*FieldDescriptor `json:"fields,omitempty"`
}

// Field returns the field descriptor with the given name, or nil.
func (r *ContentRecord) Field(name string) *FieldDescriptor {
	for _, f := range r.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldDescriptor describes one secure file field on a content record. URL is
// the stored filename relative to the configured directory (plus Subfolder
// for local storage).
type FieldDescriptor struct {
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Subfolder string    `json:"subfolder,omitempty"`
	Upload    time.Time `json:"upload,omitempty"`

	// Presentation attributes carried through from the host editor.
	AlternateText string `json:"alternate_text,omitempty"`
	Class         string `json:"class,omitempty"`
	Style         string `json:"style,omitempty"`
	Alignment     string `json:"alignment,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`

	Settings StorageSettings `json:"settings"`
}

// URLType selects the subfolder strategy used on upload.
type URLType int

const (
	// URLTypeStandard stores files directly under the secure directory.
	URLTypeStandard URLType = iota
	// URLTypeUploadDate stores files under a YYYYMMDD subfolder derived from
	// the upload date.
	URLTypeUploadDate
	// URLTypeCustom expands CustomSubfolder through the host tokenizer.
	URLTypeCustom
)

func (t URLType) String() string {
	switch t {
	case URLTypeStandard:
		return "Standard"
	case URLTypeUploadDate:
		return "UploadDate"
	case URLTypeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// StorageSettings is the per-field configuration loaded from the host's
// settings bag. It is immutable for the duration of a request.
type StorageSettings struct {
	Hint              string `json:"hint,omitempty"`
	AllowedExtensions string `json:"allowed_extensions,omitempty"`
	Required          bool   `json:"required"`

	DirectoryName   string `json:"directory_name"`
	BlobAccountName string `json:"blob_account_name,omitempty"`
	BlobSharedKey   string `json:"blob_shared_key,omitempty"`
	BlobEndpoint    string `json:"blob_endpoint,omitempty"`

	SharedAccessExpirationMinutes int  `json:"shared_access_expiration_minutes"`
	EncryptFile                   bool `json:"encrypt_file"`
	GenerateFileName              bool `json:"generate_file_name"`

	URLType         URLType `json:"url_type"`
	CustomSubfolder string  `json:"custom_subfolder,omitempty"`

	// Free-form extension slots persisted by the host.
	Custom1 string `json:"custom1,omitempty"`
	Custom2 string `json:"custom2,omitempty"`
	Custom3 string `json:"custom3,omitempty"`
}

// Remote reports whether the field is backed by remote blob storage. The
// presence of an account name selects the remote provider.
func (s StorageSettings) Remote() bool {
	return s.BlobAccountName != ""
}

// AllowedExtensionList splits the space-separated allowlist. Empty means no
// restriction.
func (s StorageSettings) AllowedExtensionList() []string {
	return strings.Fields(s.AllowedExtensions)
}

// ExtensionAllowed reports whether the filename passes the allowlist,
// matching suffixes case-insensitively.
func (s StorageSettings) ExtensionAllowed(filename string) bool {
	exts := s.AllowedExtensionList()
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// StoredFile is one object fetched from or bound for a storage provider. The
// byte slice is owned by the caller once returned; providers do not retain it.
type StoredFile struct {
	FileName      string
	ContentType   string
	ContentLength int64
	Bytes         []byte
}

// IncomingFile is an upload payload from the host's edit flow.
type IncomingFile struct {
	FileName      string
	ContentType   string
	ContentLength int64
	Reader        io.Reader
}

// GenerateFileName produces a fresh unique filename preserving the original
// extension.
func GenerateFileName(original string) string {
	ext := path.Ext(original)
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}
