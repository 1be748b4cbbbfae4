package securefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gateway orchestrates secure file requests: access resolution, provider
// selection, encryption and streaming.
type Gateway struct {
	store     ContentStore
	resolver  *AccessResolver
	codec     Codec
	tokenizer Tokenizer
	providers ProviderFactory
	now       func() time.Time
}

// Option represents a functional option for configuring the gateway.
type Option func(*Gateway)

// WithContentStore sets the host content store.
func WithContentStore(store ContentStore) Option {
	return func(g *Gateway) {
		g.store = store
	}
}

// WithResolver sets the access resolver.
func WithResolver(resolver *AccessResolver) Option {
	return func(g *Gateway) {
		g.resolver = resolver
	}
}

// WithCodec sets the encryption codec used for fields marked encrypted.
func WithCodec(codec Codec) Option {
	return func(g *Gateway) {
		g.codec = codec
	}
}

// WithTokenizer sets the host tokenizer for custom subfolder templates.
func WithTokenizer(tokenizer Tokenizer) Option {
	return func(g *Gateway) {
		g.tokenizer = tokenizer
	}
}

// WithProviderFactory sets the storage provider factory.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(g *Gateway) {
		g.providers = factory
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// New creates a gateway instance with the given options.
func New(options ...Option) (*Gateway, error) {
	g := &Gateway{
		now: time.Now,
	}

	for _, option := range options {
		option(g)
	}

	if g.store == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if g.resolver == nil {
		return nil, fmt.Errorf("access resolver is required")
	}
	if g.providers == nil {
		return nil, fmt.Errorf("provider factory is required")
	}

	return g, nil
}

// Serve handles the read path: resolve access, select the provider, fetch
// and decrypt, and return the file with a content type inferred from the
// stored filename's extension. Denied and missing outcomes come back as
// ErrAccessDenied / ErrContentNotFound / ErrObjectNotFound; callers present
// them uniformly to avoid leaking record existence.
func (g *Gateway) Serve(ctx context.Context, contentID uuid.UUID, fieldName string, identity *Identity) (*StoredFile, error) {
	field, decision, err := g.ResolveField(ctx, contentID, fieldName, identity)
	if err != nil {
		return nil, err
	}

	provider, err := g.providers(field.Settings, field.Subfolder)
	if err != nil {
		return nil, &FieldError{ContentID: contentID, Field: fieldName, Err: err}
	}

	file, err := provider.Get(ctx, field.URL)
	if err != nil {
		return nil, err
	}

	if field.Settings.EncryptFile {
		if g.codec == nil {
			return nil, &FieldError{ContentID: contentID, Field: fieldName, Err: errors.New("field is encrypted but no codec is configured")}
		}
		plain, err := g.codec.Decode(file.Bytes)
		if err != nil {
			return nil, &FieldError{ContentID: contentID, Field: fieldName, Err: err}
		}
		file.Bytes = plain
		file.ContentLength = int64(len(plain))
	}

	file.ContentType = contentTypeFor(file.FileName)

	slog.Debug("serving secure file",
		"content_id", contentID,
		"field", fieldName,
		"scope", decision.Scope,
		"size", file.ContentLength)

	return file, nil
}

// ResolveField resolves access for the requester and locates the named field
// descriptor on the record. Absence of the field is a configuration error,
// not a normal miss.
func (g *Gateway) ResolveField(ctx context.Context, contentID uuid.UUID, fieldName string, identity *Identity) (*FieldDescriptor, Decision, error) {
	record, err := g.store.GetRecord(ctx, contentID)
	if err != nil {
		return nil, Decision{}, err
	}

	decision, err := g.resolver.ResolveRecord(ctx, identity, record)
	if err != nil {
		return nil, Decision{}, err
	}
	if !decision.Granted {
		return nil, decision, ErrAccessDenied
	}

	field := record.Field(fieldName)
	if field == nil {
		return nil, decision, &FieldError{ContentID: contentID, Field: fieldName, Err: ErrFieldNotFound}
	}
	return field, decision, nil
}

// Store handles the write path: filename resolution, validation, subfolder
// computation, encryption and persistence. On success the resulting name,
// subfolder and upload timestamp are recorded on the field descriptor. A
// *ValidationError is returned before any persistence attempt.
func (g *Gateway) Store(ctx context.Context, record *ContentRecord, field *FieldDescriptor, upload IncomingFile) error {
	settings := field.Settings

	fname := path.Base(upload.FileName)
	if fname == "." || fname == "/" {
		fname = ""
	}
	if settings.GenerateFileName && fname != "" {
		fname = GenerateFileName(fname)
	}

	if fname != "" && !settings.ExtensionAllowed(fname) {
		return &ValidationError{
			Field:   field.Name,
			Message: fmt.Sprintf("must have one of these extensions: %s", settings.AllowedExtensions),
		}
	}

	if settings.Required && strings.TrimSpace(fname) == "" {
		return &ValidationError{Field: field.Name, Message: "a file is mandatory"}
	}

	uploadedAt := g.now().UTC()

	subfolder, err := g.subfolderFor(settings, record, uploadedAt)
	if err != nil {
		return &FieldError{ContentID: record.ID, Field: field.Name, Err: err}
	}

	data, err := io.ReadAll(upload.Reader)
	if err != nil {
		return &FieldError{ContentID: record.ID, Field: field.Name, Err: fmt.Errorf("reading upload: %w", err)}
	}

	if settings.EncryptFile {
		if g.codec == nil {
			return &FieldError{ContentID: record.ID, Field: field.Name, Err: errors.New("field is encrypted but no codec is configured")}
		}
		data, err = g.codec.Encode(data)
		if err != nil {
			return &FieldError{ContentID: record.ID, Field: field.Name, Err: err}
		}
	}

	provider, err := g.providers(settings, subfolder)
	if err != nil {
		return &FieldError{ContentID: record.ID, Field: field.Name, Err: err}
	}

	// Uploads always replace any existing object at that path.
	if err := provider.Insert(ctx, fname, data, upload.ContentType, int64(len(data)), true); err != nil {
		return err
	}

	field.URL = fname
	field.Subfolder = subfolder
	field.Upload = uploadedAt

	slog.Info("stored secure file",
		"content_id", record.ID,
		"field", field.Name,
		"name", fname,
		"subfolder", subfolder,
		"encrypted", settings.EncryptFile,
		"remote", settings.Remote())

	return nil
}

// subfolderFor computes the subfolder per the settings' URL type. Subfolders
// apply to local storage paths; remote storage scopes by container.
func (g *Gateway) subfolderFor(settings StorageSettings, record *ContentRecord, uploadedAt time.Time) (string, error) {
	switch settings.URLType {
	case URLTypeStandard:
		return "", nil
	case URLTypeUploadDate:
		return uploadedAt.Format("20060102"), nil
	case URLTypeCustom:
		if g.tokenizer == nil {
			return "", errors.New("custom subfolder requires a tokenizer")
		}
		return g.tokenizer.Expand(settings.CustomSubfolder, record), nil
	default:
		return "", fmt.Errorf("unknown url type %d", settings.URLType)
	}
}

// contentTypeFor maps a filename extension to a content type. Pure lookup,
// no sniffing.
func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
