package securefile

import (
	"context"
	"time"
)

// SignedURLIssuer produces time-boxed direct links that bypass the gateway
// for subsequent reads. It yields no URL when signing is disabled for the
// field or the backend is not remote.
type SignedURLIssuer struct {
	providers ProviderFactory
}

// NewSignedURLIssuer creates an issuer over the given provider factory.
func NewSignedURLIssuer(providers ProviderFactory) *SignedURLIssuer {
	return &SignedURLIssuer{providers: providers}
}

// Issue returns a signed URL for the field's stored object, or "" when
// SharedAccessExpirationMinutes is zero or the field is not remote-backed.
// The URL's validity window starts now and ends now plus the configured
// expiry.
func (i *SignedURLIssuer) Issue(ctx context.Context, field *FieldDescriptor) (string, error) {
	settings := field.Settings
	if settings.SharedAccessExpirationMinutes <= 0 || !settings.Remote() {
		return "", nil
	}

	provider, err := i.providers(settings, field.Subfolder)
	if err != nil {
		return "", err
	}

	expiry := time.Duration(settings.SharedAccessExpirationMinutes) * time.Minute
	return provider.SignedURL(ctx, field.URL, expiry)
}
