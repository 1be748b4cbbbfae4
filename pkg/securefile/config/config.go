// Package config assembles securefile components from configuration: it
// parses the host's per-field settings bag into StorageSettings, selects and
// constructs storage providers, and loads server environment configuration.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/cloudconstruct/securefile/pkg/securefile"
	"github.com/cloudconstruct/securefile/pkg/securefile/encryption"
	fsstorage "github.com/cloudconstruct/securefile/pkg/securefile/storage/fs"
	s3storage "github.com/cloudconstruct/securefile/pkg/securefile/storage/s3"
)

// ServerConfig is the standalone server's environment configuration.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// SuperUser is granted access unconditionally. Empty disables the bypass.
	SuperUser string `env:"SUPER_USER" env-default:""`

	// EncryptionKey is the hex-encoded 32-byte key for encrypted fields.
	// Empty disables the codec; storing or serving an encrypted field then
	// fails.
	EncryptionKey string `env:"ENCRYPTION_KEY" env-default:""`

	// JWTSecret verifies bearer tokens on the read endpoint. Empty means all
	// requests are treated as anonymous.
	JWTSecret string `env:"JWT_SECRET" env-default:""`
}

// LoadServerConfig reads server configuration from the environment.
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.Port == "" {
		return nil, errors.New("port is required")
	}
	return &cfg, nil
}

// NewCodec builds the encryption codec from the configured key, or nil when
// encryption is not configured.
func (c *ServerConfig) NewCodec() (securefile.Codec, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	return encryption.New(c.EncryptionKey)
}

// NewProviderFactory returns the default provider selection: remote blob
// storage iff the settings carry an account name, local filesystem storage
// otherwise. The choice is made once per settings load and dispatched through
// the common StorageProvider interface.
func NewProviderFactory() securefile.ProviderFactory {
	return func(settings securefile.StorageSettings, subfolder string) (securefile.StorageProvider, error) {
		if settings.Remote() {
			// Operations run to completion or failure; there is no
			// request-scoped cancellation.
			return s3storage.New(context.Background(), s3storage.Config{
				AccountName: settings.BlobAccountName,
				SharedKey:   settings.BlobSharedKey,
				Endpoint:    settings.BlobEndpoint,
				Container:   settings.DirectoryName,
			})
		}
		return fsstorage.New(fsstorage.Config{
			Root:      settings.DirectoryName,
			Subfolder: subfolder,
		})
	}
}
