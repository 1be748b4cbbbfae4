// Package s3 is the remote blob implementation of the
// securefile.StorageProvider interface, for S3-compatible object storage.
//
// Every remote call goes through the client's standard retryer (exponential
// backoff with jitter, bounded attempts); callers treat exhaustion as a hard
// storage failure. The container (bucket) is created on construction if
// missing and its canned ACL set to private or public-read.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/cloudconstruct/securefile/pkg/securefile"
)

// EmulatorAccountName routes to a local S3-compatible emulator (MinIO)
// instead of a real remote account.
const EmulatorAccountName = "devstoreaccount1"

const (
	emulatorEndpoint  = "http://localhost:9000"
	emulatorSharedKey = "minioadmin"

	defaultRegion      = "us-east-1"
	defaultMaxAttempts = 10
	defaultMaxBackoff  = 64 * time.Second
)

// Config options for the blob provider.
type Config struct {
	AccountName string // Account name; EmulatorAccountName selects the emulator
	SharedKey   string // Account shared key
	Endpoint    string // Blob endpoint; optional for the emulator
	Container   string // Container (bucket) name
	Region      string // Region (default: us-east-1)

	PublicRead   bool // Container ACL: public-read instead of private
	UsePathStyle bool // Path-style addressing (forced for the emulator)

	MaxAttempts int // Retry attempt bound for remote calls (default: 10)
}

// Provider stores objects in an S3-compatible container.
type Provider struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New creates a blob provider, ensuring the container exists and carries the
// configured access policy.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Container == "" {
		return nil, errors.New("container name is required")
	}
	if cfg.AccountName == "" {
		return nil, errors.New("account name is required")
	}

	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	sharedKey := cfg.SharedKey
	if cfg.AccountName == EmulatorAccountName {
		if cfg.Endpoint == "" {
			cfg.Endpoint = emulatorEndpoint
		}
		if sharedKey == "" {
			sharedKey = emulatorSharedKey
		}
		cfg.UsePathStyle = true
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccountName,
			sharedKey,
			"",
		)),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = cfg.MaxAttempts
				o.MaxBackoff = defaultMaxBackoff
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	p := &Provider{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Container,
	}

	if err := p.ensureContainer(ctx, cfg.PublicRead); err != nil {
		return nil, err
	}

	return p, nil
}

// ensureContainer creates the container if missing and applies the canned
// access policy.
func (p *Provider) ensureContainer(ctx context.Context, publicRead bool) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err != nil {
		if !isNotFound(err) {
			return &securefile.StorageError{Provider: "s3", Name: p.bucket, Op: "head_container", Err: err}
		}
		_, err = p.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(p.bucket),
		})
		if err != nil && !isAlreadyOwned(err) {
			return &securefile.StorageError{Provider: "s3", Name: p.bucket, Op: "create_container", Err: err}
		}
	}

	acl := types.BucketCannedACLPrivate
	if publicRead {
		acl = types.BucketCannedACLPublicRead
	}
	_, err = p.client.PutBucketAcl(ctx, &s3.PutBucketAclInput{
		Bucket: aws.String(p.bucket),
		ACL:    acl,
	})
	if err != nil {
		return &securefile.StorageError{Provider: "s3", Name: p.bucket, Op: "set_container_acl", Err: err}
	}
	return nil
}

// Get fetches the object's bytes, content type and length.
func (p *Provider) Get(ctx context.Context, name string) (*securefile.StoredFile, error) {
	result, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, securefile.ErrObjectNotFound
		}
		return nil, &securefile.StorageError{Provider: "s3", Name: name, Op: "get", Err: err}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &securefile.StorageError{Provider: "s3", Name: name, Op: "get", Err: err}
	}

	contentType := "application/octet-stream"
	if result.ContentType != nil {
		contentType = *result.ContentType
	}

	return &securefile.StoredFile{
		FileName:      name,
		ContentType:   contentType,
		ContentLength: int64(len(data)),
		Bytes:         data,
	}, nil
}

// Insert uploads the object. With overwrite false an existing object yields
// ErrObjectExists without mutating storage. The existence check and the
// upload are not atomic; concurrent writers follow last-writer-wins, as on
// overwrite.
func (p *Provider) Insert(ctx context.Context, name string, data []byte, contentType string, length int64, overwrite bool) error {
	if !overwrite {
		exists, err := p.Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return securefile.ErrObjectExists
		}
	}

	uploader := manager.NewUploader(p.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return &securefile.StorageError{Provider: "s3", Name: name, Op: "insert", Err: err}
	}
	return nil
}

// Update is Insert with implicit overwrite.
func (p *Provider) Update(ctx context.Context, name string, data []byte, contentType string, length int64) error {
	return p.Insert(ctx, name, data, contentType, length, true)
}

// Delete removes the object, reporting whether anything was removed.
func (p *Provider) Delete(ctx context.Context, name string) (bool, error) {
	exists, err := p.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	_, err = p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return false, &securefile.StorageError{Provider: "s3", Name: name, Op: "delete", Err: err}
	}
	return true, nil
}

// Exists reports whether the object is present. A resource-not-found error
// code is a normal false result; any other error is returned.
func (p *Provider) Exists(ctx context.Context, name string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &securefile.StorageError{Provider: "s3", Name: name, Op: "exists", Err: err}
	}
	return true, nil
}

// SignedURL issues a presigned read-only GET for the object. The validity
// window starts now and ends now plus expiry; the signature travels in the
// URL's query string.
func (p *Provider) SignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	result, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(name),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", &securefile.StorageError{Provider: "s3", Name: name, Op: "signed_url", Err: err}
	}
	return result.URL, nil
}

// isNotFound matches the resource-not-found error codes across S3 and
// S3-compatible services.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}

func isAlreadyOwned(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return true
		}
	}
	return false
}
