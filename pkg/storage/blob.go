package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"syscall"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	uuid "github.com/google/uuid"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	upload "github.com/mutablelogic/go-upload"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	blob "gocloud.dev/blob"
	s3blob "gocloud.dev/blob/s3blob"
	gcerrors "gocloud.dev/gcerrors"

	// Drivers
	_ "gocloud.dev/blob/fileblob" // file:// URLs
	_ "gocloud.dev/blob/memblob"  // mem:// URLs
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Blob writes each file as an object in a bucket
type Blob struct {
	*blobopt
	bucket *blob.Bucket
	prefix string // key prefix for s3 and mem buckets
}

var _ upload.Storage = (*Blob)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBlob opens a bucket. Supported URL schemes are s3://, file:// and mem://
// Examples:
//   - "s3://my-bucket/uploads?region=us-east-1"
//   - "file:///path/to/directory"
//   - "mem://"
func NewBlob(ctx context.Context, u string, opts ...BlobOpt) (*Blob, error) {
	self := new(Blob)

	if url, err := url.Parse(u); err != nil {
		return nil, err
	} else if opt, err := applyBlobOpts(url, opts...); err != nil {
		return nil, err
	} else {
		self.blobopt = opt
	}
	if self.url.Scheme != "file" {
		self.prefix = strings.Trim(self.url.Path, "/")
	}

	var bucket *blob.Bucket
	var err error
	switch {
	case self.url.Scheme == "s3" && self.awsConfig != nil:
		bucket, err = s3blob.OpenBucket(ctx, self.s3client(), self.url.Host, nil)
	case self.url.Scheme == "file":
		openURL := &url.URL{Scheme: "file", Path: self.url.Path, RawQuery: self.url.RawQuery}
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	default:
		openURL := *self.url
		openURL.Path = ""
		openURL.RawPath = ""
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	self.bucket = bucket

	return self, nil
}

// Close the bucket
func (b *Blob) Close() error {
	var result error
	if b.bucket != nil {
		result = errors.Join(result, b.bucket.Close())
		b.bucket = nil
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RandomKey returns a random UUID as the object key
func RandomKey(context.Context, *schema.File) (string, error) {
	return uuid.NewString(), nil
}

// URL returns the bucket location, without credentials
func (b *Blob) URL() *url.URL {
	u := *b.url
	u.User = nil
	return &u
}

// WriteFile streams the content into a new object. The object is deleted
// again when the write fails.
func (b *Blob) WriteFile(ctx context.Context, file *schema.File) (*schema.FileInfo, error) {
	key, err := b.key(ctx, file)
	if err != nil {
		return nil, err
	}
	sk := b.storageKey(key)

	w, err := b.bucket.NewWriter(ctx, sk, &blob.WriterOptions{
		ContentType: file.MimeType,
		Metadata: map[string]string{
			schema.AttrFieldName:    file.FieldName,
			schema.AttrOriginalName: file.OriginalName,
		},
	})
	if err != nil {
		return nil, blobErr(err, b.objectURL(sk))
	}
	n, err := io.Copy(w, file.Stream)
	if err != nil {
		w.Close()
		b.bucket.Delete(context.WithoutCancel(ctx), sk)
		return nil, err
	} else if err := w.Close(); err != nil {
		b.bucket.Delete(context.WithoutCancel(ctx), sk)
		return nil, blobErr(err, b.objectURL(sk))
	}

	info := &schema.FileInfo{
		Key:  key,
		URL:  b.objectURL(sk),
		Size: n,
	}

	// The object exists even if the attributes cannot be read back
	if attrs, err := b.bucket.Attributes(ctx, sk); err == nil {
		info.ETag = attrs.ETag
		if len(attrs.Metadata) > 0 {
			info.Meta = attrs.Metadata
		}
	}

	return info, nil
}

// RemoveFile deletes the object written for the file
func (b *Blob) RemoveFile(ctx context.Context, file *schema.File) error {
	if file.Key == "" {
		return httpresponse.ErrBadRequest.With("file has no object key")
	}
	sk := b.storageKey(file.Key)
	return blobErr(b.bucket.Delete(ctx, sk), b.objectURL(sk))
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// s3client returns a client for the configured AWS settings
func (b *Blob) s3client() *s3.Client {
	cfg := b.awsConfig.Copy()
	if b.provider != nil {
		otelaws.AppendMiddlewares(&cfg.APIOptions, otelaws.WithTracerProvider(b.provider))
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if b.endpoint != "" {
			o.BaseEndpoint = aws.String(b.endpoint)
			o.UsePathStyle = true
		}
		if b.anonymous {
			o.Credentials = aws.AnonymousCredentials{}
		}
	})
}

func (b *Blob) storageKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if b.prefix != "" {
		return b.prefix + "/" + key
	}
	return key
}

func (b *Blob) objectURL(sk string) string {
	u := url.URL{Scheme: b.url.Scheme, Host: b.url.Host, Path: "/" + sk}
	if b.url.Scheme == "file" {
		u.Path = strings.TrimSuffix(b.url.Path, "/") + "/" + sk
	}
	return u.String()
}

// blobErr wraps a go-cloud blob error with the appropriate httpresponse error
func blobErr(err error, url string) error {
	if err == nil {
		return nil
	}
	// OS errors first, gcerrors wraps the default path with %v
	if errors.Is(err, syscall.EISDIR) || errors.Is(err, syscall.EEXIST) {
		return httpresponse.ErrBadRequest.Withf("cannot overwrite directory with file: %q", url)
	}
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return httpresponse.ErrNotFound.Withf("object %q not found", url)
	case gcerrors.PermissionDenied:
		return httpresponse.ErrForbidden.Withf("permission denied for %q", url)
	case gcerrors.InvalidArgument:
		return httpresponse.ErrBadRequest.Withf("invalid argument for %q: %v", url, err)
	case gcerrors.FailedPrecondition:
		return httpresponse.ErrConflict.Withf("precondition failed for %q: %v", url, err)
	default:
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	}
}
