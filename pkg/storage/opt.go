package storage

import (
	"fmt"
	"net/url"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type blobopt struct {
	url       *url.URL
	awsConfig *aws.Config
	endpoint  string               // wired into the s3 client when awsConfig is set
	anonymous bool                 // wired into the s3 client when awsConfig is set
	provider  trace.TracerProvider // when set, s3 API calls produce child spans
	key       NameFunc
}

// BlobOpt configures blob storage
type BlobOpt func(*blobopt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyBlobOpts(url *url.URL, opts ...BlobOpt) (*blobopt, error) {
	o := blobopt{url: url, key: RandomKey}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithEndpoint sets the endpoint for S3-compatible services. For http://
// endpoints HTTPS is disabled.
func WithEndpoint(endpoint string) BlobOpt {
	return func(o *blobopt) error {
		if endpoint, err := url.Parse(endpoint); err != nil {
			return err
		} else if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
			return fmt.Errorf("endpoint must be http:// or https://, got %s://", endpoint.Scheme)
		} else {
			o.endpoint = endpoint.String()
			o.set("endpoint", o.endpoint)
			o.set("s3ForcePathStyle", "true")
			if endpoint.Scheme == "http" {
				o.set("disable_https", "true")
			}
		}
		return nil
	}
}

// WithAnonymous uses anonymous credentials
func WithAnonymous() BlobOpt {
	return func(o *blobopt) error {
		o.anonymous = true
		o.set("anonymous", "true")
		return nil
	}
}

// WithCreateDir creates the directory of a file:// bucket if it does not exist
func WithCreateDir() BlobOpt {
	return func(o *blobopt) error {
		o.set("create_dir", "true")
		return nil
	}
}

// WithAWSConfig opens s3:// buckets with the given configuration instead
// of the parameters in the URL
func WithAWSConfig(cfg aws.Config) BlobOpt {
	return func(o *blobopt) error {
		o.awsConfig = &cfg
		return nil
	}
}

// WithTracerProvider traces s3 API calls. It only applies together with
// WithAWSConfig.
func WithTracerProvider(provider trace.TracerProvider) BlobOpt {
	return func(o *blobopt) error {
		o.provider = provider
		return nil
	}
}

// WithKeyFunc sets the function which returns the object key for each file
func WithKeyFunc(fn NameFunc) BlobOpt {
	return func(o *blobopt) error {
		if fn == nil {
			return fmt.Errorf("key function is required")
		}
		o.key = fn
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (o *blobopt) set(key, value string) {
	if o.url == nil {
		return
	}
	q := o.url.Query()
	if value == "" {
		q.Del(key)
	} else {
		q.Set(key, value)
	}
	o.url.RawQuery = q.Encode()
}
