package storage

import (
	"context"
	"net/url"
	"testing"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	noop "go.opentelemetry.io/otel/trace/noop"
)

func Test_BlobOpt_Endpoint(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		wantErr   bool
		wantQuery map[string]string
	}{
		{
			name:     "http endpoint",
			endpoint: "http://localhost:9000",
			wantQuery: map[string]string{
				"endpoint":         "http://localhost:9000",
				"s3ForcePathStyle": "true",
				"disable_https":    "true",
			},
		},
		{
			name:     "https endpoint",
			endpoint: "https://s3.example.com",
			wantQuery: map[string]string{
				"endpoint":         "https://s3.example.com",
				"s3ForcePathStyle": "true",
			},
		},
		{
			name:     "invalid scheme",
			endpoint: "ftp://example.com",
			wantErr:  true,
		},
		{
			name:     "invalid URL",
			endpoint: "://invalid",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			u, err := url.Parse("s3://bucket")
			require.NoError(t, err)

			o, err := applyBlobOpts(u, WithEndpoint(tt.endpoint))
			if tt.wantErr {
				assert.Error(err)
				return
			}
			require.NoError(t, err)
			assert.Equal(tt.endpoint, o.endpoint)
			q := o.url.Query()
			for k, v := range tt.wantQuery {
				assert.Equal(v, q.Get(k), k)
			}
			if _, exists := tt.wantQuery["disable_https"]; !exists {
				assert.False(q.Has("disable_https"))
			}
		})
	}
}

func Test_BlobOpt_Flags(t *testing.T) {
	assert := assert.New(t)
	u, err := url.Parse("file:///tmp/uploads")
	require.NoError(t, err)

	provider := noop.NewTracerProvider()
	o, err := applyBlobOpts(u,
		WithAnonymous(),
		WithCreateDir(),
		WithAWSConfig(aws.Config{Region: "eu-west-1"}),
		WithTracerProvider(provider),
	)
	require.NoError(t, err)
	assert.True(o.anonymous)
	assert.Equal("true", o.url.Query().Get("anonymous"))
	assert.Equal("true", o.url.Query().Get("create_dir"))
	assert.Equal("eu-west-1", o.awsConfig.Region)
	assert.Equal(provider, o.provider)
}

func Test_BlobOpt_KeyFunc(t *testing.T) {
	assert := assert.New(t)
	u, _ := url.Parse("mem://")

	o, err := applyBlobOpts(u)
	require.NoError(t, err)
	key, err := o.key(context.Background(), nil)
	assert.NoError(err)
	assert.Len(key, 36)

	o, err = applyBlobOpts(u, WithKeyFunc(func(_ context.Context, file *schema.File) (string, error) {
		return file.OriginalName, nil
	}))
	require.NoError(t, err)
	key, err = o.key(context.Background(), &schema.File{OriginalName: "a.txt"})
	assert.NoError(err)
	assert.Equal("a.txt", key)

	_, err = applyBlobOpts(u, WithKeyFunc(nil))
	assert.Error(err)
}

func Test_Blob_S3Client(t *testing.T) {
	assert := assert.New(t)
	u, _ := url.Parse("s3://bucket/prefix")

	o, err := applyBlobOpts(u,
		WithAWSConfig(aws.Config{Region: "us-east-1"}),
		WithEndpoint("http://localhost:9000"),
		WithAnonymous(),
		WithTracerProvider(noop.NewTracerProvider()),
	)
	require.NoError(t, err)

	b := &Blob{blobopt: o, prefix: "prefix"}
	client := b.s3client()
	assert.NotNil(client)
	assert.Equal("us-east-1", client.Options().Region)
	assert.Equal("http://localhost:9000", aws.ToString(client.Options().BaseEndpoint))
	assert.True(client.Options().UsePathStyle)
	assert.Equal("prefix/a/b", b.storageKey("/a/b"))
	assert.Equal("s3://bucket/prefix/a/b", b.objectURL("prefix/a/b"))
}
