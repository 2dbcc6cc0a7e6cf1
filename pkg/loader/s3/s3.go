package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/OFFIS-RIT/graphtune/pkg/loader"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/singleflight"
)

// ObjectGetter is the subset of *s3.Client used by S3FileLoader.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3FileLoader is a FileLoader that reads objects from an S3 bucket.
// Paths are object keys, or full s3://bucket/key URIs which override the
// configured bucket.
type S3FileLoader struct {
	bucket string
	client ObjectGetter

	group singleflight.Group
}

// NewS3FileLoaderWithClient creates a new S3FileLoader using an existing
// client. This is useful if you want to reuse a preconfigured AWS client.
func NewS3FileLoaderWithClient(bucket string, client ObjectGetter) *S3FileLoader {
	return &S3FileLoader{
		bucket: bucket,
		client: client,
	}
}

// NewS3FileLoaderParams defines the configuration parameters for
// creating a new S3FileLoader.
//
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO). AccessKey and SecretKey provide static credentials;
// when both are empty the default AWS credential chain is used.
type NewS3FileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3FileLoader creates a new S3FileLoader using the provided parameters.
//
// Example:
//
//	l, err := s3.NewS3FileLoader(ctx, s3.NewS3FileLoaderParams{
//		Bucket: "datasets",
//		Region: "eu-central-1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	g, err := graph.ReadEdgeList(ctx, "graphs/karate.edgelist", graph.WithFileLoader(l))
func NewS3FileLoader(ctx context.Context, params NewS3FileLoaderParams) (*S3FileLoader, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(params.Region),
	}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}
	if params.AccessKey != "" || params.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = params.Endpoint != ""
	})

	return NewS3FileLoaderWithClient(params.Bucket, client), nil
}

// ParseURI splits an s3://bucket/key URI. ok is false for anything else.
func ParseURI(uri string) (bucket, key string, ok bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", false
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", false
	}
	return u.Host, key, true
}

// ReadFile fetches the object and returns its body.
func (l *S3FileLoader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	bucket, key := l.bucket, path
	if b, k, ok := ParseURI(path); ok {
		bucket, key = b, k
	}
	if bucket == "" {
		return nil, fmt.Errorf("no bucket configured for key %q", key)
	}

	result, err, shared := l.group.Do(bucket+"/"+key, func() (any, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			if errors.As(err, &noKey) {
				return nil, fmt.Errorf("%w: s3://%s/%s", loader.ErrNotFound, bucket, key)
			}
			return nil, fmt.Errorf("failed to get file from S3: %w", err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, fmt.Errorf("failed to read file contents: %w", err)
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("[Loader] Read S3 object", "bucket", bucket, "key", key)

	content := result.([]byte)
	if shared {
		content = append([]byte(nil), content...)
	}
	return content, nil
}
