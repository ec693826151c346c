package aws

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// S3Scheme prefixes locations served by this repository.
const S3Scheme = "s3://"

// s3GetObjectAPI is the part of the S3 client used here.
type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3RepositoryImpl opens s3://bucket/key objects, creating the client on first use.
type S3RepositoryImpl struct {
	profile string
	region  string

	client s3GetObjectAPI
	mu     sync.Mutex
}

// NewS3Repository cria um repositório S3 para o profile e a região informados.
// Profile e região vazios usam a cadeia de credenciais padrão.
func NewS3Repository(profile, region string) repository.BlobRepository {
	return &S3RepositoryImpl{profile: profile, region: region}
}

// IsS3Location reports whether location is an s3:// URL.
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, S3Scheme)
}

// ParseS3Location splits s3://bucket/key.
func ParseS3Location(location string) (bucket, key string, err error) {
	if !IsS3Location(location) {
		return "", "", fmt.Errorf("%w: %q is not an s3:// location", types.ErrUnsupportedIO, location)
	}
	rest := strings.TrimPrefix(location, S3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must look like s3://bucket/key", types.ErrUnsupportedIO, location)
	}
	return bucket, key, nil
}

// Open streams the object body. The caller closes it.
func (r *S3RepositoryImpl) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	client, err := r.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", location, err)
	}
	return out.Body, nil
}

func (r *S3RepositoryImpl) getClient(ctx context.Context) (s3GetObjectAPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	var opts []func(*config.LoadOptions) error
	if r.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(r.profile))
	}
	if r.region != "" {
		opts = append(opts, config.WithRegion(r.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for profile %s: %w", r.profileName(), err)
	}

	r.client = s3.NewFromConfig(cfg)
	return r.client, nil
}

func (r *S3RepositoryImpl) profileName() string {
	if r.profile == "" {
		return "default"
	}
	return r.profile
}
