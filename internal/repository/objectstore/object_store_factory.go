package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	skyerrors "github.com/zzenonn/skyferry/internal/errors"
)

// RepositoryType represents the type of object storage
type RepositoryType string

const (
	S3Type  RepositoryType = "s3"
	GCSType RepositoryType = "gcs"
)

// BucketConfig holds configuration for a storage bucket. An empty Region is
// inferred from the bucket itself when the store is created.
type BucketConfig struct {
	Name   string
	Type   RepositoryType
	Region string
}

// ObjectRepositoryFactory creates object store adapters from bucket
// configuration.
type ObjectRepositoryFactory struct {
	clients *Clients
}

// NewObjectRepositoryFactory creates a new factory
func NewObjectRepositoryFactory(clients *Clients) *ObjectRepositoryFactory {
	return &ObjectRepositoryFactory{clients: clients}
}

// CreateStore builds the adapter for a bucket, inferring its region from the
// provider when the configuration leaves it empty. A bucket that cannot be
// located reports skyerrors.ErrNoSuchBucket.
func (f *ObjectRepositoryFactory) CreateStore(ctx context.Context, config BucketConfig) (ObjectStore, error) {
	switch config.Type {
	case S3Type:
		region := config.Region
		if region == "" {
			inferred, err := f.inferS3Region(ctx, config.Name)
			if err != nil {
				return nil, err
			}
			region = inferred
		}
		repo := NewS3ObjectRepository(f.clients.S3, config.Name, region)
		return &repo, nil
	case GCSType:
		if f.clients.GCS == nil {
			return nil, fmt.Errorf("GCS client not configured")
		}
		location := config.Region
		if location == "" {
			attrs, err := f.clients.GCS.Bucket(config.Name).Attrs(ctx)
			if err != nil {
				return nil, mapGCSError(err)
			}
			location = strings.ToLower(attrs.Location)
		}
		repo := NewGCSObjectRepository(f.clients.GCS, config.Name, location)
		return &repo, nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", config.Type)
	}
}

// Resolve parses a bucket URL and builds its adapter in one step.
func (f *ObjectRepositoryFactory) Resolve(ctx context.Context, bucketURL string) (ObjectStore, error) {
	config, err := ParseBucketConfig(bucketURL)
	if err != nil {
		return nil, err
	}
	return f.CreateStore(ctx, config)
}

// inferS3Region resolves a bucket's home region. A nil location constraint
// means the legacy us-east-1 default.
func (f *ObjectRepositoryFactory) inferS3Region(ctx context.Context, bucketName string) (string, error) {
	out, err := f.clients.S3.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", skyerrors.ErrNoSuchBucket, err)
	}
	region := string(out.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}
	return region, nil
}

// ParseBucketConfig parses a bucket URL into configuration.
// Formats: "s3://bucket-name", "gs://bucket-name", optionally with an
// explicit region suffix as in "s3://bucket-name@us-west-2". Without the
// suffix the region is inferred at store creation.
func ParseBucketConfig(bucketStr string) (BucketConfig, error) {
	bucketStr = strings.TrimSpace(bucketStr)

	parts := strings.SplitN(bucketStr, "://", 2)
	if len(parts) != 2 {
		return BucketConfig{}, fmt.Errorf("invalid bucket URL %q, want scheme://bucket", bucketStr)
	}

	var repoType RepositoryType
	switch strings.ToLower(parts[0]) {
	case "s3":
		repoType = S3Type
	case "gs":
		repoType = GCSType
	default:
		return BucketConfig{}, fmt.Errorf("unsupported scheme: %s", parts[0])
	}

	bucketName := parts[1]
	region := ""
	if at := strings.LastIndex(bucketName, "@"); at >= 0 {
		region = bucketName[at+1:]
		bucketName = bucketName[:at]
	}
	if bucketName == "" {
		return BucketConfig{}, fmt.Errorf("bucket name cannot be empty")
	}

	return BucketConfig{
		Name:   bucketName,
		Type:   repoType,
		Region: region,
	}, nil
}
