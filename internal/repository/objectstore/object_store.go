// Package objectstore provides provider-specific object storage adapters
// behind a single capability interface consumed by transfer jobs and the
// gateway runtime.
package objectstore

import (
	"context"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/skyferry/internal/domain"
)

// deleteBatchSize caps how many keys one batched delete call may carry.
const deleteBatchSize = 1000

// maxPartNumber bounds multipart upload part numbers, inclusive from 1.
const maxPartNumber = 10000

// CompletedPart pairs a part number with the integrity tag the store handed
// back for it. The full ordered list finalizes a multipart upload.
type CompletedPart struct {
	PartNumber int32  `json:"part_number"`
	ETag       string `json:"etag"`
}

// ObjectStore is the capability one bucket exposes to the transfer system.
// Operations addressing a missing object or bucket report the sentinel
// errors in internal/errors, distinct from transport failures.
type ObjectStore interface {
	domain.StoreEndpoint

	Exists(ctx context.Context, key string) (bool, error)
	ObjectSize(ctx context.Context, key string) (int64, error)

	// ListObjects lazily enumerates objects under prefix in key order,
	// calling fn for each. A non-empty startAfter resumes enumeration
	// strictly after that key.
	ListObjects(ctx context.Context, prefix, startAfter string, fn func(domain.ObjectInfo) error) error

	// DeleteObjects removes the given keys, batching provider calls at 1000
	// keys apiece.
	DeleteObjects(ctx context.Context, keys []string) error

	Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error)
	Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error)

	// DownloadRange fetches length bytes starting at offset into the same
	// offset of dst.
	DownloadRange(ctx context.Context, key string, dst *os.File, offset, length int64) error

	// UploadFile stores a whole local file under key.
	UploadFile(ctx context.Context, srcPath, key string) error

	// InitiateMultipartUpload opens an upload session and returns its id.
	InitiateMultipartUpload(ctx context.Context, key string) (string, error)
	// UploadPart stores bytes [offset, offset+length) of srcPath as the given
	// part, 1 through 10000.
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, srcPath string, offset, length int64) (CompletedPart, error)
	// CompleteMultipartUpload finalizes the session from the collected parts;
	// ordering by part number is handled here, not left to the caller.
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error
}

// Clients bundles the provider SDK clients the adapters are built from.
type Clients struct {
	S3  *s3.Client
	GCS *storage.Client
}

// NewClients constructs provider clients from the shared AWS configuration
// and an optional GCS client.
func NewClients(awsConfig aws.Config, gcsClient *storage.Client) *Clients {
	client := s3.NewFromConfig(awsConfig)
	if client == nil {
		log.Fatal("Failed to create S3 client")
	}
	return &Clients{
		S3:  client,
		GCS: gcsClient,
	}
}
