package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"

	"github.com/zzenonn/skyferry/internal/domain"
	skyerrors "github.com/zzenonn/skyferry/internal/errors"
)

// composeBatchSize is the GCS limit on source objects per compose call.
const composeBatchSize = 32

// GCSObjectRepository implements ObjectStore for one GCS bucket. Multipart
// uploads are emulated with part objects finalized through object
// composition, since GCS has no S3-style multipart protocol.
type GCSObjectRepository struct {
	client     *storage.Client
	bucketName string
	location   string
}

// NewGCSObjectRepository initializes a new GCSObjectRepository for a bucket
// in the given GCS location.
func NewGCSObjectRepository(client *storage.Client, bucketName, location string) GCSObjectRepository {
	return GCSObjectRepository{
		client:     client,
		bucketName: bucketName,
		location:   location,
	}
}

// Bucket returns the bucket name.
func (r *GCSObjectRepository) Bucket() string {
	return r.bucketName
}

// RegionTag returns the provider-qualified region.
func (r *GCSObjectRepository) RegionTag() string {
	return "gcp:" + strings.ToLower(r.location)
}

// Exists reports whether an object is present.
func (r *GCSObjectRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.Bucket(r.bucketName).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mapGCSError(err)
	}
	return true, nil
}

// ObjectSize returns the stored size of an object in bytes.
func (r *GCSObjectRepository) ObjectSize(ctx context.Context, key string) (int64, error) {
	attrs, err := r.client.Bucket(r.bucketName).Object(key).Attrs(ctx)
	if err != nil {
		return 0, mapGCSError(err)
	}
	return attrs.Size, nil
}

// ListObjects enumerates the bucket under prefix. GCS start offsets are
// inclusive, so keys up to startAfter are filtered out here.
func (r *GCSObjectRepository) ListObjects(ctx context.Context, prefix, startAfter string, fn func(domain.ObjectInfo) error) error {
	query := &storage.Query{Prefix: prefix}
	if startAfter != "" {
		query.StartOffset = startAfter
	}

	it := r.client.Bucket(r.bucketName).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return mapGCSError(err)
		}
		if startAfter != "" && attrs.Name <= startAfter {
			continue
		}
		info := domain.ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
		}
		if err := fn(info); err != nil {
			return err
		}
	}
}

// DeleteObjects removes keys, walking them in the same 1000-key batches the
// capability contract promises even though GCS deletes are single calls.
func (r *GCSObjectRepository) DeleteObjects(ctx context.Context, keys []string) error {
	bucket := r.client.Bucket(r.bucketName)
	for len(keys) > 0 {
		batch := keys
		if len(batch) > deleteBatchSize {
			batch = keys[:deleteBatchSize]
		}
		keys = keys[len(batch):]

		for _, key := range batch {
			if err := bucket.Object(key).Delete(ctx); err != nil {
				return mapGCSError(err)
			}
		}
	}
	return nil
}

// Upload uploads an object to GCS
func (r *GCSObjectRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
	writer := r.client.Bucket(r.bucketName).Object(key).NewWriter(ctx)

	seeker, ok := reader.(io.Seeker)
	var size int64 = -1
	if ok {
		if current, err := seeker.Seek(0, io.SeekCurrent); err == nil {
			if end, err := seeker.Seek(0, io.SeekEnd); err == nil {
				size = end - current
				seeker.Seek(current, io.SeekStart)
			}
		}
	}

	var proxyReader io.Reader = reader
	if !quiet {
		log.Debugf("Uploading to GCS: gs://%s/%s", r.bucketName, key)
		bar := progressbar.DefaultBytes(size, "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		proxyReader = &pbReader
	}

	if _, err := io.Copy(writer, proxyReader); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	return fmt.Sprintf("%s/%s", r.bucketName, key), nil
}

// progressReader wraps a ReadCloser with a progress bar
type progressReader struct {
	r   io.ReadCloser
	bar *progressbar.ProgressBar
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.r.Read(p)
	if pr.bar != nil {
		pr.bar.Add(n)
	}
	return n, err
}

func (pr *progressReader) Close() error {
	return pr.r.Close()
}

// Download downloads an object from GCS
func (r *GCSObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	obj := r.client.Bucket(r.bucketName).Object(key)

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, mapGCSError(err)
	}
	if quiet {
		return reader, nil
	}

	log.Debugf("Downloading from GCS: gs://%s/%s", r.bucketName, key)
	var bar *progressbar.ProgressBar
	if attrs, err := obj.Attrs(ctx); err == nil {
		bar = progressbar.DefaultBytes(attrs.Size, "downloading")
	}
	return &progressReader{r: reader, bar: bar}, nil
}

// DownloadRange fetches one byte range of an object into the same offset of
// a local file.
func (r *GCSObjectRepository) DownloadRange(ctx context.Context, key string, dst *os.File, offset, length int64) error {
	reader, err := r.client.Bucket(r.bucketName).Object(key).NewRangeReader(ctx, offset, length)
	if err != nil {
		return mapGCSError(err)
	}
	defer reader.Close()

	if _, err := dst.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(dst, reader)
	return err
}

// UploadFile stores a whole local file under key.
func (r *GCSObjectRepository) UploadFile(ctx context.Context, srcPath, key string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = r.Upload(ctx, key, f, true)
	return err
}

// InitiateMultipartUpload opens an emulated multipart session. The id only
// namespaces the part objects written by UploadPart.
func (r *GCSObjectRepository) InitiateMultipartUpload(ctx context.Context, key string) (string, error) {
	return uuid.NewString(), nil
}

func (r *GCSObjectRepository) partKey(key, uploadID string, partNumber int32) string {
	return fmt.Sprintf("%s.sky_part_%s_%05d", key, uploadID, partNumber)
}

// UploadPart writes one byte range of a local file as a part object.
func (r *GCSObjectRepository) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, srcPath string, offset, length int64) (CompletedPart, error) {
	if partNumber < 1 || partNumber > maxPartNumber {
		return CompletedPart{}, fmt.Errorf("invalid part number %d, want 1..%d", partNumber, maxPartNumber)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return CompletedPart{}, err
	}
	defer f.Close()

	obj := r.client.Bucket(r.bucketName).Object(r.partKey(key, uploadID, partNumber))
	writer := obj.NewWriter(ctx)
	if _, err := io.Copy(writer, io.NewSectionReader(f, offset, length)); err != nil {
		writer.Close()
		return CompletedPart{}, err
	}
	if err := writer.Close(); err != nil {
		return CompletedPart{}, err
	}
	return CompletedPart{PartNumber: partNumber, ETag: writer.Attrs().Etag}, nil
}

// CompleteMultipartUpload composes the part objects into the final object
// and deletes them. Compose takes at most 32 sources per call, so larger
// part lists fold through an intermediate object.
func (r *GCSObjectRepository) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	bucket := r.client.Bucket(r.bucketName)
	partKeys := make([]string, len(sorted))
	for i, p := range sorted {
		partKeys[i] = r.partKey(key, uploadID, p.PartNumber)
	}

	sources := partKeys
	dst := bucket.Object(key)
	scratch := r.partKey(key, uploadID, 0) // part numbers start at 1
	scratchUsed := false
	for {
		batch := sources
		if len(batch) > composeBatchSize {
			batch = sources[:composeBatchSize]
		}
		srcs := make([]*storage.ObjectHandle, len(batch))
		for i, name := range batch {
			srcs[i] = bucket.Object(name)
		}

		if len(batch) == len(sources) {
			if _, err := dst.ComposerFrom(srcs...).Run(ctx); err != nil {
				return mapGCSError(err)
			}
			break
		}
		if _, err := bucket.Object(scratch).ComposerFrom(srcs...).Run(ctx); err != nil {
			return mapGCSError(err)
		}
		scratchUsed = true
		sources = append([]string{scratch}, sources[len(batch):]...)
	}

	cleanup := partKeys
	if scratchUsed {
		cleanup = append(cleanup, scratch)
	}
	return r.DeleteObjects(ctx, cleanup)
}

// mapGCSError translates the client's missing-object and missing-bucket
// errors into the package sentinels; transport errors pass through.
func mapGCSError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return fmt.Errorf("%w: %v", skyerrors.ErrNoSuchObject, err)
	case errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("%w: %v", skyerrors.ErrNoSuchBucket, err)
	}
	return err
}
