package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/schollz/progressbar/v3"

	"github.com/zzenonn/skyferry/internal/domain"
	skyerrors "github.com/zzenonn/skyferry/internal/errors"
)

// S3ObjectRepository implements ObjectStore for one S3 bucket.
type S3ObjectRepository struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
	region     string
}

// NewS3ObjectRepository initializes a new S3ObjectRepository for a bucket in
// the given AWS region.
func NewS3ObjectRepository(client *s3.Client, bucketName, region string) S3ObjectRepository {
	return S3ObjectRepository{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucketName: bucketName,
		region:     region,
	}
}

// Bucket returns the bucket name.
func (r *S3ObjectRepository) Bucket() string {
	return r.bucketName
}

// RegionTag returns the provider-qualified region.
func (r *S3ObjectRepository) RegionTag() string {
	return "aws:" + r.region
}

// Exists reports whether an object is present.
func (r *S3ObjectRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if errors.Is(mapS3Error(err), skyerrors.ErrNoSuchObject) {
			return false, nil
		}
		return false, mapS3Error(err)
	}
	return true, nil
}

// ObjectSize returns the stored size of an object in bytes.
func (r *S3ObjectRepository) ObjectSize(ctx context.Context, key string) (int64, error) {
	head, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, mapS3Error(err)
	}
	return aws.ToInt64(head.ContentLength), nil
}

// ListObjects enumerates the bucket under prefix via the paginated list API.
func (r *S3ObjectRepository) ListObjects(ctx context.Context, prefix, startAfter string, fn func(domain.ObjectInfo) error) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucketName),
		Prefix: aws.String(prefix),
	}
	if startAfter != "" {
		input.StartAfter = aws.String(startAfter)
	}

	paginator := s3.NewListObjectsV2Paginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return mapS3Error(err)
		}
		for _, obj := range page.Contents {
			info := domain.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			if err := fn(info); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteObjects removes keys in batches of up to 1000 per call.
func (r *S3ObjectRepository) DeleteObjects(ctx context.Context, keys []string) error {
	for len(keys) > 0 {
		batch := keys
		if len(batch) > deleteBatchSize {
			batch = keys[:deleteBatchSize]
		}
		keys = keys[len(batch):]

		objects := make([]types.ObjectIdentifier, len(batch))
		for i, key := range batch {
			objects[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}
		_, err := r.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(r.bucketName),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return mapS3Error(err)
		}
	}
	return nil
}

// Upload uploads an object to S3
func (r *S3ObjectRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
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
		bar := progressbar.DefaultBytes(size, "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		proxyReader = &pbReader
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
		Body:   proxyReader,
	}
	if size > 0 {
		input.ContentLength = &size
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		return "", mapS3Error(err)
	}
	return r.bucketName + "/" + key, nil
}

// Download downloads an object from S3
func (r *S3ObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(err)
	}

	if !quiet {
		bar := progressbar.DefaultBytes(aws.ToInt64(result.ContentLength), "downloading")
		proxyReader := progressbar.NewReader(result.Body, bar)
		return &progressReaderCloser{Reader: &proxyReader, Closer: result.Body}, nil
	}
	return result.Body, nil
}

type progressReaderCloser struct {
	io.Reader
	io.Closer
}

// DownloadRange fetches one byte range of an object into the same offset of
// a local file.
func (r *S3ObjectRepository) DownloadRange(ctx context.Context, key string, dst *os.File, offset, length int64) error {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		return mapS3Error(err)
	}
	defer result.Body.Close()

	if _, err := dst.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(dst, result.Body)
	return err
}

// UploadFile stores a whole local file under key using the transfer manager.
func (r *S3ObjectRepository) UploadFile(ctx context.Context, srcPath, key string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
		Body:   f,
	})
	return mapS3Error(err)
}

// InitiateMultipartUpload opens a multipart upload session.
func (r *S3ObjectRepository) InitiateMultipartUpload(ctx context.Context, key string) (string, error) {
	out, err := r.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", mapS3Error(err)
	}
	return aws.ToString(out.UploadId), nil
}

// UploadPart uploads one byte range of a local file as a numbered part.
func (r *S3ObjectRepository) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, srcPath string, offset, length int64) (CompletedPart, error) {
	if partNumber < 1 || partNumber > maxPartNumber {
		return CompletedPart{}, fmt.Errorf("invalid part number %d, want 1..%d", partNumber, maxPartNumber)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return CompletedPart{}, err
	}
	defer f.Close()

	out, err := r.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(r.bucketName),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          io.NewSectionReader(f, offset, length),
		ContentLength: aws.Int64(length),
	})
	if err != nil {
		return CompletedPart{}, mapS3Error(err)
	}
	return CompletedPart{PartNumber: partNumber, ETag: aws.ToString(out.ETag)}, nil
}

// CompleteMultipartUpload finalizes the session. Parts are sorted by part
// number here rather than left to the caller.
func (r *S3ObjectRepository) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	completed := make([]types.CompletedPart, len(sorted))
	for i, p := range sorted {
		completed[i] = types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		}
	}

	_, err := r.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(r.bucketName),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	return mapS3Error(err)
}

// mapS3Error translates the SDK's missing-object and missing-bucket modeled
// errors into the package sentinels; transport errors pass through unchanged.
func mapS3Error(err error) error {
	if err == nil {
		return nil
	}
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return fmt.Errorf("%w: %v", skyerrors.ErrNoSuchObject, err)
	case errors.As(err, &noSuchBucket):
		return fmt.Errorf("%w: %v", skyerrors.ErrNoSuchBucket, err)
	}
	return err
}
