package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/media"
)

// minioAPI is the subset of *minio.Client used here; tests swap in a fake.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

var _ Storage = (*MinioStorage)(nil)

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
type MinioStorage struct {
	api        minioAPI
	bucket     string
	publicBase string
	log        *logger.Logger
}

// NewMinioStorage creates a MinIO client, ensures the bucket exists with a public-read
// policy, and returns a ready-to-use MinioStorage.
func NewMinioStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket, publicBase string, useSSL bool, log *logger.Logger) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinioStorage(ctx, client, bucket, publicBase, log)
}

func newMinioStorage(ctx context.Context, api minioAPI, bucket, publicBase string, log *logger.Logger) (*MinioStorage, error) {
	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Info("storage: created bucket", "bucket", bucket)
	}

	if err := api.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &MinioStorage{
		api:        api,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		log:        log,
	}, nil
}

// Upload streams the input to the bucket and reports the outcome as a Result.
func (s *MinioStorage) Upload(ctx context.Context, in UploadInput) Result {
	key := objectKey(in.FileName, in.Options)

	contentType := in.ContentType
	if contentType == "" {
		contentType = media.ContentType(media.Classify("", key), key)
	}
	if !media.IsServable(contentType) {
		contentType = media.OctetStream
	}

	var tags map[string]string
	if len(in.Options.Tags) > 0 {
		tags = make(map[string]string, len(in.Options.Tags))
		for i, t := range in.Options.Tags {
			tags[fmt.Sprintf("tag%d", i)] = t
		}
	}

	info, err := s.api.PutObject(ctx, s.bucket, key, in.Reader, in.Size, minio.PutObjectOptions{
		ContentType: contentType,
		UserTags:    tags,
	})
	if err != nil {
		return Failure(describeError(err))
	}
	if info.Key == "" {
		return Failure("media store returned no object name")
	}

	return Success(s.PublicURL(info.Key), info.Key)
}

// Delete removes the object at key from the bucket.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the browser-accessible URL for the given key.
func (s *MinioStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// describeError flattens the two error shapes the S3 client produces: a
// structured error response (code, message and HTTP status) or a plain error.
func describeError(err error) string {
	resp := minio.ToErrorResponse(err)
	msg := resp.Message
	if msg == "" {
		msg = resp.Code
	}
	if msg == "" {
		msg = err.Error()
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		msg = fmt.Sprintf("%s (status %d)", msg, resp.StatusCode)
	}
	return msg
}

// objectKey builds the stored object name. Unique names are a fresh UUID
// plus the media extension; otherwise the sanitised display name is used.
// Extensions other than known image and video ones are dropped.
func objectKey(fileName string, opts Options) string {
	var name string
	if opts.UseUniqueFileName {
		name = uuid.NewString() + media.Extension(fileName)
	} else {
		name = sanitizeName(fileName)
		if e := path.Ext(name); e != "" && media.Extension(name) == "" {
			name = strings.TrimSuffix(name, e)
		}
	}
	if folder := strings.Trim(opts.Folder, "/"); folder != "" {
		name = folder + "/" + name
	}
	return name
}

func sanitizeName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "file"
	}
	return name
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
