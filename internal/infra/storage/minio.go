package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PresignTTL > 0 makes Upload return presigned GET URLs instead of plain object URLs.
	PresignTTL time.Duration
}

// Store keeps photo assets under photos/ and report artifacts under reports/ in one bucket.
type Store struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
	now        func() time.Time
}

// New connects to MinIO/S3 and creates the bucket when missing.
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", opts.Bucket, err)
		}
	}
	return &Store{client: cli, bucket: opts.Bucket, presignTTL: opts.PresignTTL, now: time.Now}, nil
}

// Ping buat health check
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// Put stores an object; the returned ref is its key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// Delete keeps going past individual failures and reports them joined.
func (s *Store) Delete(ctx context.Context, refs []string) error {
	var errs []error
	for _, ref := range refs {
		if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", ref, err))
		}
	}
	return errors.Join(errs...)
}

// PurgeOlderThan hapus photo asset yang lebih tua dari age.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deleted := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: PhotoPrefix, Recursive: true}) {
		if obj.Err != nil {
			return deleted, obj.Err
		}
		if age > 0 && obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return deleted, fmt.Errorf("remove %s: %w", obj.Key, err)
		}
		deleted++
	}
	return deleted, nil
}

// Upload stores a report artifact and returns a URL for it.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if _, err := s.Put(ctx, key, data, contentType); err != nil {
		return "", err
	}
	if s.presignTTL > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
		return u.String(), nil
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, key), nil
}
