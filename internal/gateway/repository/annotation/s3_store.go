package annotation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"codenote/internal/annotate"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store writes one JSON object per record under annotations/.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if !exists {
			s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
		}
	})
	return s.initErr
}

func (s *S3Store) Put(ctx context.Context, rec annotate.Record) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeID(rec.ID)
	if err != nil {
		return err
	}
	rec.ID = id
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode annotation: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(id), bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (s *S3Store) Get(ctx context.Context, id string) (annotate.Record, error) {
	if s == nil || s.client == nil {
		return annotate.Record{}, fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return annotate.Record{}, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return annotate.Record{}, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return annotate.Record{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NoSuchBucket" {
			return annotate.Record{}, ErrNotFound
		}
		return annotate.Record{}, err
	}
	var rec annotate.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return annotate.Record{}, fmt.Errorf("decode annotation %s: %w", id, err)
	}
	return rec, nil
}

func objectKey(id string) string {
	return "annotations/" + id + ".json"
}
