package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"annotator/internal/annotate"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

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
	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	if s.initErr != nil {
		return fmt.Errorf("ensure bucket %s: %w: %v", s.bucketName, annotate.ErrNetwork, s.initErr)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, draftID, name string, content []byte) error {
	draftID, name, err := normalizeKey(draftID, name)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(draftID, name), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(content),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w: %v", draftID, name, annotate.ErrNetwork, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, draftID, name string) ([]byte, error) {
	draftID, name, err := normalizeKey(draftID, name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(draftID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w: %v", draftID, name, annotate.ErrNetwork, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s/%s: %w: %v", draftID, name, annotate.ErrNetwork, err)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, draftID string) ([]string, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return nil, fmt.Errorf("%w: draft_id is required", ErrInvalidKey)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(draftID, "/") + "/"
	names := make([]string, 0, 16)
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w: %v", draftID, annotate.ErrNetwork, obj.Err)
		}
		if obj.Key == "" {
			continue
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// GetURL presigns a one-hour download link the browser can render directly.
func (s *S3Store) GetURL(ctx context.Context, draftID, name string) (string, error) {
	draftID, name, err := normalizeKey(draftID, name)
	if err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey(draftID, name), time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w: %v", draftID, name, annotate.ErrNetwork, err)
	}
	return u.String(), nil
}
