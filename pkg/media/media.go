package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/d60-Lab/socialgraph/config"
)

// ErrDisabled is returned when no object store endpoint is configured.
var ErrDisabled = errors.New("media storage not configured")

// UploadDescriptor is a short-lived signed upload target.
type UploadDescriptor struct {
	Key     string    `json:"key"`
	URL     string    `json:"url"`
	Expires time.Time `json:"expires"`
}

// Store is the media collaborator: raw bytes in, public URL out.
type Store interface {
	Upload(ctx context.Context, uid, filename, contentType string, data []byte) (string, error)
	PresignUpload(ctx context.Context, uid, filename string) (*UploadDescriptor, error)
}

type minioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	expiry  time.Duration
}

// New connects to the S3-compatible endpoint. An empty endpoint yields a
// store whose operations fail with ErrDisabled.
func New(cfg config.MediaConfig) (Store, error) {
	if cfg.Endpoint == "" {
		return disabledStore{}, nil
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}
	expiry := cfg.UploadExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &minioStore{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(base, "/"), expiry: expiry}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, s Store) error {
	ms, ok := s.(*minioStore)
	if !ok {
		return nil
	}
	exists, err := ms.client.BucketExists(ctx, ms.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return ms.client.MakeBucket(ctx, ms.bucket, minio.MakeBucketOptions{})
}

func (s *minioStore) Upload(ctx context.Context, uid, filename, contentType string, data []byte) (string, error) {
	key := ObjectKey(uid, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *minioStore) PresignUpload(ctx context.Context, uid, filename string) (*UploadDescriptor, error) {
	key := ObjectKey(uid, filename)
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return &UploadDescriptor{Key: key, URL: u.String(), Expires: time.Now().Add(s.expiry).UTC()}, nil
}

type disabledStore struct{}

func (disabledStore) Upload(context.Context, string, string, string, []byte) (string, error) {
	return "", ErrDisabled
}

func (disabledStore) PresignUpload(context.Context, string, string) (*UploadDescriptor, error) {
	return nil, ErrDisabled
}

// ObjectKey namespaces uploads per user and makes names unique.
func ObjectKey(uid, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	return uid + "/" + uuid.NewString() + ext
}
