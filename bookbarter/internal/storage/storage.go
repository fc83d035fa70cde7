package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint       string `yaml:"endpoint" envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `yaml:"publicEndpoint" envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `yaml:"accessKey" envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `yaml:"secretKey" envconfig:"MINIO_SECRET_KEY" default:"minioadmin" json:"-"`
	Bucket         string `yaml:"bucket" envconfig:"MINIO_BUCKET" default:"bookbarter-covers"`
	UseSSL         bool   `yaml:"useSSL" envconfig:"MINIO_USE_SSL"`
	Enable         bool   `yaml:"enable" envconfig:"MINIO_ENABLE"`
}

type CoverStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewCoverStorage connects to MinIO and makes sure the bucket exists and is publicly readable.
func NewCoverStorage(ctx context.Context, cfg Config, log *zap.Logger) (*CoverStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio.New")
	}
	log = log.Named("storage")

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "BucketExists")
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "MakeBucket")
		}
		log.Info("created bucket", zap.String("bucket", cfg.Bucket))
	}

	policy, _ := json.Marshal(map[string]interface{}{ //nolint:errcheck
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{"arn:aws:s3:::" + cfg.Bucket + "/*"},
			},
		},
	})
	if err = client.SetBucketPolicy(ctx, cfg.Bucket, string(policy)); err != nil {
		log.Warn("set bucket policy", zap.Error(err))
	}

	return &CoverStorage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		log:     log,
	}, nil
}

func publicBaseURL(cfg Config) string {
	endpoint := cfg.PublicEndpoint
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: endpoint, Path: "/" + cfg.Bucket}
	return u.String()
}

// PutCover uploads the object and returns its public URL.
func (s *CoverStorage) PutCover(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, "PutObject")
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}
