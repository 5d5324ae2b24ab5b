package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config — параметры подключения к S3-совместимому хранилищу.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Uploader загружает объекты в S3-совместимое хранилище (MinIO,
// AWS S3, DigitalOcean Spaces).
type S3Uploader struct {
	client *s3.Client
	bucket string
	// endpoint без завершающего слэша, используется при построении location.
	endpoint string
	logger   *slog.Logger
}

// NewS3Uploader создаёт клиент хранилища.
func NewS3Uploader(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // токен не нужен
		)))
	if err != nil {
		return nil, fmt.Errorf("конфигурация S3 клиента: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		logger:   logger.With(slog.String("component", "s3")),
	}, nil
}

// Upload реализует Uploader. Возвращаемый location — адрес объекта
// в path-style виде: <endpoint>/<bucket>/<key>.
func (u *S3Uploader) Upload(ctx context.Context, key string, contentType string, body io.Reader, size int64) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("загрузка объекта %s: %w", key, err)
	}

	location := fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	u.logger.Debug("Объект загружен", slog.String("key", key),
		slog.Int64("size", size))
	return location, nil
}
