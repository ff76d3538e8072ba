// Package storage uploads patient report files to object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("report storage is not configured")

// Upload describes one file handed to a ReportStore.
type Upload struct {
	OwnerID     string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ReportStore persists an uploaded report and returns the URL to reach it.
type ReportStore interface {
	Save(ctx context.Context, up Upload) (string, error)
}

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // S3-compatible endpoint such as MinIO or LocalStack
	PublicBaseURL string // overrides the URL returned to clients
}

type S3ReportStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3ReportStore(ctx context.Context, cfg S3Config) (*S3ReportStore, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, awsCfg.Region)
		}
	}

	return &S3ReportStore{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *S3ReportStore) Save(ctx context.Context, up Upload) (string, error) {
	key := ObjectKey(up.OwnerID, up.FileName, time.Now().UTC())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          up.Body,
		ContentType:   aws.String(up.ContentType),
		ContentLength: aws.Int64(up.Size),
		ACL:           types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.baseURL + "/" + escapeKey(key), nil
}

// ObjectKey places reports under reports/<owner>/<date>/<uuid>-<name>.
func ObjectKey(ownerID, fileName string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "report"
	}
	return fmt.Sprintf("reports/%s/%s/%s-%s", ownerID, at.Format("2006-01-02"), uuid.NewString(), name)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Disabled is the ReportStore used when no bucket is configured.
type Disabled struct{}

func (Disabled) Save(context.Context, Upload) (string, error) {
	return "", ErrNotConfigured
}
