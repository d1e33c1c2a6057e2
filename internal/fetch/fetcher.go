// Package fetch downloads performance result objects from an S3-compatible
// object store to local paths.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vvka-141/perfdigest/internal/config"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// objectGetter is the part of *minio.Client the fetcher uses.
type objectGetter interface {
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
}

// Fetcher copies objects under one bucket folder to the local filesystem.
type Fetcher struct {
	client objectGetter
	bucket string
	folder string
	logger perfdigest.Logger

	// credErr is returned by every Fetch when no credentials were configured.
	credErr error
}

// New builds a Fetcher for the s3 section of the configuration.
// Missing credentials do not fail construction; every Fetch then reports
// perfdigest.ErrCredentials so the run can carry on without downloads.
func New(cfg config.S3Config, logger perfdigest.Logger) (*Fetcher, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		f := newFetcher(nil, cfg.BucketName, cfg.FolderPath, logger)
		f.credErr = wrapError(CodeAuthInvalid, "", fmt.Errorf("credentials not available"))
		return f, nil
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = perfdigest.DefaultS3Endpoint
	}
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: !cfg.DisableSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, "", fmt.Errorf("create object store client: %w", err))
	}

	return newFetcher(client, cfg.BucketName, cfg.FolderPath, logger), nil
}

func newFetcher(client objectGetter, bucket, folder string, logger perfdigest.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		bucket: bucket,
		folder: folder,
		logger: logger,
	}
}

// ObjectName joins the configured folder and key the way objects are laid out
// in the bucket.
func (f *Fetcher) ObjectName(key string) string {
	if f.folder == "" {
		return key
	}
	return path.Join(f.folder, key)
}

// Fetch downloads one item. The local parent directory is created if needed.
func (f *Fetcher) Fetch(ctx context.Context, item perfdigest.TransferItem) error {
	object := f.ObjectName(item.Key)
	if f.credErr != nil {
		return f.credErr
	}

	if err := os.MkdirAll(filepath.Dir(item.LocalPath), 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", item.LocalPath, err)
	}

	f.logger.Verbose("Downloading s3://%s/%s to %s", f.bucket, object, item.LocalPath)
	if err := f.client.FGetObject(ctx, f.bucket, object, item.LocalPath, minio.GetObjectOptions{}); err != nil {
		return classifyMinioError(object, err)
	}
	f.logger.Info("Downloaded %s to %s", object, item.LocalPath)
	return nil
}
