package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/perfdigest/internal/config"
	"github.com/vvka-141/perfdigest/internal/logging"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

type fakeGetter struct {
	calls []string
	err   error
}

func (g *fakeGetter) FGetObject(_ context.Context, bucket, object, filePath string, _ minio.GetObjectOptions) error {
	g.calls = append(g.calls, bucket+"/"+object)
	if g.err != nil {
		return g.err
	}
	return os.WriteFile(filePath, []byte("h1|h2\n1|2\n"), 0o644)
}

func TestFetch_DownloadsFolderKeyAndCreatesParent(t *testing.T) {
	getter := &fakeGetter{}
	f := newFetcher(getter, "perf-bucket", "tabjolt/daily", logging.NewNullLogger())

	local := filepath.Join(t.TempDir(), "nested", "dir", "summary.csv")
	err := f.Fetch(context.Background(), perfdigest.TransferItem{Key: "summary.csv", LocalPath: local})
	require.NoError(t, err)

	assert.Equal(t, []string{"perf-bucket/tabjolt/daily/summary.csv"}, getter.calls)
	assert.FileExists(t, local)
}

func TestFetch_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		sentinel error
	}{
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}, CodeObjectNotFound, perfdigest.ErrTransport},
		{"bad key id", minio.ErrorResponse{Code: "InvalidAccessKeyId"}, CodeAuthInvalid, perfdigest.ErrCredentials},
		{"denied", minio.ErrorResponse{Code: "AccessDenied"}, CodePermissionDenied, perfdigest.ErrTransport},
		{"unreachable", errors.New("dial tcp: connection refused"), CodeEndpointUnreachable, perfdigest.ErrTransport},
		{"deadline", context.DeadlineExceeded, CodeTimeout, perfdigest.ErrTransport},
		{"other", errors.New("boom"), CodeDownloadFailed, perfdigest.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFetcher(&fakeGetter{err: tt.err}, "b", "f", logging.NewNullLogger())
			err := f.Fetch(context.Background(), perfdigest.TransferItem{Key: "k.csv", LocalPath: filepath.Join(t.TempDir(), "k.csv")})
			require.Error(t, err)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.code, fetchErr.Code)
			assert.Equal(t, "f/k.csv", fetchErr.Object)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestNew_MissingCredentialsFailEveryFetch(t *testing.T) {
	f, err := New(config.S3Config{BucketName: "b", FolderPath: "f", Region: "us-east-1"}, logging.NewNullLogger())
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "a.csv")
	err = f.Fetch(context.Background(), perfdigest.TransferItem{Key: "a.csv", LocalPath: local})
	require.Error(t, err)
	assert.ErrorIs(t, err, perfdigest.ErrCredentials)
	assert.NoFileExists(t, local)
}

func TestNew_BuildsClient(t *testing.T) {
	f, err := New(config.S3Config{
		BucketName:      "b",
		FolderPath:      "f",
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Endpoint:        "https://minio.local:9000",
	}, logging.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, "f/a.csv", f.ObjectName("a.csv"))
}

func TestObjectName_EmptyFolder(t *testing.T) {
	f := newFetcher(&fakeGetter{}, "b", "", logging.NewNullLogger())
	assert.Equal(t, "a.csv", f.ObjectName("a.csv"))
}
