package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryNone},
		{"credentials", fmt.Errorf("download: %w", perfdigest.ErrCredentials), CategoryCredentials},
		{"missing file", fmt.Errorf("/tmp/x.csv: %w", perfdigest.ErrFileNotFound), CategoryMissingFile},
		{"empty result", perfdigest.ErrEmptyResult, CategoryEmptyResult},
		{"connection sentinel", fmt.Errorf("dial: %w", perfdigest.ErrConnectionFailed), CategoryConnection},
		{"query sentinel", fmt.Errorf("x: %w", perfdigest.ErrQueryFailed), CategoryQuery},
		{"syntax error", &pgconn.PgError{Code: "42601"}, CategoryQuery},
		{"bad copy data", fmt.Errorf("copy: %w: %w", &pgconn.PgError{Code: "22P02"}, perfdigest.ErrQueryFailed), CategoryQuery},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, CategoryConnection},
		{"connection exception", &pgconn.PgError{Code: "08006"}, CategoryConnection},
		{"auth", &pgconn.PgError{Code: "28P01"}, CategoryCredentials},
		{"dns", &net.DNSError{Err: "no such host", Name: "smtp.example.org"}, CategoryTransport},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, CategoryTransport},
		{"transport sentinel", fmt.Errorf("smtp: %w", perfdigest.ErrTransport), CategoryTransport},
		{"config", fmt.Errorf("%w: smtp.smtp_port is required", perfdigest.ErrInvalidConfig), CategoryConfig},
		{"canceled", fmt.Errorf("load: %w", context.Canceled), CategoryCanceled},
		{"unknown", errors.New("mystery"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
