package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Error codes for download failures.
const (
	CodeAuthInvalid         = "AUTH_INVALID"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeBucketNotFound      = "BUCKET_NOT_FOUND"
	CodeObjectNotFound      = "OBJECT_NOT_FOUND"
	CodeEndpointUnreachable = "ENDPOINT_UNREACHABLE"
	CodeTimeout             = "TIMEOUT"
	CodeDownloadFailed      = "DOWNLOAD_FAILED"
)

// Error is a classified download failure. Credential problems match
// perfdigest.ErrCredentials, everything else perfdigest.ErrTransport.
type Error struct {
	Code   string
	Object string
	Err    error
}

func (e *Error) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Code, e.Object, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Err, e.sentinel()}
}

func (e *Error) sentinel() error {
	if e.Code == CodeAuthInvalid {
		return perfdigest.ErrCredentials
	}
	return perfdigest.ErrTransport
}

func wrapError(code, object string, err error) *Error {
	return &Error{Code: code, Object: object, Err: err}
}

func classifyMinioError(object string, err error) *Error {
	if err == nil {
		return nil
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket":
			return wrapError(CodeBucketNotFound, object, err)
		case "NoSuchKey":
			return wrapError(CodeObjectNotFound, object, err)
		case "AccessDenied":
			return wrapError(CodePermissionDenied, object, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return wrapError(CodeAuthInvalid, object, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(CodeTimeout, object, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such bucket"):
		return wrapError(CodeBucketNotFound, object, err)
	case strings.Contains(msg, "no such key"), strings.Contains(msg, "does not exist"):
		return wrapError(CodeObjectNotFound, object, err)
	case strings.Contains(msg, "access denied"):
		return wrapError(CodePermissionDenied, object, err)
	case strings.Contains(msg, "invalid access key"), strings.Contains(msg, "signature"):
		return wrapError(CodeAuthInvalid, object, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return wrapError(CodeTimeout, object, err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "unreachable"), strings.Contains(msg, "no such host"):
		return wrapError(CodeEndpointUnreachable, object, err)
	}
	return wrapError(CodeDownloadFailed, object, err)
}
