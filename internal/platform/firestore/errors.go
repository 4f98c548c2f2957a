package firestore

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/huertohogar/storefront/internal/repositories"
)

// WrapError maps gRPC status codes onto repositories.StoreError kinds so that services can
// treat Firestore and memory failures alike. Cancellation is returned as the context error.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var storeErr *repositories.StoreError
	if errors.As(err, &storeErr) {
		if storeErr.Op == "" {
			storeErr.Op = op
		}
		return storeErr
	}

	var kind repositories.ErrorKind
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.NotFound:
		kind = repositories.ErrorKindNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange:
		kind = repositories.ErrorKindConflict
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal:
		kind = repositories.ErrorKindUnavailable
	}
	return &repositories.StoreError{Op: op, Kind: kind, Err: err}
}
