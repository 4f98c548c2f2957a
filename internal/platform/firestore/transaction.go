package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

const (
	txMaxAttempts = 5
	txBudget      = 15 * time.Second
)

// TxFunc runs inside a Firestore transaction. It may be invoked more than once.
type TxFunc func(ctx context.Context, tx *firestore.Transaction) error

// RunTransaction executes fn on client, bounding all attempts by txBudget unless ctx already
// carries a tighter deadline.
func RunTransaction(ctx context.Context, client *firestore.Client, fn TxFunc) error {
	switch {
	case client == nil:
		return WrapError("transaction", errors.New("firestore client is nil"))
	case fn == nil:
		return WrapError("transaction", errors.New("transaction function is nil"))
	}

	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > txBudget {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txBudget)
		defer cancel()
	}
	return WrapError("transaction", client.RunTransaction(ctx, fn, firestore.MaxAttempts(txMaxAttempts)))
}
