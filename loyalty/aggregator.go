// Package loyalty keeps the derived loyalty score of customers. The score
// counts every transaction ever created for a customer: it is incremented
// on creation only and never decremented.
package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-customer-ledger/model"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrCustomerMissing is returned when the increment matched no active customer.
var ErrCustomerMissing = errors.New("loyalty: customer not found for transaction")

// Aggregator increments loyalty scores from the transaction creation path.
type Aggregator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator returns an Aggregator. A nil logger is replaced by a no-op one.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// OnTransactionCreated adds one to the owner's score with a single atomic
// UPDATE on db, which is expected to be the creating database transaction.
func (a *Aggregator) OnTransactionCreated(ctx context.Context, db bun.IDB, txn *model.Transaction) error {
	res, err := db.NewUpdate().
		Model((*model.Customer)(nil)).
		Set("loyalty_score = loyalty_score + 1").
		Set("updated_at = ?", a.now()).
		Where("id = ?", txn.CustomerID).
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCustomerMissing
	}

	a.logger.Debug("loyalty score incremented",
		zap.String("customer_id", txn.CustomerID.String()),
		zap.String("transaction_id", txn.ID.String()),
	)
	return nil
}
