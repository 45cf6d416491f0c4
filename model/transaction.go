package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// AmountScale is the number of fractional digits stored for amounts.
const AmountScale = 2

// Transaction belongs to a Customer and is removed with it on hard delete.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          uuid.UUID       `bun:"id,pk,type:uuid"`
	CustomerID  uuid.UUID       `bun:"customer_id,type:uuid,notnull"`
	Amount      decimal.Decimal `bun:"amount,type:decimal(10,2),notnull"`
	Description string          `bun:"description,nullzero"`
	Date        time.Time       `bun:"date,notnull"`
	DeletedAt   time.Time       `bun:"deleted_at,soft_delete,nullzero"`

	Customer *Customer `bun:"rel:belongs-to,join:customer_id=id"`
}

// IsDeleted reports whether the transaction is soft-deleted.
func (t *Transaction) IsDeleted() bool {
	return !t.DeletedAt.IsZero()
}

// AmountString formats the amount with exactly AmountScale decimals.
func (t *Transaction) AmountString() string {
	return t.Amount.StringFixed(AmountScale)
}
