package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Customer is the owner of transactions. LoyaltyScore is derived and only
// ever changed by the loyalty aggregation hook.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	Phone        string    `bun:"phone,notnull"`
	LoyaltyScore int       `bun:"loyalty_score,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
	DeletedAt    time.Time `bun:"deleted_at,soft_delete,nullzero"`

	Transactions []*Transaction `bun:"rel:has-many,join:id=customer_id"`
}

// IsDeleted reports whether the customer is soft-deleted.
func (c *Customer) IsDeleted() bool {
	return !c.DeletedAt.IsZero()
}
