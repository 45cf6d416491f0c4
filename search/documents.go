package search

import (
	"time"

	"github.com/goliatone/go-customer-ledger/model"
)

// CustomerDocument is the denormalised representation of a customer in the
// search index. Timestamps are unix seconds, a zero DeletedAt means active.
type CustomerDocument struct {
	ObjectID     string `json:"objectID"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	LoyaltyScore int    `json:"loyalty_score"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
	DeletedAt    int64  `json:"deleted_at"`
}

// CustomerSummary is embedded in transaction documents.
type CustomerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TransactionDocument is the representation of a transaction in the search index.
type TransactionDocument struct {
	ObjectID    string          `json:"objectID"`
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Date        int64           `json:"date"`
	DeletedAt   int64           `json:"deleted_at"`
	Customer    CustomerSummary `json:"customer"`
}

// Active reports whether the document mirrors a non-deleted customer.
func (d CustomerDocument) Active() bool {
	return d.DeletedAt == 0
}

// Active reports whether the document mirrors a non-deleted transaction.
func (d TransactionDocument) Active() bool {
	return d.DeletedAt == 0
}

// NewCustomerDocument builds the index document of c.
func NewCustomerDocument(c *model.Customer) CustomerDocument {
	id := c.ID.String()
	return CustomerDocument{
		ObjectID:     id,
		ID:           id,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		LoyaltyScore: c.LoyaltyScore,
		CreatedAt:    unix(c.CreatedAt),
		UpdatedAt:    unix(c.UpdatedAt),
		DeletedAt:    unix(c.DeletedAt),
	}
}

// NewTransactionDocument builds the index document of t. The owning customer
// must be attached for the summary to be filled.
func NewTransactionDocument(t *model.Transaction) TransactionDocument {
	id := t.ID.String()
	doc := TransactionDocument{
		ObjectID:    id,
		ID:          id,
		Description: t.Description,
		Amount:      t.Amount.InexactFloat64(),
		Date:        unix(t.Date),
		DeletedAt:   unix(t.DeletedAt),
		Customer:    CustomerSummary{ID: t.CustomerID.String()},
	}
	if t.Customer != nil {
		doc.Customer.Name = t.Customer.Name
		doc.Customer.Email = t.Customer.Email
	}
	return doc
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
