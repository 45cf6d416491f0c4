package service

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/goliatone/go-customer-ledger/model"
	"github.com/goliatone/go-customer-ledger/search"
)

// CustomerView is the API representation of a customer.
type CustomerView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	LoyaltyScore int        `json:"loyalty_score"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// TransactionView is the API representation of a transaction. Amount is a
// string with exactly two decimals.
type TransactionView struct {
	ID           string        `json:"id"`
	Customer     string        `json:"customer"`
	Amount       string        `json:"amount"`
	Description  *string       `json:"description"`
	CustomerInfo *CustomerView `json:"customer_info"`
	Date         time.Time     `json:"date"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
}

// CustomerHit is a customer search result. Timestamps are unix seconds as
// stored in the index.
type CustomerHit struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	LoyaltyScore int    `json:"loyalty_score"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// TransactionHit is a transaction search result.
type TransactionHit struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Amount      float64                `json:"amount"`
	Date        int64                  `json:"date"`
	Customer    search.CustomerSummary `json:"customer"`
}

// ListView wraps list responses.
type ListView[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// NewCustomerView renders c. The deletion timestamp is only included when
// withDeleted is set, which is the case on the all-records path.
func NewCustomerView(c *model.Customer, withDeleted bool) CustomerView {
	v := CustomerView{
		ID:           c.ID.String(),
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		LoyaltyScore: c.LoyaltyScore,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if withDeleted && c.IsDeleted() {
		deletedAt := c.DeletedAt
		v.DeletedAt = &deletedAt
	}
	return v
}

// NewTransactionView renders t with its owner embedded when it is attached.
func NewTransactionView(t *model.Transaction, withDeleted bool) TransactionView {
	v := TransactionView{
		ID:       t.ID.String(),
		Customer: t.CustomerID.String(),
		Amount:   t.AmountString(),
		Date:     t.Date,
	}
	if t.Description != "" {
		description := t.Description
		v.Description = &description
	}
	if t.Customer != nil {
		info := NewCustomerView(t.Customer, withDeleted)
		v.CustomerInfo = &info
	}
	if withDeleted && t.IsDeleted() {
		deletedAt := t.DeletedAt
		v.DeletedAt = &deletedAt
	}
	return v
}

func customerList(customers []*model.Customer, withDeleted bool) ListView[CustomerView] {
	out := ListView[CustomerView]{Count: len(customers), Results: make([]CustomerView, 0, len(customers))}
	for _, c := range customers {
		out.Results = append(out.Results, NewCustomerView(c, withDeleted))
	}
	return out
}

func transactionList(txns []*model.Transaction, withDeleted bool) ListView[TransactionView] {
	out := ListView[TransactionView]{Count: len(txns), Results: make([]TransactionView, 0, len(txns))}
	for _, t := range txns {
		out.Results = append(out.Results, NewTransactionView(t, withDeleted))
	}
	return out
}

func marshal(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, internalError(err, "failed to encode response")
	}
	return payload, nil
}

func customerHits(docs []search.CustomerDocument) ListView[CustomerHit] {
	out := ListView[CustomerHit]{Count: len(docs), Results: make([]CustomerHit, 0, len(docs))}
	for _, d := range docs {
		out.Results = append(out.Results, CustomerHit{
			ID:           d.ID,
			Name:         d.Name,
			Email:        d.Email,
			Phone:        d.Phone,
			LoyaltyScore: d.LoyaltyScore,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	return out
}

func transactionHits(docs []search.TransactionDocument) ListView[TransactionHit] {
	out := ListView[TransactionHit]{Count: len(docs), Results: make([]TransactionHit, 0, len(docs))}
	for _, d := range docs {
		out.Results = append(out.Results, TransactionHit{
			ID:          d.ID,
			Description: d.Description,
			Amount:      d.Amount,
			Date:        d.Date,
			Customer:    d.Customer,
		})
	}
	return out
}
