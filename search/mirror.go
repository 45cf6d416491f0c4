// Package search keeps an eventually consistent full-text mirror of customers
// and transactions. Reads never touch the record store: the Indexer copies
// records into a Backend in the background and searches go to the Backend only.
package search

import "context"

// Mirror answers search requests.
type Mirror interface {
	// SearchCustomers returns active customers matching text, most relevant first.
	SearchCustomers(ctx context.Context, text string) ([]CustomerDocument, error)
	// SearchTransactions returns active transactions matching q in q's order.
	SearchTransactions(ctx context.Context, q TransactionQuery) ([]TransactionDocument, error)
}

// Writer upserts and removes documents.
type Writer interface {
	SaveCustomers(ctx context.Context, docs ...CustomerDocument) error
	SaveTransactions(ctx context.Context, docs ...TransactionDocument) error
	// DeleteCustomer removes the customer document and the documents of its transactions.
	DeleteCustomer(ctx context.Context, id string) error
	DeleteTransaction(ctx context.Context, id string) error
}

// Backend is a search index that can be both queried and written.
type Backend interface {
	Mirror
	Writer
}
