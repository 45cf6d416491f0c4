package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend is an in-process search index. It is the default backend
// and the one used in tests.
type MemoryBackend struct {
	customers    *xsync.MapOf[string, CustomerDocument]
	transactions *xsync.MapOf[string, TransactionDocument]
}

// NewMemoryBackend returns an empty index.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		customers:    xsync.NewMapOf[string, CustomerDocument](),
		transactions: xsync.NewMapOf[string, TransactionDocument](),
	}
}

func (m *MemoryBackend) SaveCustomers(_ context.Context, docs ...CustomerDocument) error {
	for _, doc := range docs {
		m.customers.Store(doc.ObjectID, doc)
	}
	return nil
}

func (m *MemoryBackend) SaveTransactions(_ context.Context, docs ...TransactionDocument) error {
	for _, doc := range docs {
		m.transactions.Store(doc.ObjectID, doc)
	}
	return nil
}

func (m *MemoryBackend) DeleteCustomer(_ context.Context, id string) error {
	m.customers.Delete(id)
	m.transactions.Range(func(key string, doc TransactionDocument) bool {
		if doc.Customer.ID == id {
			m.transactions.Delete(key)
		}
		return true
	})
	return nil
}

func (m *MemoryBackend) DeleteTransaction(_ context.Context, id string) error {
	m.transactions.Delete(id)
	return nil
}

// Customer returns the stored document with the given id.
func (m *MemoryBackend) Customer(id string) (CustomerDocument, bool) {
	return m.customers.Load(id)
}

// Transaction returns the stored document with the given id.
func (m *MemoryBackend) Transaction(id string) (TransactionDocument, bool) {
	return m.transactions.Load(id)
}

type scoredCustomer struct {
	doc   CustomerDocument
	score int
}

func (m *MemoryBackend) SearchCustomers(ctx context.Context, text string) ([]CustomerDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	tokens := tokenize(text)

	var hits []scoredCustomer
	m.customers.Range(func(_ string, doc CustomerDocument) bool {
		if !doc.Active() {
			return true
		}
		score := fieldScore(doc.Name, text, tokens, 2) + fieldScore(doc.Email, text, tokens, 1)
		if score > 0 {
			hits = append(hits, scoredCustomer{doc: doc, score: score})
		}
		return true
	})

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].doc.Name != hits[j].doc.Name {
			return hits[i].doc.Name < hits[j].doc.Name
		}
		return hits[i].doc.ID < hits[j].doc.ID
	})

	out := make([]CustomerDocument, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc)
	}
	return out, nil
}

func (m *MemoryBackend) SearchTransactions(ctx context.Context, q TransactionQuery) ([]TransactionDocument, error) {
	tokens := tokenize(q.Text)

	out := make([]TransactionDocument, 0)
	m.transactions.Range(func(_ string, doc TransactionDocument) bool {
		if !doc.Active() || !matchFilters(doc, q.Filters) {
			return true
		}
		if q.Text != "" && transactionScore(doc, q.Text, tokens) == 0 {
			return true
		}
		out = append(out, doc)
		return true
	})

	orderings := q.Orderings
	if len(orderings) == 0 {
		orderings = []Ordering{DefaultOrdering}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range orderings {
			a, b := sortValue(out[i], o.Field), sortValue(out[j], o.Field)
			if a == b {
				continue
			}
			if o.Desc {
				return a > b
			}
			return a < b
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func transactionScore(doc TransactionDocument, raw string, tokens []string) int {
	score := fieldScore(doc.Description, raw, tokens, 1) +
		fieldScore(doc.Customer.Name, raw, tokens, 1) +
		fieldScore(doc.Customer.Email, raw, tokens, 1)
	score += suggestScore(strconv.FormatFloat(doc.Amount, 'f', 2, 64), raw, tokens)
	score += suggestScore(time.Unix(doc.Date, 0).UTC().Format(dateLayout), raw, tokens)
	return score
}

func matchFilters(doc TransactionDocument, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(sortValue(doc, f.Field)) {
			return false
		}
	}
	return true
}

func sortValue(doc TransactionDocument, field string) float64 {
	switch field {
	case FieldAmount:
		return doc.Amount
	case FieldDate:
		return float64(doc.Date)
	}
	return 0
}
