package searchinfra

import (
	"context"
	"errors"
	"testing"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	ledgersearch "github.com/goliatone/go-customer-ledger/search"
)

// fakeIndex overrides the calls the backend makes on reads and saves.
type fakeIndex struct {
	search.IndexInterface

	name    string
	saved   []interface{}
	queries []string
	hits    []map[string]interface{}
	err     error
}

func (f *fakeIndex) SaveObjects(objects interface{}, opts ...interface{}) (search.GroupBatchRes, error) {
	f.saved = append(f.saved, objects)
	return search.GroupBatchRes{}, f.err
}

func (f *fakeIndex) Search(query string, opts ...interface{}) (search.QueryRes, error) {
	f.queries = append(f.queries, query)
	return search.QueryRes{Hits: f.hits}, f.err
}

type fakeOpener struct {
	indices map[string]*fakeIndex
}

func (o *fakeOpener) open(name string) search.IndexInterface {
	if o.indices == nil {
		o.indices = make(map[string]*fakeIndex)
	}
	idx, ok := o.indices[name]
	if !ok {
		idx = &fakeIndex{name: name}
		o.indices[name] = idx
	}
	return idx
}

func testConfig() AlgoliaConfig {
	return AlgoliaConfig{
		AppID:             "app",
		APIKey:            "key",
		CustomersIndex:    "customers",
		TransactionsIndex: "transactions",
	}
}

func TestAlgoliaConfig_Validate(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
	if err := (AlgoliaConfig{}).Validate(); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestTransactionFilters(t *testing.T) {
	filters := []ledgersearch.Filter{
		{Field: "amount", Lower: &ledgersearch.Bound{Value: 10, Inclusive: false}},
		{Field: "date", Lower: &ledgersearch.Bound{Value: 100, Inclusive: true}, Upper: &ledgersearch.Bound{Value: 200, Inclusive: true}},
		{Field: "amount", Upper: &ledgersearch.Bound{Value: 19.99, Inclusive: false}},
	}

	got := TransactionFilters(filters)
	want := "deleted_at = 0 AND amount > 10 AND date >= 100 AND date <= 200 AND amount < 19.99"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReplicaName(t *testing.T) {
	tests := []struct {
		ordering ledgersearch.Ordering
		want     string
	}{
		{ledgersearch.Ordering{Field: "amount"}, "transactions_amount_asc"},
		{ledgersearch.Ordering{Field: "amount", Desc: true}, "transactions_amount_desc"},
		{ledgersearch.Ordering{Field: "date", Desc: true}, "transactions_date_desc"},
	}
	for _, tt := range tests {
		if got := ReplicaName("transactions", tt.ordering); got != tt.want {
			t.Errorf("%v: expected %q, got %q", tt.ordering, tt.want, got)
		}
	}
}

func TestSearchTransactions_UsesReplicaForOrdering(t *testing.T) {
	opener := &fakeOpener{}
	backend := NewAlgoliaBackendWithOpener(testConfig(), opener.open, nil)

	_, err := backend.SearchTransactions(context.Background(), ledgersearch.TransactionQuery{
		Orderings: []ledgersearch.Ordering{{Field: "amount", Desc: true}},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if replica := opener.indices["transactions_amount_desc"]; replica == nil || len(replica.queries) != 1 {
		t.Error("expected the amount desc replica to be queried")
	}

	_, err = backend.SearchTransactions(context.Background(), ledgersearch.TransactionQuery{
		Orderings: []ledgersearch.Ordering{ledgersearch.DefaultOrdering},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if primary := opener.indices["transactions"]; len(primary.queries) != 1 {
		t.Error("expected the default ordering to query the primary index")
	}
}

func TestSearchCustomers_DecodesHits(t *testing.T) {
	opener := &fakeOpener{}
	backend := NewAlgoliaBackendWithOpener(testConfig(), opener.open, nil)
	opener.indices["customers"].hits = []map[string]interface{}{
		{"objectID": "1", "id": "1", "name": "milad", "email": "milad@example.com", "loyalty_score": 2},
	}

	docs, err := backend.SearchCustomers(context.Background(), "milad")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "milad" || docs[0].LoyaltyScore != 2 {
		t.Errorf("unexpected documents: %+v", docs)
	}

	if _, err := backend.SearchCustomers(context.Background(), ""); !errors.Is(err, ledgersearch.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSaveCustomers_SkipsEmptyBatch(t *testing.T) {
	opener := &fakeOpener{}
	backend := NewAlgoliaBackendWithOpener(testConfig(), opener.open, nil)

	if err := backend.SaveCustomers(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(opener.indices["customers"].saved) != 0 {
		t.Error("expected no request for an empty batch")
	}

	doc := ledgersearch.CustomerDocument{ObjectID: "1", ID: "1", Name: "milad"}
	if err := backend.SaveCustomers(context.Background(), doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(opener.indices["customers"].saved) != 1 {
		t.Error("expected one batch to be saved")
	}
}
