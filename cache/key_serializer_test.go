package cache

import (
	"testing"

	"github.com/google/uuid"
)

func TestDefaultKeySerializer_SerializeKey(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	id := uuid.MustParse("6f1c2a52-3b0e-4f0e-9d55-0f8e3b1c9a10")

	var nilPtr *string
	name := "milad"

	tests := []struct {
		name     string
		prefix   string
		args     []any
		expected string
	}{
		{"prefix only", "customers", nil, "customers"},
		{"list key", "customers", []any{"list"}, "customers_list"},
		{"uuid detail", "customer", []any{id}, "customer_" + id.String()},
		{"integers", "page", []any{1, int64(2)}, "page_1_2"},
		{"bool", "flag", []any{true}, "flag_true"},
		{"nil", "customer", []any{nil}, "customer_nil"},
		{"nil pointer", "customer", []any{nilPtr}, "customer_nil"},
		{"pointer", "customer", []any{&name}, "customer_milad"},
		{"slice", "ids", []any{[]string{"a", "b"}}, "ids_a,b"},
		{"nil slice", "ids", []any{[]string(nil)}, "ids_nil"},
		{"map falls back to json", "filter", []any{map[string]int{"b": 2, "a": 1}}, `filter_{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.prefix, tt.args...)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDefaultKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	id := uuid.New()

	first := serializer.SerializeKey("customer", id)
	for i := 0; i < 10; i++ {
		if got := serializer.SerializeKey("customer", id); got != first {
			t.Fatalf("key changed between calls: %q vs %q", first, got)
		}
	}
}

func TestDefaultKeySerializer_StructFallback(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type window struct {
		From int `json:"from"`
		To   int `json:"to"`
	}

	got := serializer.SerializeKey("range", window{From: 1, To: 5})
	if got != `range_{"from":1,"to":5}` {
		t.Errorf("unexpected key %q", got)
	}

	fn := func() {}
	got = serializer.SerializeKey("fn", fn)
	if got != "fn_fallback:func()" {
		t.Errorf("unexpected key %q", got)
	}
}
