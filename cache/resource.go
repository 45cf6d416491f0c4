package cache

import (
	"reflect"

	"github.com/jinzhu/inflection"
)

// Resource names a cached resource type. Plural is used for the list key,
// Singular for detail keys.
type Resource struct {
	Singular string
	Plural   string
}

// NewResource derives the resource names from a Go identifier, e.g.
// "Customer" becomes customer/customers.
func NewResource(name string) Resource {
	singular := toSnake(name)
	return Resource{
		Singular: singular,
		Plural:   inflection.Plural(singular),
	}
}

// ResourceOf derives the resource names from the model type T.
func ResourceOf[T any]() Resource {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return NewResource(t.Name())
}

// ListKey returns the key of the full list payload, e.g. "customers_list".
func (r Resource) ListKey(s KeySerializer) string {
	return s.SerializeKey(r.Plural, "list")
}

// DetailKey returns the key of a single record payload, e.g. "customer_<id>".
func (r Resource) DetailKey(s KeySerializer, id any) string {
	return s.SerializeKey(r.Singular, id)
}
