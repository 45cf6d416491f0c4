package search

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyQuery is returned when a customer search has no query text.
var ErrEmptyQuery = errors.New("search: no query parameter provided")

const (
	FieldAmount = "amount"
	FieldDate   = "date"

	paramOrdering = "ordering"
	paramSearch   = "search"
	lookupSep     = "__"
	dateLayout    = "2006-01-02"
)

// QueryError reports an invalid transaction search parameter.
type QueryError struct {
	Param  string
	Value  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("search: invalid value %q for %s: %s", e.Value, e.Param, e.Reason)
}

// Bound is one side of a numeric range.
type Bound struct {
	Value     float64
	Inclusive bool
}

// Filter restricts a numeric document field. Dates are compared as unix seconds.
type Filter struct {
	Field string
	Lower *Bound
	Upper *Bound
}

// Match reports whether v satisfies the filter.
func (f Filter) Match(v float64) bool {
	if f.Lower != nil {
		if v < f.Lower.Value || (!f.Lower.Inclusive && v == f.Lower.Value) {
			return false
		}
	}
	if f.Upper != nil {
		if v > f.Upper.Value || (!f.Upper.Inclusive && v == f.Upper.Value) {
			return false
		}
	}
	return true
}

// Ordering sorts transaction results by a field.
type Ordering struct {
	Field string
	Desc  bool
}

func (o Ordering) String() string {
	if o.Desc {
		return "-" + o.Field
	}
	return o.Field
}

// DefaultOrdering is applied when no ordering parameter is given.
var DefaultOrdering = Ordering{Field: FieldDate}

// TransactionQuery is a parsed transaction search request.
type TransactionQuery struct {
	Text      string
	Filters   []Filter
	Orderings []Ordering
}

type lookup struct {
	suffix string
	build  func(lo, hi float64) Filter
}

// lookups for a single value v. For dates lo and hi are the first and last
// second of the given day when only a date was provided, both v otherwise.
var lookups = []lookup{
	{"", func(lo, hi float64) Filter {
		return Filter{Lower: &Bound{lo, true}, Upper: &Bound{hi, true}}
	}},
	{"exact", func(lo, hi float64) Filter {
		return Filter{Lower: &Bound{lo, true}, Upper: &Bound{hi, true}}
	}},
	{"gt", func(lo, hi float64) Filter { return Filter{Lower: &Bound{hi, false}} }},
	{"gte", func(lo, hi float64) Filter { return Filter{Lower: &Bound{lo, true}} }},
	{"lt", func(lo, hi float64) Filter { return Filter{Upper: &Bound{lo, false}} }},
	{"lte", func(lo, hi float64) Filter { return Filter{Upper: &Bound{hi, true}} }},
}

// ParseTransactionQuery reads filters, ordering and free text from request
// query values. Unknown parameters are ignored.
func ParseTransactionQuery(values url.Values) (TransactionQuery, error) {
	q := TransactionQuery{
		Text: strings.TrimSpace(values.Get(paramSearch)),
	}

	for _, field := range []string{FieldAmount, FieldDate} {
		for _, lk := range lookups {
			param := field
			if lk.suffix != "" {
				param = field + lookupSep + lk.suffix
			}
			raw := strings.TrimSpace(values.Get(param))
			if raw == "" {
				continue
			}
			lo, hi, err := parseValue(field, raw)
			if err != nil {
				return TransactionQuery{}, &QueryError{Param: param, Value: raw, Reason: err.Error()}
			}
			f := lk.build(lo, hi)
			f.Field = field
			q.Filters = append(q.Filters, f)
		}

		param := field + lookupSep + "range"
		if raw := strings.TrimSpace(values.Get(param)); raw != "" {
			f, err := parseRange(field, raw)
			if err != nil {
				return TransactionQuery{}, &QueryError{Param: param, Value: raw, Reason: err.Error()}
			}
			q.Filters = append(q.Filters, f)
		}
	}

	orderings, err := parseOrdering(values.Get(paramOrdering))
	if err != nil {
		return TransactionQuery{}, err
	}
	q.Orderings = orderings

	return q, nil
}

func parseRange(field, raw string) (Filter, error) {
	parts := strings.Split(raw, lookupSep)
	if len(parts) != 2 {
		return Filter{}, errors.New("expected two values separated by __")
	}

	lo, _, err := parseValue(field, strings.TrimSpace(parts[0]))
	if err != nil {
		return Filter{}, err
	}
	_, hi, err := parseValue(field, strings.TrimSpace(parts[1]))
	if err != nil {
		return Filter{}, err
	}
	if lo > hi {
		return Filter{}, errors.New("lower bound is greater than upper bound")
	}

	return Filter{Field: field, Lower: &Bound{lo, true}, Upper: &Bound{hi, true}}, nil
}

func parseValue(field, raw string) (float64, float64, error) {
	switch field {
	case FieldAmount:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, 0, errors.New("enter a number")
		}
		v := d.InexactFloat64()
		return v, v, nil
	case FieldDate:
		return parseDate(raw)
	}
	return 0, 0, fmt.Errorf("unknown field %s", field)
}

// parseDate accepts unix seconds, RFC 3339 timestamps or plain dates.
func parseDate(raw string) (float64, float64, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return float64(secs), float64(secs), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		v := float64(t.Unix())
		return v, v, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		start := t.UTC().Unix()
		return float64(start), float64(start + 24*60*60 - 1), nil
	}
	return 0, 0, errors.New("enter a valid date")
}

func parseOrdering(raw string) ([]Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []Ordering{DefaultOrdering}, nil
	}

	var out []Ordering
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		o := Ordering{Field: strings.TrimPrefix(part, "-"), Desc: strings.HasPrefix(part, "-")}
		if o.Field != FieldAmount && o.Field != FieldDate {
			return nil, &QueryError{Param: paramOrdering, Value: raw, Reason: "unsupported ordering field"}
		}
		out = append(out, o)
	}
	return out, nil
}
