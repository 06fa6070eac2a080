// Package query translates HTTP query strings into typed store filters.
//
// Incoming list requests carry reserved control keys (select, sort, page,
// limit), optional startDate/endDate range keys, and entity filters of the
// form `field=value` or `field[op]=value` with op one of gt, gte, lt, lte,
// in. Every field name is validated against a per-entity allow-list; nothing
// from the raw query string is ever spliced into SQL.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultPage is used when no page parameter is supplied.
	DefaultPage = 1
	// DefaultLimit is used when no limit parameter is supplied.
	DefaultLimit = 25
	// MaxLimit caps the page size a client can request.
	MaxLimit = 100
)

var (
	ErrUnknownField    = errors.New("unknown filter field")
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrBadDate         = errors.New("malformed date")
	ErrBadPageParam    = errors.New("malformed pagination parameter")
)

// reserved control keys never become filters.
var reservedKeys = map[string]struct{}{
	"select": {},
	"sort":   {},
	"page":   {},
	"limit":  {},
}

// Operator is a comparison recognized in `field[op]` key position.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

var sqlOperators = map[Operator]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Condition is a single typed comparison against an allow-listed column.
type Condition struct {
	Column string
	Op     Operator
	Value  interface{}   // scalar comparisons
	Values []interface{} // OpIn
}

// SortField orders results by an allow-listed column.
type SortField struct {
	Column string
	Desc   bool
}

// Allowed is the per-entity allow-list mapping external query keys to store
// columns. DateColumn receives the merged startDate/endDate range.
type Allowed struct {
	Fields     map[string]string
	DateColumn string
}

// Options is the parsed, validated form of a list request's query string.
type Options struct {
	Conditions []Condition
	DateFrom   *time.Time
	DateTo     *time.Time
	Sort       []SortField
	Select     []string
	Page       int
	Limit      int
}

// Parse validates raw query values against the allow-list and produces
// Options. Reserved control keys are consumed, never emitted as filters.
func Parse(values url.Values, allowed Allowed) (*Options, error) {
	opts := &Options{Page: DefaultPage, Limit: DefaultLimit}

	var err error
	if opts.Page, err = intParam(values, "page", DefaultPage); err != nil {
		return nil, err
	}
	if opts.Limit, err = intParam(values, "limit", DefaultLimit); err != nil {
		return nil, err
	}
	if opts.Page < 1 {
		opts.Page = DefaultPage
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}

	if err := parseSort(values.Get("sort"), allowed, opts); err != nil {
		return nil, err
	}
	if err := parseSelect(values.Get("select"), allowed, opts); err != nil {
		return nil, err
	}
	if err := parseDateRange(values, allowed, opts); err != nil {
		return nil, err
	}

	for key, vals := range values {
		if _, ok := reservedKeys[key]; ok {
			continue
		}
		if key == "startDate" || key == "endDate" {
			continue
		}
		if len(vals) == 0 || vals[0] == "" {
			continue
		}

		field, op, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		column, ok := allowed.Fields[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}

		if op == OpIn {
			parts := strings.Split(vals[0], ",")
			in := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				in = append(in, coerce(strings.TrimSpace(p)))
			}
			opts.Conditions = append(opts.Conditions, Condition{Column: column, Op: OpIn, Values: in})
			continue
		}

		opts.Conditions = append(opts.Conditions, Condition{Column: column, Op: op, Value: coerce(vals[0])})
	}

	return opts, nil
}

// splitKey recognizes the `field[op]` form; a bare key is an equality filter.
func splitKey(key string) (string, Operator, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownOperator, key)
	}
	field := key[:open]
	op := Operator(key[open+1 : len(key)-1])
	switch op {
	case OpGt, OpGte, OpLt, OpLte, OpIn:
		return field, op, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnknownOperator, string(op))
	}
}

// coerce converts a raw query value into the most specific scalar type so the
// store compares numbers numerically rather than lexically.
func coerce(raw string) interface{} {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return raw
}

func intParam(values url.Values, key string, fallback int) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%s", ErrBadPageParam, key, raw)
	}
	return n, nil
}

func parseSort(raw string, allowed Allowed, opts *Options) error {
	if raw == "" {
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		column, ok := allowed.Fields[field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		opts.Sort = append(opts.Sort, SortField{Column: column, Desc: desc})
	}
	return nil
}

func parseSelect(raw string, allowed Allowed, opts *Options) error {
	if raw == "" {
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		column, ok := allowed.Fields[part]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, part)
		}
		opts.Select = append(opts.Select, column)
	}
	return nil
}

// parseDateRange converts startDate/endDate to inclusive day boundaries in
// UTC (00:00:00.000 and 23:59:59.999) on the entity's date column.
func parseDateRange(values url.Values, allowed Allowed, opts *Options) error {
	start := values.Get("startDate")
	end := values.Get("endDate")
	if (start != "" || end != "") && allowed.DateColumn == "" {
		return fmt.Errorf("%w: startDate", ErrUnknownField)
	}
	if start != "" {
		t, err := ParseDay(start)
		if err != nil {
			return err
		}
		from := DayStart(t)
		opts.DateFrom = &from
	}
	if end != "" {
		t, err := ParseDay(end)
		if err != nil {
			return err
		}
		to := DayEnd(t)
		opts.DateTo = &to
	}
	return nil
}

// ParseDay parses a calendar-day parameter (YYYY-MM-DD or RFC3339).
func ParseDay(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrBadDate, raw)
}

// DayStart returns 00:00:00.000 UTC of t's calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd returns 23:59:59.999 UTC of t's calendar day.
func DayEnd(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999e6, time.UTC)
}

// Scope applies the filter conditions and date range. It deliberately leaves
// out sorting, projection and paging so the same scope drives both the count
// query and the window query.
func (o *Options) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range o.Conditions {
			switch c.Op {
			case OpIn:
				db = db.Where(fmt.Sprintf("%s IN ?", c.Column), c.Values)
			default:
				db = db.Where(fmt.Sprintf("%s %s ?", c.Column, sqlOperators[c.Op]), c.Value)
			}
		}
		return db
	}
}

// DateScope applies the merged startDate/endDate range, if any.
func (o *Options) DateScope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if o.DateFrom != nil {
			db = db.Where(fmt.Sprintf("%s >= ?", column), *o.DateFrom)
		}
		if o.DateTo != nil {
			db = db.Where(fmt.Sprintf("%s <= ?", column), *o.DateTo)
		}
		return db
	}
}

// ApplyWindow adds sorting, projection and the pagination window on top of
// the filter scope. defaultSort is used when the client supplied none.
func (o *Options) ApplyWindow(db *gorm.DB, defaultSort string) *gorm.DB {
	if len(o.Select) > 0 {
		db = db.Select(o.Select)
	}
	if len(o.Sort) == 0 {
		db = db.Order(defaultSort)
	}
	for _, s := range o.Sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		db = db.Order(fmt.Sprintf("%s %s", s.Column, dir))
	}
	return db.Offset(o.Offset()).Limit(o.Limit)
}

// Offset is the number of rows skipped before the requested page.
func (o *Options) Offset() int {
	return (o.Page - 1) * o.Limit
}
