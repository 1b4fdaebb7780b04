// Package filter holds the post filter criteria and turns them into query
// parameters for the posts and export endpoints.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
)

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortReactions SortField = "reactions"
	SortComments  SortField = "comments"
	SortShares    SortField = "shares"
)

// SortFields перечисляет допустимые поля сортировки в порядке показа
var SortFields = []SortField{SortCreatedAt, SortReactions, SortComments, SortShares}

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Criteria is an immutable-per-version value object. Callers replace it
// wholesale: copy the current value and override the fields they change.
type Criteria struct {
	Author   string
	Keyword  string
	GroupID  string
	DateFrom string // ISO date, inclusive
	DateTo   string // ISO date, inclusive
	SortBy   SortField
	Order    Order
}

// Default - критерии без ограничений, новые посты сверху
func Default() Criteria {
	return Criteria{SortBy: SortCreatedAt, Order: Desc}
}

// Query maps the criteria to the non-empty query parameters. Empty strings are
// omitted so the backend's "no filter" default applies. DateFrom > DateTo is
// passed through as is.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("author", c.Author)
	set("keyword", c.Keyword)
	set("group_id", c.GroupID)
	set("date_from", c.DateFrom)
	set("date_to", c.DateTo)
	set("sort_by", string(c.SortBy))
	set("order", string(c.Order))
	return q
}

// PageQuery is Query plus the pagination parameters.
func (c Criteria) PageQuery(page, perPage int) url.Values {
	q := c.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}

// IsZero reports whether no constraint is set (sorting aside).
func (c Criteria) IsZero() bool {
	return c.Author == "" && c.Keyword == "" && c.GroupID == "" && c.DateFrom == "" && c.DateTo == ""
}

func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case Asc, Desc:
		return Order(s), nil
	}
	return "", fmt.Errorf("unknown order %q", s)
}

// Next returns the sort field after f, wrapping around.
func (f SortField) Next() SortField {
	for i, sf := range SortFields {
		if sf == f {
			return SortFields[(i+1)%len(SortFields)]
		}
	}
	return SortCreatedAt
}

// Toggle flips the order.
func (o Order) Toggle() Order {
	if o == Asc {
		return Desc
	}
	return Asc
}

func (f SortField) Label() string {
	switch f {
	case SortCreatedAt:
		return "Date"
	case SortReactions:
		return "Reactions"
	case SortComments:
		return "Comments"
	case SortShares:
		return "Shares"
	}
	return string(f)
}

func (o Order) Label() string {
	if o == Asc {
		return "Ascending"
	}
	return "Descending"
}

// Equal reports whether both criteria select the same posts in the same order.
func (c Criteria) Equal(o Criteria) bool { return c == o }
