package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryOmitsEmptyFields(t *testing.T) {
	c := Default()
	c.Keyword = "abc"

	q := c.Query()

	assert.Equal(t, "abc", q.Get("keyword"))
	assert.NotContains(t, q, "author")
	assert.NotContains(t, q, "date_from")
	assert.NotContains(t, q, "date_to")
	assert.NotContains(t, q, "group_id")
	assert.Equal(t, "created_at", q.Get("sort_by"))
	assert.Equal(t, "desc", q.Get("order"))
}

func TestQueryKeepsReversedDates(t *testing.T) {
	c := Default()
	c.DateFrom = "2024-05-10"
	c.DateTo = "2024-05-01"

	q := c.Query()
	assert.Equal(t, "2024-05-10", q.Get("date_from"))
	assert.Equal(t, "2024-05-01", q.Get("date_to"))
}

func TestPageQuery(t *testing.T) {
	c := Criteria{Author: "Ann", GroupID: "42", SortBy: SortReactions, Order: Asc}

	q := c.PageQuery(3, 20)
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "20", q.Get("per_page"))
	assert.Equal(t, "Ann", q.Get("author"))
	assert.Equal(t, "42", q.Get("group_id"))
	assert.Equal(t, "reactions", q.Get("sort_by"))
	assert.Equal(t, "asc", q.Get("order"))
}

func TestParse(t *testing.T) {
	f, err := ParseSortField("shares")
	require.NoError(t, err)
	assert.Equal(t, SortShares, f)

	_, err = ParseSortField("likes")
	assert.Error(t, err)

	o, err := ParseOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, Asc, o)

	_, err = ParseOrder("up")
	assert.Error(t, err)
}

func TestCycling(t *testing.T) {
	assert.Equal(t, SortReactions, SortCreatedAt.Next())
	assert.Equal(t, SortCreatedAt, SortShares.Next())
	assert.Equal(t, Asc, Desc.Toggle())
	assert.Equal(t, Desc, Asc.Toggle())
}

func TestIsZero(t *testing.T) {
	assert.True(t, Default().IsZero())
	c := Default()
	c.DateTo = "2024-01-01"
	assert.False(t, c.IsZero())
}
