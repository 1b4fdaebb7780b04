package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
)

// pagedSource отдает total постов страницами
type pagedSource struct {
	total int
	calls []int
	fail  map[int]error
}

func (s *pagedSource) Posts(_ context.Context, _ filter.Criteria, page, perPage int) (*models.PostPage, error) {
	s.calls = append(s.calls, page)
	if err := s.fail[page]; err != nil {
		return nil, err
	}
	pages := (s.total + perPage - 1) / perPage
	var posts []models.Post
	for i := (page - 1) * perPage; i < page*perPage && i < s.total; i++ {
		posts = append(posts, models.Post{PostID: fmt.Sprintf("p%03d", i)})
	}
	return &models.PostPage{
		Posts:      posts,
		Pagination: models.Pagination{Page: page, PerPage: perPage, Total: s.total, Pages: pages},
	}, nil
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.PostID
	}
	return out
}

func TestFilterChangeResetsBeforeFetchResolves(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{total: 25}
	c := NewController(10)

	c.Apply(Fetch(ctx, src, c.ResetAndFetch(filter.Default())))
	req, ok := c.LoadMore()
	require.True(t, ok)
	c.Apply(Fetch(ctx, src, req))
	require.Len(t, c.Posts(), 20)
	require.Equal(t, 2, c.Pagination().Page)

	next := filter.Default()
	next.Keyword = "abc"
	req = c.SetFilters(next)

	// запрос еще не выполнен
	assert.Equal(t, 1, c.Pagination().Page, "Страница должна сброситься до 1")
	assert.Empty(t, c.Posts(), "Список должен очиститься до ответа")
	assert.True(t, c.Loading())
	assert.Equal(t, Reset, req.Kind)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, "abc", req.Criteria.Keyword)
	assert.Equal(t, next, c.Criteria())
}

func TestLoadMoreAccumulatesInOrder(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{total: 47}
	c := NewController(10)

	c.Apply(Fetch(ctx, src, c.ResetAndFetch(filter.Default())))
	sum := len(c.Posts())
	for {
		req, ok := c.LoadMore()
		if !ok {
			break
		}
		resp := Fetch(ctx, src, req)
		sum += len(resp.Page.Posts)
		assert.True(t, c.Apply(resp))
	}

	got := ids(c.Posts())
	assert.Len(t, got, sum)
	assert.Len(t, got, 47)
	for i, id := range got {
		assert.Equal(t, fmt.Sprintf("p%03d", i), id, "Порядок должен сохраняться между страницами")
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, src.calls)
	assert.False(t, c.HasMore())
}

func TestLoadMoreIsNoop(t *testing.T) {
	ctx := context.Background()

	t.Run("While in flight", func(t *testing.T) {
		src := &pagedSource{total: 30}
		c := NewController(10)
		c.Apply(Fetch(ctx, src, c.ResetAndFetch(filter.Default())))

		_, ok := c.LoadMore()
		require.True(t, ok)
		_, ok = c.LoadMore()
		assert.False(t, ok, "Второй запрос при активной загрузке не должен создаваться")
	})

	t.Run("Before first page resolves", func(t *testing.T) {
		c := NewController(10)
		c.ResetAndFetch(filter.Default())
		_, ok := c.LoadMore()
		assert.False(t, ok)
	})

	t.Run("On last page", func(t *testing.T) {
		src := &pagedSource{total: 5}
		c := NewController(10)
		c.Apply(Fetch(ctx, src, c.ResetAndFetch(filter.Default())))

		_, ok := c.LoadMore()
		assert.False(t, ok)
		assert.Equal(t, []int{1}, src.calls)
	})

	t.Run("Empty result", func(t *testing.T) {
		src := &pagedSource{total: 0}
		c := NewController(10)
		c.Apply(Fetch(ctx, src, c.ResetAndFetch(filter.Default())))

		assert.Empty(t, c.Posts())
		_, ok := c.LoadMore()
		assert.False(t, ok)
	})
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{total: 30}
	c := NewController(10)

	first := c.ResetAndFetch(filter.Default())
	second := filter.Default()
	second.Author = "bob"
	latest := c.SetFilters(second)
	require.Greater(t, latest.Epoch, first.Epoch)

	// ответ второй эпохи приходит первым
	require.True(t, c.Apply(Fetch(ctx, src, latest)))
	before := ids(c.Posts())

	stale := &models.PostPage{
		Posts:      []models.Post{{PostID: "old"}},
		Pagination: models.Pagination{Page: 1, PerPage: 10, Total: 1, Pages: 1},
	}
	assert.False(t, c.Apply(Response{Request: first, Page: stale}))
	assert.Equal(t, before, ids(c.Posts()), "Устаревший ответ не должен перезаписать состояние")
	assert.Equal(t, 3, c.Pagination().Pages)

	t.Run("Stale append after reset", func(t *testing.T) {
		req, ok := c.LoadMore()
		require.True(t, ok)
		c.Refresh()

		assert.False(t, c.Apply(Fetch(ctx, src, req)))
		assert.True(t, c.Loading(), "Загрузка новой эпохи еще идет")
		assert.Empty(t, c.Posts())
	})
}

func TestFailedFetchKeepsState(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{total: 30, fail: map[int]error{2: errors.New("boom")}}
	c := NewController(10)

	c.Apply(Fetch(ctx, src, c.ResetAndFetch(filter.Default())))
	req, ok := c.LoadMore()
	require.True(t, ok)

	assert.True(t, c.Apply(Fetch(ctx, src, req)))
	assert.False(t, c.Loading(), "Флаг загрузки должен сброситься")
	assert.Len(t, c.Posts(), 10)
	assert.Equal(t, 1, c.Pagination().Page, "Страница не продвигается при ошибке")
	assert.EqualError(t, c.LastError(), "boom")

	// ручной повтор запрашивает ту же страницу
	req, ok = c.LoadMore()
	require.True(t, ok)
	assert.Equal(t, 2, req.Page)
	assert.Nil(t, c.LastError())
}

func TestPageReconciledFromResponse(t *testing.T) {
	c := NewController(10)
	req := c.ResetAndFetch(filter.Default())

	c.Apply(Response{Request: req, Page: &models.PostPage{
		Posts:      []models.Post{{PostID: "a"}},
		Pagination: models.Pagination{Total: 40, Pages: 4},
	}})
	assert.Equal(t, models.Pagination{Page: 1, PerPage: 10, Total: 40, Pages: 4}, c.Pagination())
}

func TestDuplicatePostsAcrossPages(t *testing.T) {
	c := NewController(2)
	req := c.ResetAndFetch(filter.Default())
	c.Apply(Response{Request: req, Page: &models.PostPage{
		Posts:      []models.Post{{PostID: "a"}, {PostID: "b"}},
		Pagination: models.Pagination{Page: 1, Pages: 2},
	}})

	req, ok := c.LoadMore()
	require.True(t, ok)
	// между запросами появился новый пост и страницы сдвинулись
	c.Apply(Response{Request: req, Page: &models.PostPage{
		Posts:      []models.Post{{PostID: "b"}, {PostID: "c"}},
		Pagination: models.Pagination{Page: 2, Pages: 2},
	}})
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Posts()))
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Posts(ctx context.Context, criteria filter.Criteria, page, perPage int) (*models.PostPage, error) {
	args := m.Called(ctx, criteria, page, perPage)
	p, _ := args.Get(0).(*models.PostPage)
	return p, args.Error(1)
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	crit := filter.Default()
	crit.GroupID = "7"

	t.Run("Stops at page limit", func(t *testing.T) {
		src := &pagedSource{total: 100}
		c := NewController(10)
		require.NoError(t, Collect(ctx, c, src, crit, 3))
		assert.Len(t, c.Posts(), 30)
		assert.Equal(t, []int{1, 2, 3}, src.calls)
	})

	t.Run("Stops at last page", func(t *testing.T) {
		src := &pagedSource{total: 15}
		c := NewController(10)
		require.NoError(t, Collect(ctx, c, src, crit, 10))
		assert.Len(t, c.Posts(), 15)
	})

	t.Run("Passes criteria and reports errors", func(t *testing.T) {
		src := &mockSource{}
		src.On("Posts", mock.Anything, crit, 1, 10).Return(nil, errors.New("down"))

		c := NewController(10)
		assert.EqualError(t, Collect(ctx, c, src, crit, 2), "down")
		src.AssertExpectations(t)
	})
}
