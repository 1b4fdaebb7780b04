package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"github.com/ButyrinIA/postboard/internal/models"
)

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-12345:   "-12,345",
		10000000: "10,000,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatNumber(in), "число %d", in)
	}
}

func TestCardCounters(t *testing.T) {
	t.Run("untracked counters are hidden", func(t *testing.T) {
		p := models.Post{Reactions: models.Untracked(), Comments: models.Tracked(3), Shares: models.Untracked()}
		got := cardCounters(p)
		assert.Equal(t, "✉ 3", got)
		assert.NotContains(t, got, "♥", "неотслеживаемые реакции не показываются")
	})

	t.Run("tracked zero is shown", func(t *testing.T) {
		p := models.Post{Reactions: models.Tracked(0), Comments: models.Tracked(0), Shares: models.Tracked(1200)}
		assert.Equal(t, "♥ 0  ✉ 0  ↻ 1,200", cardCounters(p))
	})

	t.Run("nothing tracked", func(t *testing.T) {
		assert.Empty(t, cardCounters(models.Post{}))
	})
}

func TestWrapLines(t *testing.T) {
	t.Run("fits", func(t *testing.T) {
		assert.Equal(t, []string{"hello world"}, wrapLines("hello   world", 20, 3))
	})

	t.Run("wraps and cuts", func(t *testing.T) {
		lines := wrapLines("one two three four five six seven eight nine ten", 10, 2)
		assert.Len(t, lines, 2)
		for _, l := range lines {
			assert.LessOrEqual(t, runewidth.StringWidth(l), 10, l)
		}
		assert.True(t, strings.HasSuffix(lines[1], "…"), "обрезанный текст заканчивается многоточием")
	})

	t.Run("wide runes", func(t *testing.T) {
		lines := wrapLines("Привет мир это длинный пост", 12, 5)
		for _, l := range lines {
			assert.LessOrEqual(t, runewidth.StringWidth(l), 12, l)
		}
	})

	t.Run("long word", func(t *testing.T) {
		lines := wrapLines(strings.Repeat("x", 50), 10, 3)
		assert.Len(t, lines, 1)
		assert.Equal(t, 10, runewidth.StringWidth(lines[0]))
	})
}

func TestDates(t *testing.T) {
	p := models.Post{CreatedAt: "2024-03-05T14:07:00"}
	assert.Equal(t, "Mar 5, 2024 at 02:07 PM", cardDate(p))
	assert.Equal(t, "March 5, 2024 at 02:07 PM", longDate(p))
	assert.Equal(t, "Unknown date", cardDate(models.Post{}))
}

func TestRenderGrid(t *testing.T) {
	st := DefaultStyles(false)

	t.Run("skeleton while first page loads", func(t *testing.T) {
		out := renderGrid(gridView{Loading: true, Columns: 2}, st)
		assert.Contains(t, out, "░")
		assert.NotContains(t, out, "No posts found")
	})

	t.Run("empty", func(t *testing.T) {
		out := renderGrid(gridView{Columns: 2}, st)
		assert.Contains(t, out, "No posts found")
	})

	posts := []models.Post{
		{PostID: "a", Author: "Ann", Content: "first"},
		{PostID: "b", Author: "Bob", Content: "second"},
		{PostID: "c", Author: "Cid", Content: "third"},
	}

	t.Run("load more hint", func(t *testing.T) {
		out := renderGrid(gridView{Posts: posts, Columns: 2, HasMore: true}, st)
		assert.Contains(t, out, "Load more")

		out = renderGrid(gridView{Posts: posts, Columns: 2, HasMore: true, Loading: true}, st)
		assert.Contains(t, out, "Loading...")

		out = renderGrid(gridView{Posts: posts, Columns: 2}, st)
		assert.NotContains(t, out, "Load more", "на последней странице подсказки нет")
	})

	t.Run("visible window", func(t *testing.T) {
		out := renderGrid(gridView{Posts: posts, Columns: 1, Offset: 1, Rows: 1}, st)
		assert.Contains(t, out, "Bob")
		assert.NotContains(t, out, "Ann")
		assert.NotContains(t, out, "Cid")
	})
}

func TestRenderCardContent(t *testing.T) {
	st := DefaultStyles(false)
	out := renderCard(models.Post{Author: "Ann"}, cardWidth, false, st)
	assert.Contains(t, out, "No content available")
	assert.Contains(t, out, "Unknown date")

	for _, line := range strings.Split(out, "\n") {
		assert.Equal(t, cardWidth, lipgloss.Width(line), "все строки карточки одной ширины")
	}
}

func TestRenderTiles(t *testing.T) {
	st := DefaultStyles(false)
	out := renderTiles(nil, st)
	assert.Contains(t, out, "Total Posts")
	assert.Contains(t, out, "Unique Authors")

	out = renderTiles(&models.Stats{TotalPosts: 12345}, st)
	assert.Contains(t, out, "12,345")
}

func TestRenderDetail(t *testing.T) {
	st := DefaultStyles(false)
	proxy := func(u string) string { return "proxy:" + u }

	t.Run("all counters and proxied images", func(t *testing.T) {
		p := models.Post{
			PostID:    "https://facebook.com/groups/1/posts/2",
			Author:    "Ann",
			ImageURLs: []string{"https://scontent.x/1.jpg", "https://scontent.x/2.jpg"},
			Reactions: models.Untracked(),
			Comments:  models.Tracked(4),
			Shares:    models.Tracked(0),
		}
		out := renderDetail(p, proxy, 60, st)
		assert.Contains(t, out, "proxy:https://scontent.x/1.jpg")
		assert.Contains(t, out, "proxy:https://scontent.x/2.jpg")
		assert.Contains(t, out, "Reactions")
		assert.Contains(t, out, "View on Facebook")
		assert.Contains(t, out, p.PostID)
	})

	t.Run("video takes precedence", func(t *testing.T) {
		p := models.Post{
			ContentType: models.ContentVideo,
			VideoURLs:   []string{"v1", "v2"},
			MediaURL:    "thumb",
		}
		out := renderDetail(p, proxy, 60, st)
		assert.Contains(t, out, "v1")
		assert.Contains(t, out, "2 videos available")
		assert.NotContains(t, out, "proxy:thumb")
	})

	t.Run("media url fallback", func(t *testing.T) {
		out := renderDetail(models.Post{MediaURL: "m.jpg"}, proxy, 60, st)
		assert.Contains(t, out, "proxy:m.jpg")
		assert.NotContains(t, out, "View on Facebook", "без post_id ссылки нет")
	})
}

func TestClampScroll(t *testing.T) {
	assert.Equal(t, 0, clampScroll(0, 3, 2, 10))
	assert.Equal(t, 4, clampScroll(5, 0, 2, 10))
	assert.Equal(t, 8, clampScroll(9, 9, 2, 10))
	assert.Equal(t, 0, clampScroll(3, 2, 0, 10))
}
