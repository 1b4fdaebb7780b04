package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ButyrinIA/postboard/internal/models"
)

const (
	cardWidth        = 36
	cardContentLines = 3
	// 2 строки рамки + медиа, автор, текст, счетчики, дата
	cardHeight    = 2 + 1 + 1 + cardContentLines + 1 + 1
	skeletonCards = 8
)

// formatNumber groups thousands with commas.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// cardCounters lists the tracked counters only. A tracked zero is shown.
func cardCounters(p models.Post) string {
	var parts []string
	for _, c := range []struct {
		icon  string
		count models.Count
	}{
		{"♥", p.Reactions},
		{"✉", p.Comments},
		{"↻", p.Shares},
	} {
		if c.count.Valid {
			parts = append(parts, c.icon+" "+formatNumber(c.count.Value))
		}
	}
	return strings.Join(parts, "  ")
}

func countOrZero(c models.Count) string {
	return formatNumber(c.Value)
}

func cardDate(p models.Post) string {
	t, ok := p.Created()
	if !ok {
		return "Unknown date"
	}
	return t.Format("Jan 2, 2006 at 03:04 PM")
}

func longDate(p models.Post) string {
	t, ok := p.Created()
	if !ok {
		return "Unknown date"
	}
	return t.Format("January 2, 2006 at 03:04 PM")
}

func mediaBadge(p models.Post) string {
	if _, ok := p.PrimaryVideo(); ok {
		return "▶ Video"
	}
	if p.MediaURL != "" || len(p.ImageURLs) > 0 {
		return "▣ Image"
	}
	if p.ContentType == models.ContentVideo {
		return "▶ Video unavailable"
	}
	return "· No media"
}

func postContent(p models.Post) string {
	if strings.TrimSpace(p.Content) == "" {
		return "No content available"
	}
	return p.Content
}

// wrapLines splits s into at most limit lines no wider than width. Cut text
// ends with an ellipsis.
func wrapLines(s string, width, limit int) []string {
	if width <= 0 || limit <= 0 {
		return nil
	}
	var lines []string
	cur := ""
	for _, w := range strings.Fields(s) {
		if runewidth.StringWidth(w) > width {
			w = runewidth.Truncate(w, width, "…")
		}
		switch {
		case cur == "":
			cur = w
		case runewidth.StringWidth(cur)+1+runewidth.StringWidth(w) <= width:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	if len(lines) > limit {
		lines = lines[:limit]
		last := lines[limit-1]
		if runewidth.StringWidth(last) < width {
			last += "…"
		} else {
			last = runewidth.Truncate(last, width-1, "") + "…"
		}
		lines[limit-1] = last
	}
	return lines
}

func renderCard(p models.Post, width int, selected bool, st Styles) string {
	inner := width - 4
	lines := []string{
		st.Subtle.Render(mediaBadge(p)),
		st.Title.Render(runewidth.Truncate(p.Author, inner, "…")),
	}
	body := wrapLines(postContent(p), inner, cardContentLines)
	for len(body) < cardContentLines {
		body = append(body, "")
	}
	lines = append(lines, body...)
	lines = append(lines, cardCounters(p), st.Subtle.Render(cardDate(p)))

	style := st.Card
	if selected {
		style = st.CardSelected
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func renderSkeletonCard(width int, st Styles) string {
	inner := width - 4
	bar := func(w int) string { return strings.Repeat("░", max(1, w)) }
	lines := []string{
		bar(inner / 3),
		bar(inner / 2),
	}
	for i := 0; i < cardContentLines; i++ {
		lines = append(lines, bar(inner-i*4))
	}
	lines = append(lines, bar(inner/2), bar(inner/3))
	return st.Skeleton.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// gridView describes one render of the post grid.
type gridView struct {
	Posts     []models.Post
	Loading   bool
	HasMore   bool
	Cursor    int
	Columns   int
	CardWidth int
	// Offset is the first visible row, Rows the number of visible rows.
	// Rows == 0 renders everything.
	Offset int
	Rows   int
}

func renderGrid(g gridView, st Styles) string {
	cols := max(1, g.Columns)
	width := g.CardWidth
	if width == 0 {
		width = cardWidth
	}

	if g.Loading && len(g.Posts) == 0 {
		var rows []string
		for i := 0; i < skeletonCards; i += cols {
			cards := make([]string, 0, cols)
			for c := 0; c < cols && i+c < skeletonCards; c++ {
				cards = append(cards, renderSkeletonCard(width, st))
			}
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
			if g.Rows > 0 && len(rows) >= g.Rows {
				break
			}
		}
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	if len(g.Posts) == 0 {
		return st.Subtle.Render("No posts found") + "\n" +
			st.Subtle.Render("Try adjusting your filters")
	}

	total := (len(g.Posts) + cols - 1) / cols
	start := min(max(0, g.Offset), total-1)
	end := total
	if g.Rows > 0 && start+g.Rows < total {
		end = start + g.Rows
	}

	rows := make([]string, 0, end-start)
	for r := start; r < end; r++ {
		cards := make([]string, 0, cols)
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(g.Posts) {
				break
			}
			cards = append(cards, renderCard(g.Posts[i], width, i == g.Cursor, st))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	out := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if g.HasMore {
		hint := "m  Load more"
		if g.Loading {
			hint = "Loading..."
		}
		out += "\n" + st.Subtle.Render(hint)
	}
	return out
}

// renderTiles draws the stat tiles. Nil stats render as zeros.
func renderTiles(s *models.Stats, st Styles) string {
	var stats models.Stats
	if s != nil {
		stats = *s
	}
	items := []struct {
		label string
		value int64
	}{
		{"Total Posts", stats.TotalPosts},
		{"Total Reactions", stats.TotalReactions},
		{"Total Comments", stats.TotalComments},
		{"Total Shares", stats.TotalShares},
		{"Unique Authors", stats.TotalAuthors},
	}
	tiles := make([]string, len(items))
	for i, it := range items {
		tiles[i] = st.Tile.Render(st.TileValue.Render(formatNumber(it.value)) + "\n" + st.Subtle.Render(it.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

// renderDetail draws the full post. Unlike the card it shows every counter,
// untracked ones as 0, and routes image URLs through imageURL.
func renderDetail(p models.Post, imageURL func(string) string, width int, st Styles) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	field := func(label, value string) {
		line(st.Label.Render(label) + value)
	}

	switch video, ok := p.PrimaryVideo(); {
	case ok:
		field("Video", video)
		if n := len(p.VideoURLs); n > 1 {
			line(st.Subtle.Render(fmt.Sprintf("%d videos available", n)))
		}
	case len(p.ImageURLs) > 0:
		for i, u := range p.ImageURLs {
			field(fmt.Sprintf("Image %d", i+1), imageURL(u))
		}
	case p.MediaURL != "":
		field("Image", imageURL(p.MediaURL))
	}

	if p.Author != "" {
		author := st.Title.Render(p.Author)
		if p.AuthorURL != "" {
			author += " " + st.Subtle.Render(p.AuthorURL)
		}
		field("Author", author)
	}
	line("")
	line(lipgloss.NewStyle().Width(max(20, width)).Render(postContent(p)))
	line("")

	field("Reactions", countOrZero(p.Reactions))
	field("Comments", countOrZero(p.Comments))
	field("Shares", countOrZero(p.Shares))
	line("")
	field("Posted on", longDate(p))

	if p.PostID != "" {
		line("")
		line(st.Link.Render("View on Facebook") + " " + st.Subtle.Render(p.PostID))
	}
	return strings.TrimRight(b.String(), "\n")
}

// clampScroll keeps the cursor row inside the visible window.
func clampScroll(cursor, scroll, visible, total int) int {
	if visible <= 0 {
		return 0
	}
	if cursor < scroll {
		scroll = cursor
	}
	if cursor >= scroll+visible {
		scroll = cursor - visible + 1
	}
	if limit := total - visible; scroll > limit {
		scroll = limit
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}
