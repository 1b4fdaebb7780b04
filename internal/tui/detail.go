package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ButyrinIA/postboard/internal/models"
)

// detailView shows one post. The copy from the list is shown at once and
// replaced when GET /posts/{id} returns.
type detailView struct {
	post    models.Post
	gen     uint64
	loading bool
	vp      viewport.Model
}

func (m Model) openDetail(p models.Post) (Model, tea.Cmd) {
	m.mode = modeDetail
	m.detailGen++
	m.detail = detailView{
		post:    p,
		gen:     m.detailGen,
		loading: p.PostID != "",
		vp:      viewport.New(m.contentWidth(), m.detailHeight()),
	}
	m.detail.vp.SetContent(renderDetail(p, m.backend.ImageURL, m.contentWidth(), m.styles))

	if p.PostID == "" {
		return m, nil
	}
	return m, tea.Batch(fetchPostCmd(m.ctx, m.backend, p.PostID, m.detailGen), m.spinner.Tick)
}

func (m Model) applyPost(msg postMsg) Model {
	// ответ для уже закрытой карточки
	if msg.gen != m.detailGen || m.mode != modeDetail {
		return m
	}
	m.detail.loading = false
	if msg.err != nil || msg.post == nil {
		slog.Warn("failed to refresh post", "post_id", m.detail.post.PostID, "error", msg.err)
		return m
	}
	m.detail.post = *msg.post
	m.detail.vp.SetContent(renderDetail(*msg.post, m.backend.ImageURL, m.contentWidth(), m.styles))
	return m
}

func (m Model) updateDetail(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.mode = modeGrid
		m.detailGen++
		return m, nil
	}
	var cmd tea.Cmd
	m.detail.vp, cmd = m.detail.vp.Update(msg)
	return m, cmd
}

func (m Model) viewDetail() string {
	header := m.styles.Title.Render("Post Details")
	if m.detail.loading {
		header += " " + m.spinner.View()
	}
	return header + "\n\n" + m.detail.vp.View() + "\n" +
		m.styles.Subtle.Render("↑/↓  scroll · esc  close")
}
