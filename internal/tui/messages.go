package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ButyrinIA/postboard/internal/export"
	"github.com/ButyrinIA/postboard/internal/feed"
	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
	"github.com/ButyrinIA/postboard/internal/session"
	"github.com/ButyrinIA/postboard/internal/settings"
)

// Messages
type (
	restoredMsg struct{ err error }
	loginMsg    struct{ result session.LoginResult }
	postsMsg    struct{ resp feed.Response }
	groupsMsg   struct{ res feed.GroupsResult }
	statsMsg    struct{ res feed.StatsResult }
	postMsg     struct {
		post *models.Post
		err  error
		gen  uint64
	}
	exportedMsg struct {
		format export.Format
		path   string
		err    error
	}
	profileSavedMsg struct {
		res settings.ProfileResult
		err error
	}
	prefsLoadedMsg struct {
		prefs settings.Preferences
		err   error
	}
	prefsSavedMsg  struct{ err error }
	clearStatusMsg struct{ id int }
)

func restoreCmd(ctx context.Context, auth Auth) tea.Cmd {
	return func() tea.Msg {
		return restoredMsg{err: auth.Restore(ctx)}
	}
}

func loginCmd(ctx context.Context, auth Auth, email, password string) tea.Cmd {
	return func() tea.Msg {
		return loginMsg{result: auth.Login(ctx, email, password)}
	}
}

func fetchPostsCmd(ctx context.Context, src feed.PostSource, req feed.Request) tea.Cmd {
	return func() tea.Msg {
		return postsMsg{resp: feed.Fetch(ctx, src, req)}
	}
}

func fetchGroupsCmd(ctx context.Context, src feed.OverviewSource) tea.Cmd {
	return func() tea.Msg {
		return groupsMsg{res: feed.FetchGroups(ctx, src)}
	}
}

func fetchStatsCmd(ctx context.Context, src feed.OverviewSource) tea.Cmd {
	return func() tea.Msg {
		return statsMsg{res: feed.FetchStats(ctx, src)}
	}
}

func fetchPostCmd(ctx context.Context, b Backend, postID string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		p, err := b.Post(ctx, postID)
		return postMsg{post: p, err: err, gen: gen}
	}
}

func exportCmd(ctx context.Context, ex Exporter, criteria filter.Criteria, f export.Format) tea.Cmd {
	return func() tea.Msg {
		path, err := ex.Export(ctx, criteria, f)
		return exportedMsg{format: f, path: path, err: err}
	}
}

func saveProfileCmd(ctx context.Context, s Settings, name, email string) tea.Cmd {
	return func() tea.Msg {
		res, err := s.UpdateProfile(ctx, name, email)
		return profileSavedMsg{res: res, err: err}
	}
}

func loadPrefsCmd(ctx context.Context, s Settings) tea.Cmd {
	return func() tea.Msg {
		p, err := s.Preferences(ctx)
		return prefsLoadedMsg{prefs: p, err: err}
	}
}

func savePrefsCmd(ctx context.Context, s Settings, p settings.Preferences) tea.Cmd {
	return func() tea.Msg {
		return prefsSavedMsg{err: s.SavePreferences(ctx, p)}
	}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg { return clearStatusMsg{id: id} })
}
