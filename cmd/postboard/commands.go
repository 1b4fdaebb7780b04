package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/ButyrinIA/postboard/internal/api"
	"github.com/ButyrinIA/postboard/internal/export"
	"github.com/ButyrinIA/postboard/internal/feed"
	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
	"github.com/ButyrinIA/postboard/internal/session"
	"github.com/ButyrinIA/postboard/internal/tui"
)

var errNotLoggedIn = errors.New("not logged in, run: postboard login")

func (a *app) runTUI(ctx context.Context) error {
	m := tui.New(ctx, tui.Deps{
		Backend:  a.client,
		Auth:     a.session,
		Exporter: a.exporter,
		Settings: a.settings,
		PerPage:  a.cfg.Feed.PerPage,
	}, session.RouteRoot)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "пароль (если не указан, читается из stdin)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	in := bufio.NewReader(os.Stdin)
	if *email == "" {
		*email = prompt(in, os.Stderr, "Email: ")
	}
	if *password == "" {
		*password = promptPassword(in, os.Stderr, int(os.Stdin.Fd()), "Password: ")
	}

	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	res := a.session.Login(ctx, *email, *password)
	if !res.Success {
		return errors.New(res.Error)
	}
	u, _ := a.session.User()
	fmt.Printf("Signed in as %s\n", displayName(u))
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// promptPassword reads without echo on a terminal; piped stdin is read as a line.
func promptPassword(in *bufio.Reader, out io.Writer, fd int, label string) string {
	if !term.IsTerminal(fd) {
		return prompt(in, out, label)
	}
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return ""
	}
	return string(b)
}

func (a *app) logout(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	a.session.Logout(ctx)
	fmt.Println("Signed out")
	return nil
}

// whoami prints the stored user and refreshes it from GET /profile.
func (a *app) whoami(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	u, err := a.client.Profile(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		return errNotLoggedIn
	}
	if err != nil {
		cached, _ := a.session.User()
		fmt.Printf("%s (cached, backend unavailable: %v)\n", displayName(cached), err)
		return nil
	}
	if err := a.session.SetUser(ctx, *u); err != nil {
		return err
	}
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Printf("%s <%s> %s\n", u.Name, u.Email, role)
	return nil
}

// criteriaFlags registers the filter flags shared by posts and export.
func criteriaFlags(fs *flag.FlagSet) func() (filter.Criteria, error) {
	c := filter.Default()
	fs.StringVar(&c.Author, "author", "", "автор (подстрока)")
	fs.StringVar(&c.Keyword, "keyword", "", "слово в тексте поста")
	fs.StringVar(&c.GroupID, "group", "", "id группы")
	fs.StringVar(&c.DateFrom, "from", "", "дата от, YYYY-MM-DD")
	fs.StringVar(&c.DateTo, "to", "", "дата до, YYYY-MM-DD")
	sortBy := fs.String("sort", string(filter.SortCreatedAt), "created_at, reactions, comments, shares")
	order := fs.String("order", string(filter.Desc), "asc или desc")

	return func() (filter.Criteria, error) {
		var err error
		if c.SortBy, err = filter.ParseSortField(*sortBy); err != nil {
			return c, usageError(err.Error())
		}
		if c.Order, err = filter.ParseOrder(*order); err != nil {
			return c, usageError(err.Error())
		}
		return c, nil
	}
}

func (a *app) posts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ContinueOnError)
	criteria := criteriaFlags(fs)
	pages := fs.Int("pages", 1, "сколько страниц загрузить")
	asJSON := fs.Bool("json", false, "вывод в JSON")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	c, err := criteria()
	if err != nil {
		return err
	}
	if err := a.restore(ctx); err != nil {
		return err
	}

	ctrl := feed.NewController(a.cfg.Feed.PerPage)
	if err := feed.Collect(ctx, ctrl, a.client, c, max(1, *pages)); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errNotLoggedIn
		}
		// то, что успели загрузить, все равно печатаем
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ctrl.Posts())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAUTHOR\tREACTIONS\tCOMMENTS\tSHARES\tCONTENT")
	for _, p := range ctrl.Posts() {
		date := "-"
		if t, ok := p.Created(); ok {
			date = t.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			date, p.Author, count(p.Reactions), count(p.Comments), count(p.Shares), snippet(p.Content, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pg := ctrl.Pagination()
	fmt.Fprintf(os.Stderr, "%d of %d posts, page %d of %d\n", len(ctrl.Posts()), pg.Total, pg.Page, pg.Pages)
	return nil
}

func count(c models.Count) string {
	if !c.Valid {
		return "-"
	}
	return fmt.Sprint(c.Value)
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name + " <" + u.Email + ">"
	}
	return u.Email
}

func (a *app) groups(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	groups, err := a.client.Groups(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPOSTS")
	for _, g := range groups {
		name := ""
		if g.GroupName != nil {
			name = *g.GroupName
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", g.GroupID, name, g.PostCount)
	}
	return w.Flush()
}

func (a *app) stats(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	s, err := a.client.Stats(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total posts\t%d\n", s.TotalPosts)
	fmt.Fprintf(w, "Total reactions\t%d\n", s.TotalReactions)
	fmt.Fprintf(w, "Total comments\t%d\n", s.TotalComments)
	fmt.Fprintf(w, "Total shares\t%d\n", s.TotalShares)
	fmt.Fprintf(w, "Unique authors\t%d\n", s.TotalAuthors)
	for _, d := range s.PostsByDate {
		fmt.Fprintf(w, "  %s\t%d\n", d.Date, d.Count)
	}
	return w.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	criteria := criteriaFlags(fs)
	format := fs.String("format", "csv", "json, csv или xlsx")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	c, err := criteria()
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return usageError(err.Error())
	}
	if err := a.restore(ctx); err != nil {
		return err
	}

	path, err := a.exporter.Export(ctx, c, f)
	if err != nil {
		return fmt.Errorf("%s: %w", api.Message(err, "failed to export data"), err)
	}
	fmt.Println(path)
	return nil
}
