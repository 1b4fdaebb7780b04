package server

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/ButyrinIA/postboard/internal/models"
)

// UserFixture - учетная запись стенда. Password хранится открытым текстом
// только в файле фикстур, в памяти остается bcrypt-хэш.
type UserFixture struct {
	ID        string    `yaml:"id"`
	Email     string    `yaml:"email"`
	Name      string    `yaml:"name"`
	Password  string    `yaml:"password"`
	IsAdmin   bool      `yaml:"is_admin"`
	IsActive  *bool     `yaml:"is_active"`
	CreatedAt time.Time `yaml:"created_at"`

	hash []byte
}

func (u UserFixture) active() bool { return u.IsActive == nil || *u.IsActive }

func (u UserFixture) model() models.User {
	m := models.User{
		ID:      models.ID(u.ID),
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
	}
	if !u.CreatedAt.IsZero() {
		m.CreatedAt = isoformat(u.CreatedAt)
	}
	return m
}

// PostFixture mirrors a row of the aggregator's posts table.
type PostFixture struct {
	ID          int64     `yaml:"id"`
	PostURL     string    `yaml:"post_url"`
	AuthorName  string    `yaml:"author_name"`
	AuthorURL   string    `yaml:"author_url"`
	TextContent string    `yaml:"text_content"`
	ImageURLs   []string  `yaml:"image_urls"`
	VideoURLs   []string  `yaml:"video_urls"`
	ContentType string    `yaml:"content_type"`
	Reactions   *int64    `yaml:"reactions"`
	Comments    *int64    `yaml:"comments"`
	CreatedAt   time.Time `yaml:"created_at"`
	GroupID     string    `yaml:"group_id"`
}

func (p PostFixture) contentType() models.ContentType {
	switch {
	case p.ContentType != "":
		return models.ContentType(p.ContentType)
	case len(p.VideoURLs) > 0:
		return models.ContentVideo
	case len(p.ImageURLs) > 0:
		return models.ContentImage
	}
	return models.ContentText
}

func (p PostFixture) model() models.Post {
	m := models.Post{
		PostID:      p.PostURL,
		ID:          models.ID(strconv.FormatInt(p.ID, 10)),
		Author:      p.AuthorName,
		AuthorURL:   p.AuthorURL,
		Content:     p.TextContent,
		ContentType: p.contentType(),
		ImageURLs:   nonNil(p.ImageURLs),
		VideoURLs:   nonNil(p.VideoURLs),
		Reactions:   count(p.Reactions),
		Comments:    count(p.Comments),
		// shares бэкенд не собирает
		Shares:  models.Tracked(0),
		GroupID: models.ID(p.GroupID),
	}
	if len(p.ImageURLs) > 0 {
		m.MediaURL = p.ImageURLs[0]
	}
	if !p.CreatedAt.IsZero() {
		m.CreatedAt = isoformat(p.CreatedAt)
	}
	return m
}

// Dataset is the in-memory database of the stub backend.
type Dataset struct {
	Users      []UserFixture     `yaml:"users"`
	Posts      []PostFixture     `yaml:"posts"`
	GroupNames map[string]string `yaml:"group_names"`

	mu sync.RWMutex
}

// LoadFixtures reads a YAML dataset and hashes the user passwords.
func LoadFixtures(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	if err := ds.prepare(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// SampleDataset builds a small dataset around now: one admin
// (admin@example.com / admin123), one non-admin, and n posts.
func SampleDataset(now time.Time, n int) (*Dataset, error) {
	ds := &Dataset{
		Users: []UserFixture{
			{Email: "admin@example.com", Name: "Admin", Password: "admin123", IsAdmin: true, CreatedAt: now.AddDate(0, -1, 0)},
			{Email: "viewer@example.com", Name: "Viewer", Password: "viewer123"},
		},
		GroupNames: map[string]string{"1001": "Local News"},
	}

	authors := []string{"Ann Lee", "Bob Stone", "Карина Волкова", "Dmitry K."}
	groups := []string{"1001", "1002", ""}
	for i := 0; i < n; i++ {
		p := PostFixture{
			ID:          int64(i + 1),
			PostURL:     fmt.Sprintf("https://www.facebook.com/groups/g/posts/%d", 100000+i),
			AuthorName:  authors[i%len(authors)],
			AuthorURL:   "https://www.facebook.com/profile.php?id=" + strconv.Itoa(500+i%len(authors)),
			TextContent: fmt.Sprintf("Sample post #%d about the weekend market", i+1),
			CreatedAt:   now.Add(-time.Duration(i) * 7 * time.Hour).Truncate(time.Second),
			GroupID:     groups[i%len(groups)],
		}
		switch i % 3 {
		case 0:
			p.ImageURLs = []string{fmt.Sprintf("https://scontent.xx.fbcdn.net/v/%d.jpg", i)}
		case 1:
			p.VideoURLs = []string{fmt.Sprintf("https://video.xx.fbcdn.net/v/%d.mp4", i)}
		}
		// у части постов реакции не отслеживаются
		if i%5 != 4 {
			r, c := int64(i*3%40), int64(i%7)
			p.Reactions, p.Comments = &r, &c
		}
		ds.Posts = append(ds.Posts, p)
	}

	if err := ds.prepare(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *Dataset) prepare() error {
	for i := range ds.Users {
		u := &ds.Users[i]
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		u.hash = hash
		u.Password = ""
	}
	for i := range ds.Posts {
		if ds.Posts[i].ID == 0 {
			ds.Posts[i].ID = int64(i + 1)
		}
	}
	return nil
}

func (ds *Dataset) userByEmail(email string) (UserFixture, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	for _, u := range ds.Users {
		if u.Email == email {
			return u, true
		}
	}
	return UserFixture{}, false
}

var errEmailTaken = errors.New("email already exists")

func (ds *Dataset) updateUser(current, email, name string) (UserFixture, bool, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	idx := -1
	for i, u := range ds.Users {
		if u.Email == current {
			idx = i
		} else if u.Email == email {
			return UserFixture{}, false, errEmailTaken
		}
	}
	if idx < 0 {
		return UserFixture{}, false, nil
	}
	ds.Users[idx].Email = email
	ds.Users[idx].Name = name
	return ds.Users[idx], true, nil
}

type query struct {
	author, keyword, groupID string
	from, to                 time.Time
	sortBy, order            string
}

// find filters and sorts the posts. Counters that aren't tracked sort as
// larger than any value, the way NULLs do in postgres.
func (ds *Dataset) find(q query) []PostFixture {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	author := strings.ToLower(q.author)
	keyword := strings.ToLower(q.keyword)

	var out []PostFixture
	for _, p := range ds.Posts {
		switch {
		case author != "" && !strings.Contains(strings.ToLower(p.AuthorName), author):
			continue
		case keyword != "" && !strings.Contains(strings.ToLower(p.TextContent), keyword):
			continue
		case q.groupID != "" && p.GroupID != q.groupID:
			continue
		case !q.from.IsZero() && p.CreatedAt.Before(q.from):
			continue
		case !q.to.IsZero() && p.CreatedAt.After(q.to):
			continue
		}
		out = append(out, p)
	}

	less := func(a, b PostFixture) int {
		switch q.sortBy {
		case "reactions":
			return cmpNullable(a.Reactions, b.Reactions)
		case "comments":
			return cmpNullable(a.Comments, b.Comments)
		case "shares":
			return 0
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := less(out[i], out[j])
		if c == 0 {
			c = cmpInt(out[i].ID, out[j].ID)
		}
		if q.order == "asc" {
			return c < 0
		}
		return c > 0
	})
	return out
}

func (ds *Dataset) postByURL(url string) (PostFixture, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	for _, p := range ds.Posts {
		if p.PostURL == url {
			return p, true
		}
	}
	return PostFixture{}, false
}

func (ds *Dataset) groups() []models.Group {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	counts := map[string]int{}
	for _, p := range ds.Posts {
		if p.GroupID != "" {
			counts[p.GroupID]++
		}
	}
	out := make([]models.Group, 0, len(counts))
	for id, n := range counts {
		g := models.Group{GroupID: models.ID(id), PostCount: n}
		if name, ok := ds.GroupNames[id]; ok {
			g.GroupName = &name
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostCount != out[j].PostCount {
			return out[i].PostCount > out[j].PostCount
		}
		return out[i].GroupID < out[j].GroupID
	})
	return out
}

func (ds *Dataset) stats(now time.Time) models.Stats {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	st := models.Stats{TotalPosts: int64(len(ds.Posts)), PostsByDate: []models.DailyCount{}}
	authors := map[string]struct{}{}
	byDate := map[string]int64{}
	since := now.AddDate(0, 0, -7)
	for _, p := range ds.Posts {
		if p.Reactions != nil {
			st.TotalReactions += *p.Reactions
		}
		if p.Comments != nil {
			st.TotalComments += *p.Comments
		}
		authors[p.AuthorName] = struct{}{}
		if !p.CreatedAt.Before(since) {
			byDate[p.CreatedAt.Format(time.DateOnly)]++
		}
	}
	st.TotalAuthors = int64(len(authors))
	for d, n := range byDate {
		st.PostsByDate = append(st.PostsByDate, models.DailyCount{Date: d, Count: n})
	}
	sort.Slice(st.PostsByDate, func(i, j int) bool { return st.PostsByDate[i].Date < st.PostsByDate[j].Date })
	return st
}

func cmpNullable(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmpInt(*a, *b)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func count(v *int64) models.Count {
	if v == nil {
		return models.Untracked()
	}
	return models.Tracked(*v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isoformat - формат datetime.isoformat() для времени без зоны
func isoformat(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}
	return t.Format("2006-01-02T15:04:05")
}
