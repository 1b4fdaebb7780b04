package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ID - идентификатор, который бэкенд отдает то числом, то строкой
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Count - счетчик вовлеченности. Valid=false означает "не отслеживается",
// что отличается от отслеживаемого нуля.
type Count struct {
	Value int64
	Valid bool
}

// Tracked возвращает отслеживаемый счетчик со значением v.
func Tracked(v int64) Count { return Count{Value: v, Valid: true} }

// Untracked возвращает неотслеживаемый счетчик.
func Untracked() Count { return Count{} }

func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = Count{}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		v = int64(f)
	}
	*c = Count{Value: v, Valid: true}
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// ContentType поста
type ContentType string

const (
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentText  ContentType = "text"
)

type Post struct {
	PostID      string      `json:"post_id"`
	ID          ID          `json:"id,omitempty"`
	Author      string      `json:"author"`
	AuthorURL   string      `json:"author_url"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	ImageURLs   []string    `json:"image_urls"`
	VideoURLs   []string    `json:"video_urls"`
	MediaURL    string      `json:"media_url"`
	Reactions   Count       `json:"reactions"`
	Comments    Count       `json:"comments"`
	Shares      Count       `json:"shares"`
	CreatedAt   string      `json:"created_at"`
	GroupID     ID          `json:"group_id,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Created разбирает CreatedAt. Бэкенд отдает isoformat() с зоной или без нее.
func (p Post) Created() (time.Time, bool) {
	if p.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, p.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PrimaryVideo возвращает первое видео, если пост - видео.
func (p Post) PrimaryVideo() (string, bool) {
	if p.ContentType == ContentVideo && len(p.VideoURLs) > 0 {
		return p.VideoURLs[0], true
	}
	return "", false
}

type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

type Group struct {
	GroupID   ID      `json:"group_id"`
	GroupName *string `json:"group_name,omitempty"`
	PostCount int     `json:"post_count"`
}

// Label - подпись группы для списка выбора
func (g Group) Label() string {
	name := "Group " + g.GroupID.String()
	if g.GroupName != nil && *g.GroupName != "" {
		name = *g.GroupName
	}
	return name + " (" + strconv.Itoa(g.PostCount) + ")"
}

type User struct {
	ID        ID     `json:"id,omitempty"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type ProfileUpdate struct {
	User         User   `json:"user"`
	EmailChanged bool   `json:"email_changed"`
	Message      string `json:"message"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalPosts     int64        `json:"total_posts"`
	TotalReactions int64        `json:"total_reactions"`
	TotalComments  int64        `json:"total_comments"`
	TotalShares    int64        `json:"total_shares"`
	TotalAuthors   int64        `json:"total_authors"`
	PostsByDate    []DailyCount `json:"posts_by_date"`
}
