package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountDistinguishesNullFromZero(t *testing.T) {
	var p Post
	err := json.Unmarshal([]byte(`{"post_id":"u","reactions":null,"comments":0,"shares":7}`), &p)
	require.NoError(t, err)

	assert.False(t, p.Reactions.Valid, "null должен остаться неотслеживаемым")
	assert.Equal(t, Tracked(0), p.Comments)
	assert.Equal(t, Tracked(7), p.Shares)
}

func TestCountMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Count `json:"a"`
		B Count `json:"b"`
	}{A: Untracked(), B: Tracked(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":3}`, string(b))
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var g []Group
	err := json.Unmarshal([]byte(`[{"group_id":123,"post_count":2},{"group_id":"abc","group_name":"Cats","post_count":5}]`), &g)
	require.NoError(t, err)
	require.Len(t, g, 2)

	assert.Equal(t, ID("123"), g[0].GroupID)
	assert.Equal(t, "Group 123 (2)", g[0].Label())
	assert.Equal(t, "Cats (5)", g[1].Label())
}

func TestPostCreated(t *testing.T) {
	cases := map[string]bool{
		"2024-03-01T10:20:30":        true,
		"2024-03-01T10:20:30+00:00":  true,
		"2024-03-01T10:20:30.123456": true,
		"":                           false,
		"yesterday":                  false,
	}
	for in, ok := range cases {
		_, got := Post{CreatedAt: in}.Created()
		assert.Equal(t, ok, got, in)
	}
}

func TestPrimaryVideo(t *testing.T) {
	_, ok := Post{ContentType: ContentVideo}.PrimaryVideo()
	assert.False(t, ok)

	url, ok := Post{ContentType: ContentVideo, VideoURLs: []string{"v1", "v2"}}.PrimaryVideo()
	assert.True(t, ok)
	assert.Equal(t, "v1", url)
}
