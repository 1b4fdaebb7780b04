package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButyrinIA/postboard/internal/filter"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)
	return New(s.URL+"/api", 2*time.Second, opts...)
}

func TestClient_PostsSendsBearerAndFilters(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"posts":[{"post_id":"p1","reactions":null,"comments":2}],"pagination":{"page":1,"per_page":20,"total":1,"pages":1}}`))
	})
	c.SetToken("tok")

	criteria := filter.Default()
	criteria.Keyword = "abc"
	page, err := c.Posts(context.Background(), criteria, 1, 20)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/api/posts", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))

	q := got.URL.Query()
	assert.Equal(t, "abc", q.Get("keyword"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "20", q.Get("per_page"))
	assert.NotContains(t, q, "author")
	assert.NotContains(t, q, "date_from")

	require.Len(t, page.Posts, 1)
	assert.False(t, page.Posts[0].Reactions.Valid)
	assert.True(t, page.Posts[0].Comments.Valid)
	assert.Equal(t, 1, page.Pagination.Pages)
}

func TestClient_UnauthorizedTriggersHook(t *testing.T) {
	var fired atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"Token has expired"}`))
	}, WithUnauthorizedHandler(func() { fired.Add(1) }))
	c.SetToken("old")

	_, err := c.Groups(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, int32(1), fired.Load())
}

func TestClient_StaleTokenRejectionKeepsNewSession(t *testing.T) {
	var fired atomic.Int32
	arrived, release := make(chan struct{}), make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"Token has expired"}`))
	}, WithUnauthorizedHandler(func() { fired.Add(1) }))
	c.SetToken("old")

	errc := make(chan error, 1)
	go func() {
		_, err := c.Groups(context.Background())
		errc <- err
	}()

	<-arrived
	// повторный вход, пока старый запрос еще в пути
	c.SetToken("new")
	close(release)

	err := <-errc
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(0), fired.Load(), "Отказ по старому токену не сбрасывает новую сессию")
	assert.Equal(t, "new", c.Token())
}

func TestClient_MalformedTokenIsAuthFailure(t *testing.T) {
	var fired atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"msg":"Not enough segments"}`))
	})
	c.OnUnauthorized(func() { fired.Add(1) })

	_, err := c.Stats(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), fired.Load())
}

func TestClient_LoginFailureIsNotExpiry(t *testing.T) {
	var fired atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "a@b.c", body["email"])
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	}, WithUnauthorizedHandler(func() { fired.Add(1) }))

	_, err := c.Login(context.Background(), "a@b.c", "nope")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "Invalid credentials", Message(err, "Login failed"))
	assert.Zero(t, fired.Load())
}

func TestClient_ServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Failed to fetch posts"}`, http.StatusInternalServerError)
	})

	_, err := c.Posts(context.Background(), filter.Default(), 1, 20)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to fetch posts", apiErr.Message)
	assert.Equal(t, "fallback", Message(errors.New("x"), "fallback"))
}

func TestClient_ExportStreamsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.NotContains(t, r.URL.Query(), "page")
		assert.NotContains(t, r.URL.Query(), "per_page")
		_, _ = w.Write([]byte("id,post_url\n1,u\n"))
	})

	body, err := c.Export(context.Background(), filter.Default(), "csv")
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "id,post_url\n1,u\n", string(raw))
}

func TestClient_PostEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts/https:%2F%2Ffb.com%2Fp%2F1", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"post_id":"https://fb.com/p/1","shares":0}`))
	})

	p, err := c.Post(context.Background(), "https://fb.com/p/1")
	require.NoError(t, err)
	assert.Equal(t, "https://fb.com/p/1", p.PostID)
	assert.True(t, p.Shares.Valid)
}

func TestClient_Timeout(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer s.Close()

	c := New(s.URL, 100*time.Millisecond)
	_, err := c.Stats(context.Background())
	assert.Error(t, err)
}

func TestImageURL(t *testing.T) {
	c := New("http://localhost:5000/api/", time.Second)

	assert.Equal(t, "", c.ImageURL(""))
	assert.Equal(t, "https://example.com/a.jpg", c.ImageURL("https://example.com/a.jpg"))
	assert.Equal(t,
		"http://localhost:5000/api/image-proxy?url=https%3A%2F%2Fscontent.xx.fbcdn.net%2Fa.jpg",
		c.ImageURL("https://scontent.xx.fbcdn.net/a.jpg"))
}
