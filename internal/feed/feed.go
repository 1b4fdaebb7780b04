// Package feed owns the filtered, paginated post list of the overview.
//
// The Controller is not safe for concurrent use. One owner (the UI update
// loop or a CLI command) mutates it and runs the returned Requests through
// Fetch elsewhere, then hands the Response back to Apply. Every request
// carries the epoch of the criteria it was issued for. Responses from an
// older epoch are dropped on arrival.
package feed

import (
	"context"
	"log/slog"

	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
)

type Kind int

const (
	// Reset replaces the accumulated list.
	Reset Kind = iota
	// Append extends it with the next page.
	Append
)

func (k Kind) String() string {
	if k == Append {
		return "append"
	}
	return "reset"
}

type Request struct {
	Epoch    uint64
	Kind     Kind
	Criteria filter.Criteria
	Page     int
	PerPage  int
}

type Response struct {
	Request Request
	Page    *models.PostPage
	Err     error
}

// PostSource is the part of the API client the feed reads from.
type PostSource interface {
	Posts(ctx context.Context, criteria filter.Criteria, page, perPage int) (*models.PostPage, error)
}

// Fetch executes one request. It never touches controller state.
func Fetch(ctx context.Context, src PostSource, req Request) Response {
	page, err := src.Posts(ctx, req.Criteria, req.Page, req.PerPage)
	return Response{Request: req, Page: page, Err: err}
}

type Controller struct {
	criteria   filter.Criteria
	epoch      uint64
	posts      []models.Post
	seen       map[string]struct{}
	pagination models.Pagination
	loading    bool
	lastErr    error
}

func NewController(perPage int) *Controller {
	if perPage <= 0 {
		perPage = 20
	}
	return &Controller{
		criteria:   filter.Default(),
		seen:       make(map[string]struct{}),
		pagination: models.Pagination{Page: 1, PerPage: perPage},
	}
}

func (c *Controller) Criteria() filter.Criteria     { return c.criteria }
func (c *Controller) Pagination() models.Pagination { return c.pagination }
func (c *Controller) Loading() bool                 { return c.loading }
func (c *Controller) Epoch() uint64                 { return c.epoch }

// LastError is the failure of the latest applied response, if any. It is
// cleared by the next request and is meant for diagnostics only.
func (c *Controller) LastError() error { return c.lastErr }

// Posts returns the accumulated list. Callers must not modify it.
func (c *Controller) Posts() []models.Post { return c.posts }

// HasMore reports whether the backend has pages past the current one.
func (c *Controller) HasMore() bool { return c.pagination.Page < c.pagination.Pages }

// ResetAndFetch starts a new epoch for criteria. Page and list are reset
// before the request is returned, so nothing from the old epoch is visible
// while the first page loads.
func (c *Controller) ResetAndFetch(criteria filter.Criteria) Request {
	c.epoch++
	c.criteria = criteria
	c.posts = nil
	c.seen = make(map[string]struct{})
	c.pagination = models.Pagination{Page: 1, PerPage: c.pagination.PerPage}
	c.loading = true
	c.lastErr = nil

	return Request{
		Epoch:    c.epoch,
		Kind:     Reset,
		Criteria: criteria,
		Page:     1,
		PerPage:  c.pagination.PerPage,
	}
}

// SetFilters replaces the whole criteria value and refetches from page 1.
func (c *Controller) SetFilters(criteria filter.Criteria) Request {
	return c.ResetAndFetch(criteria)
}

// Refresh refetches the current criteria from page 1.
func (c *Controller) Refresh() Request {
	return c.ResetAndFetch(c.criteria)
}

// FetchNextPage returns the request for the page after the current one. It
// reports false, issuing nothing, while a fetch is in flight or when the
// last page has been reached.
func (c *Controller) FetchNextPage() (Request, bool) {
	if c.loading || !c.HasMore() {
		return Request{}, false
	}
	c.loading = true
	c.lastErr = nil

	return Request{
		Epoch:    c.epoch,
		Kind:     Append,
		Criteria: c.criteria,
		Page:     c.pagination.Page + 1,
		PerPage:  c.pagination.PerPage,
	}, true
}

// LoadMore is the "Load more" action.
func (c *Controller) LoadMore() (Request, bool) { return c.FetchNextPage() }

// Apply folds resp into the state. It returns false when resp belongs to
// an earlier epoch and was discarded.
func (c *Controller) Apply(resp Response) bool {
	req := resp.Request
	if req.Epoch != c.epoch {
		slog.Debug("discarding stale posts response",
			"epoch", req.Epoch, "current", c.epoch, "page", req.Page)
		return false
	}
	c.loading = false

	if resp.Err != nil || resp.Page == nil {
		c.lastErr = resp.Err
		// список и пагинация остаются прежними, повтора нет
		slog.Warn("failed to fetch posts", "page", req.Page, "kind", req.Kind, "error", resp.Err)
		return true
	}

	if req.Kind == Reset {
		c.posts = nil
		c.seen = make(map[string]struct{})
	}
	for _, p := range resp.Page.Posts {
		if p.PostID != "" {
			if _, dup := c.seen[p.PostID]; dup {
				continue
			}
			c.seen[p.PostID] = struct{}{}
		}
		c.posts = append(c.posts, p)
	}

	pg := resp.Page.Pagination
	c.pagination.Total = pg.Total
	c.pagination.Pages = pg.Pages
	c.pagination.Page = req.Page
	if pg.Page > 0 {
		c.pagination.Page = pg.Page
	}
	if pg.PerPage > 0 {
		c.pagination.PerPage = pg.PerPage
	}
	return true
}

// Collect drives the controller synchronously: the first page of criteria
// plus up to pages-1 more. It returns the error of the first failed fetch.
func Collect(ctx context.Context, c *Controller, src PostSource, criteria filter.Criteria, pages int) error {
	req := c.ResetAndFetch(criteria)
	for n := 1; ; n++ {
		resp := Fetch(ctx, src, req)
		c.Apply(resp)
		if resp.Err != nil {
			return resp.Err
		}
		if n >= pages {
			return nil
		}
		var ok bool
		if req, ok = c.FetchNextPage(); !ok {
			return nil
		}
	}
}
