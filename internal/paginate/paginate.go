// Package paginate walks GraphQL connections that follow the cursor
// convention (first/after arguments, pageInfo { hasNextPage endCursor }).
package paginate

import (
	"context"
	"iter"

	"github.com/spiffcs/repobot/internal/log"
)

// DefaultMaxPages caps how many pages a Pager requests before giving up.
// A misbehaving API that always reports hasNextPage would otherwise loop forever.
const DefaultMaxPages = 100

// PageInfo mirrors the GraphQL PageInfo object.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// Page is one response worth of nodes.
type Page[T any] struct {
	Nodes    []T      `json:"nodes"`
	PageInfo PageInfo `json:"pageInfo"`
}

// FetchFunc requests the page following the cursor. A nil cursor requests the first page.
type FetchFunc[T any] func(ctx context.Context, after *string) (Page[T], error)

// Pager iterates a connection page by page.
type Pager[T any] struct {
	fetch    FetchFunc[T]
	maxPages int
	name     string
}

// Option configures a Pager.
type Option func(*options)

type options struct {
	maxPages int
	name     string
}

// WithMaxPages overrides DefaultMaxPages. Values below 1 are ignored.
func WithMaxPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = n
		}
	}
}

// WithName labels the connection in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// New creates a Pager around fetch.
func New[T any](fetch FetchFunc[T], opts ...Option) *Pager[T] {
	o := options{maxPages: DefaultMaxPages, name: "connection"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pager[T]{fetch: fetch, maxPages: o.maxPages, name: o.name}
}

// Pages returns a lazy sequence of pages. Every call starts again from the
// first page. On error the error is yielded once and the sequence ends.
func (p *Pager[T]) Pages(ctx context.Context) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		var after *string
		for i := 0; i < p.maxPages; i++ {
			if err := ctx.Err(); err != nil {
				yield(Page[T]{}, err)
				return
			}

			page, err := p.fetch(ctx, after)
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			log.Debug("fetched page", "connection", p.name, "page", i+1, "nodes", len(page.Nodes), "hasNextPage", page.PageInfo.HasNextPage)

			if !yield(page, nil) {
				return
			}

			if !page.PageInfo.HasNextPage {
				return
			}
			if page.PageInfo.EndCursor == "" {
				log.Warn("connection reported another page without a cursor, stopping", "connection", p.name)
				return
			}
			cursor := page.PageInfo.EndCursor
			after = &cursor
		}
		log.Warn("page limit reached, results may be incomplete", "connection", p.name, "maxPages", p.maxPages)
	}
}

// All collects the nodes of every page.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var nodes []T
	for page, err := range p.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, page.Nodes...)
	}
	return nodes, nil
}

// Collect maps every node through key and gathers the results into a set.
func Collect[T any, K comparable](ctx context.Context, p *Pager[T], key func(T) K) (map[K]struct{}, error) {
	set := make(map[K]struct{})
	for page, err := range p.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		for _, n := range page.Nodes {
			set[key(n)] = struct{}{}
		}
	}
	return set, nil
}
