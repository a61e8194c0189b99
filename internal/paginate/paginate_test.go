package paginate

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeConnection serves pages of ints, pageSize at a time.
func fakeConnection(total, pageSize int, calls *int) FetchFunc[int] {
	return func(_ context.Context, after *string) (Page[int], error) {
		*calls++
		start := 0
		if after != nil {
			if _, err := fmt.Sscanf(*after, "cursor-%d", &start); err != nil {
				return Page[int]{}, err
			}
		}
		end := start + pageSize
		if end > total {
			end = total
		}
		var nodes []int
		for i := start; i < end; i++ {
			nodes = append(nodes, i)
		}
		return Page[int]{
			Nodes: nodes,
			PageInfo: PageInfo{
				HasNextPage: end < total,
				EndCursor:   fmt.Sprintf("cursor-%d", end),
			},
		}, nil
	}
}

func TestAllCollectsEveryPage(t *testing.T) {
	calls := 0
	p := New(fakeConnection(250, 100, &calls))

	nodes, err := p.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 250 {
		t.Errorf("expected 250 nodes, got %d", len(nodes))
	}
	if calls != 3 {
		t.Errorf("expected 3 requests, got %d", calls)
	}
	for i, n := range nodes {
		if n != i {
			t.Fatalf("node %d out of order: got %d", i, n)
		}
	}
}

func TestPagesStopsAtMaxPages(t *testing.T) {
	calls := 0
	neverEnding := func(_ context.Context, _ *string) (Page[string], error) {
		calls++
		return Page[string]{
			Nodes:    []string{"x"},
			PageInfo: PageInfo{HasNextPage: true, EndCursor: "again"},
		}, nil
	}

	p := New(neverEnding, WithMaxPages(7))
	nodes, err := p.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 7 {
		t.Errorf("expected 7 requests, got %d", calls)
	}
	if len(nodes) != 7 {
		t.Errorf("expected 7 nodes, got %d", len(nodes))
	}
}

func TestDefaultMaxPages(t *testing.T) {
	calls := 0
	neverEnding := func(_ context.Context, _ *string) (Page[int], error) {
		calls++
		return Page[int]{PageInfo: PageInfo{HasNextPage: true, EndCursor: "c"}}, nil
	}

	if _, err := New(neverEnding).All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != DefaultMaxPages {
		t.Errorf("expected %d requests, got %d", DefaultMaxPages, calls)
	}
}

func TestPagesStopsOnMissingCursor(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, _ *string) (Page[int], error) {
		calls++
		return Page[int]{Nodes: []int{1}, PageInfo: PageInfo{HasNextPage: true}}, nil
	}

	nodes, err := New(fetch).All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(nodes) != 1 {
		t.Errorf("expected a single request and node, got %d requests and %d nodes", calls, len(nodes))
	}
}

func TestFirstRequestHasNilCursor(t *testing.T) {
	var cursors []*string
	fetch := func(_ context.Context, after *string) (Page[int], error) {
		cursors = append(cursors, after)
		if after == nil {
			return Page[int]{PageInfo: PageInfo{HasNextPage: true, EndCursor: "abc"}}, nil
		}
		return Page[int]{}, nil
	}

	if _, err := New(fetch).All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cursors) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(cursors))
	}
	if cursors[0] != nil {
		t.Error("expected first request without cursor")
	}
	if cursors[1] == nil || *cursors[1] != "abc" {
		t.Errorf("expected second request after %q", "abc")
	}
}

func TestPagesPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fetch := func(_ context.Context, after *string) (Page[int], error) {
		calls++
		if after != nil {
			return Page[int]{}, boom
		}
		return Page[int]{Nodes: []int{1}, PageInfo: PageInfo{HasNextPage: true, EndCursor: "next"}}, nil
	}

	_, err := New(fetch).All(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
}

func TestPagesIsRestartable(t *testing.T) {
	calls := 0
	p := New(fakeConnection(5, 2, &calls))

	first, err := p.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 5 || len(second) != 5 {
		t.Errorf("expected both walks to return 5 nodes, got %d and %d", len(first), len(second))
	}
	if calls != 6 {
		t.Errorf("expected 6 requests across two walks, got %d", calls)
	}
}

func TestPagesEarlyBreak(t *testing.T) {
	calls := 0
	p := New(fakeConnection(1000, 10, &calls))

	for page, err := range p.Pages(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Nodes[0] == 20 {
			break
		}
	}
	if calls != 3 {
		t.Errorf("expected iteration to stop after 3 requests, got %d", calls)
	}
}

func TestPagesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := New(fakeConnection(10, 5, &calls)).All(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no requests, got %d", calls)
	}
}

func TestCollect(t *testing.T) {
	type node struct{ ID string }
	fetch := func(_ context.Context, after *string) (Page[node], error) {
		if after == nil {
			return Page[node]{Nodes: []node{{"A"}, {"B"}}, PageInfo: PageInfo{HasNextPage: true, EndCursor: "1"}}, nil
		}
		return Page[node]{Nodes: []node{{"B"}, {"C"}}}, nil
	}

	set, err := Collect(context.Background(), New(fetch), func(n node) string { return n.ID })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 3 {
		t.Errorf("expected 3 unique IDs, got %d", len(set))
	}
	for _, id := range []string{"A", "B", "C"} {
		if _, ok := set[id]; !ok {
			t.Errorf("expected %q in set", id)
		}
	}
}
