package ghclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/spiffcs/repobot/internal/model"
)

// newTestClient returns a Client whose REST and GraphQL endpoints are served by mux.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "test-token", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

// graphqlHandler decodes the request and answers with whatever respond returns as data.
func graphqlHandler(t *testing.T, respond func(req graphqlRequest) any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": respond(req)})
	}
}

func TestNewClient_EmptyToken(t *testing.T) {
	if _, err := NewClient(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestAuthenticatedUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"octocat","type":"User"}`)
	})
	c := newTestClient(t, mux)

	login, err := c.AuthenticatedUser(context.Background())
	if err != nil {
		t.Fatalf("AuthenticatedUser() error = %v", err)
	}
	if login != "octocat" {
		t.Errorf("AuthenticatedUser() = %q", login)
	}
}

func TestQuery_GraphQLErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name:    "errors without data",
			body:    `{"data":null,"errors":[{"message":"bad query"},{"message":"worse"}]}`,
			wantErr: true,
		},
		{
			name: "errors with data",
			body: `{"data":{"value":1},"errors":[{"message":"partial"}]}`,
		},
		{
			name: "data only",
			body: `{"data":{"value":1}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			c := newTestClient(t, mux)

			var out struct {
				Value int `json:"value"`
			}
			err := c.Query(context.Background(), "query { value }", nil, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Query() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var gqlErr *GraphQLError
				if !errors.As(err, &gqlErr) {
					t.Fatalf("error %v is not a *GraphQLError", err)
				}
				if len(gqlErr.Messages) != 2 {
					t.Errorf("got %d messages, want 2", len(gqlErr.Messages))
				}
				return
			}
			if out.Value != 1 {
				t.Errorf("Value = %d, want 1", out.Value)
			}
		})
	}
}

func TestPullRequestLabels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", graphqlHandler(t, func(req graphqlRequest) any {
		if req.Variables["prUrl"] != "https://github.com/o/r/pull/1" {
			t.Errorf("prUrl = %v", req.Variables["prUrl"])
		}
		labels := func(names ...string) map[string]any {
			var edges []map[string]any
			for _, n := range names {
				edges = append(edges, map[string]any{"node": map[string]any{"name": n}})
			}
			return map[string]any{"edges": edges}
		}
		return map[string]any{
			"resource": map[string]any{
				"labels": labels("bug"),
				"closingIssuesReferences": map[string]any{
					"nodes": []any{
						map[string]any{"labels": labels("bug", "High")},
						map[string]any{"labels": labels("Frontend")},
					},
				},
			},
		}
	}))
	c := newTestClient(t, mux)

	got, err := c.PullRequestLabels(context.Background(), "https://github.com/o/r/pull/1")
	if err != nil {
		t.Fatalf("PullRequestLabels() error = %v", err)
	}
	if !slices.Equal(got.PullRequest, []string{"bug"}) {
		t.Errorf("PullRequest = %v", got.PullRequest)
	}
	if len(got.ClosingIssues) != 2 || !slices.Equal(got.ClosingIssues[0], []string{"bug", "High"}) {
		t.Errorf("ClosingIssues = %v", got.ClosingIssues)
	}
}

func TestAddLabels(t *testing.T) {
	mux := http.NewServeMux()
	var got []string
	mux.HandleFunc("/repos/o/r/issues/7/labels", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `[]`)
	})
	c := newTestClient(t, mux)

	if err := c.AddLabels(context.Background(), model.Repo{Owner: "o", Name: "r"}, 7, []string{"High", "Frontend"}); err != nil {
		t.Fatalf("AddLabels() error = %v", err)
	}
	if !slices.Equal(got, []string{"High", "Frontend"}) {
		t.Errorf("posted labels = %v", got)
	}
}

func TestCheckRuns(t *testing.T) {
	repo := model.Repo{Owner: "o", Name: "r"}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"number":3,"head":{"sha":"abc123"}}`)
	})
	mux.HandleFunc("/repos/o/r/commits/abc123/check-runs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_count":1,"check_runs":[{"id":11,"name":"qa","status":"in_progress"}]}`)
	})
	var created, updated map[string]any
	mux.HandleFunc("/repos/o/r/check-runs", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&created)
		_, _ = io.WriteString(w, `{"id":12}`)
	})
	mux.HandleFunc("/repos/o/r/check-runs/11", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&updated)
		_, _ = io.WriteString(w, `{"id":11}`)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	sha, err := c.PullRequestHeadSHA(ctx, repo, 3)
	if err != nil || sha != "abc123" {
		t.Fatalf("PullRequestHeadSHA() = %q, %v", sha, err)
	}

	runs, err := c.ListCheckRuns(ctx, repo, sha)
	if err != nil {
		t.Fatalf("ListCheckRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != 11 || runs[0].Name != "qa" {
		t.Fatalf("runs = %+v", runs)
	}

	out := model.CheckOutput{Title: "QA", Summary: "https://example.test/run"}
	if err := c.CompleteCheckRun(ctx, repo, 11, "qa", "success", out); err != nil {
		t.Fatalf("CompleteCheckRun() error = %v", err)
	}
	if updated["status"] != "completed" || updated["conclusion"] != "success" {
		t.Errorf("update body = %v", updated)
	}

	id, err := c.CreateCompletedCheckRun(ctx, repo, sha, "qa", "failure", out)
	if err != nil || id != 12 {
		t.Fatalf("CreateCompletedCheckRun() = %d, %v", id, err)
	}
	if created["head_sha"] != "abc123" || created["conclusion"] != "failure" {
		t.Errorf("create body = %v", created)
	}
}

func TestRepositoryContributors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/contributors", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("per_page = %q", r.URL.Query().Get("per_page"))
		}
		_, _ = io.WriteString(w, `[
			{"login":"alice","type":"User","contributions":40,"avatar_url":"https://a/alice","html_url":"https://github.com/alice"},
			{"login":"ci","type":"Bot","contributions":900},
			{"login":"bob","type":"User","contributions":3}
		]`)
	})
	c := newTestClient(t, mux)

	got, err := c.RepositoryContributors(context.Background(), model.Repo{Owner: "o", Name: "r"})
	if err != nil {
		t.Fatalf("RepositoryContributors() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d contributors, want 2: %+v", len(got), got)
	}
	if got[0].Login != "alice" || got[0].Contributions != 40 || got[0].ProfileURL != "https://github.com/alice" {
		t.Errorf("first contributor = %+v", got[0])
	}
}

func TestOrganizationMembers_Paginates(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", graphqlHandler(t, func(req graphqlRequest) any {
		calls++
		page := map[string]any{
			"nodes":    []any{map[string]any{"login": fmt.Sprintf("user%d", calls)}},
			"pageInfo": map[string]any{"hasNextPage": calls < 3, "endCursor": fmt.Sprintf("c%d", calls)},
		}
		if calls > 1 && req.Variables["after"] != fmt.Sprintf("c%d", calls-1) {
			t.Errorf("call %d after = %v", calls, req.Variables["after"])
		}
		return map[string]any{"organization": map[string]any{"membersWithRole": page}}
	}))
	c := newTestClient(t, mux)

	got, err := c.OrganizationMembers(context.Background(), "acme")
	if err != nil {
		t.Fatalf("OrganizationMembers() error = %v", err)
	}
	if !slices.Equal(got, []string{"user1", "user2", "user3"}) {
		t.Errorf("members = %v", got)
	}
}

func TestFileContentAndUpdate(t *testing.T) {
	repo := model.Repo{Owner: "o", Name: "r"}
	var commit map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			enc := base64.StdEncoding.EncodeToString([]byte("# Hello\n"))
			_, _ = fmt.Fprintf(w, `{"type":"file","encoding":"base64","sha":"s1","content":%q}`, enc)
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&commit)
			_, _ = io.WriteString(w, `{}`)
		}
	})
	mux.HandleFunc("/repos/o/r/contents/MISSING.md", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	content, sha, err := c.FileContent(ctx, repo, "README.md")
	if err != nil {
		t.Fatalf("FileContent() error = %v", err)
	}
	if content != "# Hello\n" || sha != "s1" {
		t.Errorf("FileContent() = %q, %q", content, sha)
	}

	if _, _, err := c.FileContent(ctx, repo, "MISSING.md"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("FileContent(missing) error = %v, want ErrFileNotFound", err)
	}

	if err := c.UpdateFile(ctx, repo, "README.md", "Update top contributors", "# Bye\n", sha); err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}
	if commit["sha"] != "s1" || commit["message"] != "Update top contributors" {
		t.Errorf("commit body = %v", commit)
	}
}

func TestProjectItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", graphqlHandler(t, func(req graphqlRequest) any {
		if !strings.Contains(req.Query, "projectV2(number: $number)") {
			t.Errorf("unexpected query %q", req.Query)
		}
		return map[string]any{"organization": map[string]any{"projectV2": map[string]any{
			"id": "PVT_1",
			"items": map[string]any{
				"nodes": []any{
					map[string]any{"id": "PVTI_1", "content": map[string]any{"id": "I_1"}},
					map[string]any{"id": "PVTI_2", "content": nil},
					map[string]any{"id": "PVTI_3", "content": map[string]any{"id": "DI_3"}},
				},
				"pageInfo": map[string]any{"hasNextPage": false},
			},
		}}}
	}))
	c := newTestClient(t, mux)

	id, items, err := c.ProjectItems(context.Background(), "acme", 4)
	if err != nil {
		t.Fatalf("ProjectItems() error = %v", err)
	}
	if id != "PVT_1" {
		t.Errorf("project id = %q", id)
	}
	want := []model.ProjectItem{{ID: "PVTI_1", ContentID: "I_1"}, {ID: "PVTI_3", ContentID: "DI_3"}}
	if !slices.Equal(items, want) {
		t.Errorf("items = %+v, want %+v", items, want)
	}
}

func TestProjectItemMutations(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "added and deleted",
			body: `{"data":{"addProjectV2ItemById":{"item":{"id":"PVTI_9"}},"deleteProjectV2Item":{"deletedItemId":"PVTI_1"}}}`,
		},
		{
			name:    "rejected with errors",
			body:    `{"data":{"addProjectV2ItemById":null,"deleteProjectV2Item":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a node"}]}`,
			wantErr: true,
		},
		{
			name:    "null payload without errors",
			body:    `{"data":{"addProjectV2ItemById":null,"deleteProjectV2Item":null}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			c := newTestClient(t, mux)
			ctx := context.Background()

			if err := c.AddProjectItem(ctx, "PVT_1", "I_9"); (err != nil) != tt.wantErr {
				t.Errorf("AddProjectItem() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := c.DeleteProjectItem(ctx, "PVT_1", "PVTI_1"); (err != nil) != tt.wantErr {
				t.Errorf("DeleteProjectItem() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuery_ErrorsWithoutOutput(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"addLabelsToLabelable":null},"errors":[{"message":"denied"}]}`)
	})
	c := newTestClient(t, mux)

	err := c.Query(context.Background(), "mutation { x }", nil, nil)
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("Query() error = %v, want *GraphQLError", err)
	}
	if len(gqlErr.Messages) != 1 || gqlErr.Messages[0] != "denied" {
		t.Errorf("Messages = %q", gqlErr.Messages)
	}
}

func TestRateLimitTransport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Reset", "9999999999")
		w.WriteHeader(http.StatusForbidden)
	})
	c := newTestClient(t, mux)

	if _, err := c.User(context.Background(), "octo"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("User() error = %v, want ErrRateLimited", err)
	}
	_, limit, _, limited := c.RateLimitStatus()
	if !limited || limit != 5000 {
		t.Errorf("RateLimitStatus() limit=%d limited=%v", limit, limited)
	}
}
