package zenhub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildWorkspaceQuery(t *testing.T) {
	q, err := BuildWorkspaceQuery(`App "Viewers" Pod`)
	if err != nil {
		t.Fatalf("BuildWorkspaceQuery() error = %v", err)
	}
	if !strings.Contains(q, `searchWorkspaces(query: "App \"Viewers\" Pod")`) {
		t.Errorf("pod name not quoted into query:\n%s", q)
	}
	if !strings.Contains(q, "issues(first: 100)") {
		t.Errorf("issue limit missing:\n%s", q)
	}
}

const workspaceBody = `{"data":{"viewer":{"searchWorkspaces":{"nodes":[{
  "id":"ws1","name":"Widgets Pod",
  "activeSprint":{"endAt":"2024-03-20T00:00:00Z","issues":{"nodes":[
    {"number":1,"title":"Fix it","closedAt":null,
     "labels":{"nodes":[{"name":"Bug"},{"name":"High"}]},
     "assignees":{"nodes":[{"login":"alice"}]},
     "pipelineIssue":{"pipeline":{"name":"In Progress"}},
     "parentEpics":{"nodes":[{"issue":{"title":"Epic A"}}]}}
  ]}},
  "upcomingSprint":null,
  "previousSprint":null
}]}}}}`

func TestWorkspace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer zh-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !strings.Contains(body["query"].(string), `"Widgets Pod"`) {
			t.Errorf("query = %v", body["query"])
		}
		_, _ = io.WriteString(w, workspaceBody)
	}))
	defer srv.Close()

	c, err := NewClient("zh-key", WithEndpoint(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	ws, err := c.Workspace(context.Background(), "Widgets Pod")
	if err != nil {
		t.Fatalf("Workspace() error = %v", err)
	}
	issues := ws.ActiveSprint.IssueList()
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	is := issues[0]
	if is.EpicTitle() != "Epic A" || is.PipelineName() != "In Progress" || is.IsClosed() {
		t.Errorf("issue = %+v", is)
	}
	if got := is.LabelNames(); len(got) != 2 || got[1] != "High" {
		t.Errorf("LabelNames() = %v", got)
	}
	if got := is.AssigneeLogins(); len(got) != 1 || got[0] != "alice" {
		t.Errorf("AssigneeLogins() = %v", got)
	}
	if ws.UpcomingSprint.IssueList() != nil {
		t.Error("nil sprint should have no issues")
	}
}

func TestWorkspace_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr error
	}{
		{name: "no workspace", body: `{"data":{"viewer":{"searchWorkspaces":{"nodes":[]}}}}`, wantErr: ErrWorkspaceNotFound},
		{name: "graphql errors", body: `{"errors":[{"message":"unauthorized"}]}`},
		{name: "http error", body: `nope`, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, _ := NewClient("k", WithEndpoint(srv.URL))
			_, err := c.Workspace(context.Background(), "pod")
			if err == nil {
				t.Fatal("Workspace() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClient_NoToken(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("NewClient(\"\") expected error")
	}
}
