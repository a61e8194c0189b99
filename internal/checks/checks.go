// Package checks marks a named check run on a pull request as completed,
// creating the run when the pull request does not have one yet.
package checks

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/model"
)

// ErrNotPullRequest is returned when the triggering event carries no pull request.
var ErrNotPullRequest = errors.New("not run on a pull request context")

// Client is the GitHub access the marker needs.
type Client interface {
	PullRequestHeadSHA(ctx context.Context, repo model.Repo, number int) (string, error)
	ListCheckRuns(ctx context.Context, repo model.Repo, ref string) ([]model.CheckRun, error)
	CreateCompletedCheckRun(ctx context.Context, repo model.Repo, headSHA, name, conclusion string, output model.CheckOutput) (int64, error)
	CompleteCheckRun(ctx context.Context, repo model.Repo, id int64, name, conclusion string, output model.CheckOutput) error
}

// Request describes the check to mark.
type Request struct {
	Repo     model.Repo
	PRNumber int
	// JobName is the check run name to look for.
	JobName    string
	Title      string
	Conclusion string
	// RunRepository and RunID point the summary at the workflow run.
	RunRepository string
	RunID         string
}

// Result reports what Mark did.
type Result struct {
	CheckRunID int64
	Created    bool
}

// validConclusions are the values the checks API accepts for a completed run.
var validConclusions = map[string]bool{
	"action_required": true,
	"cancelled":       true,
	"failure":         true,
	"neutral":         true,
	"success":         true,
	"skipped":         true,
	"stale":           true,
	"timed_out":       true,
}

// Validate checks the request before any API call is made.
func (r Request) Validate() error {
	if r.PRNumber <= 0 {
		return ErrNotPullRequest
	}
	if r.JobName == "" {
		return fmt.Errorf("jobName is required")
	}
	if !validConclusions[r.Conclusion] {
		return fmt.Errorf("invalid conclusion %q", r.Conclusion)
	}
	return nil
}

// Summary is the link shown in the check output.
func (r Request) Summary() string {
	return fmt.Sprintf("https://github.com/%s/actions/runs/%s", r.RunRepository, r.RunID)
}

// Mark completes the first check run named req.JobName on the pull request's
// head commit, or creates a completed one.
func Mark(ctx context.Context, client Client, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	sha, err := client.PullRequestHeadSHA(ctx, req.Repo, req.PRNumber)
	if err != nil {
		return Result{}, err
	}

	runs, err := client.ListCheckRuns(ctx, req.Repo, sha)
	if err != nil {
		return Result{}, err
	}
	log.Debug("listed check runs", "ref", sha, "count", len(runs))

	output := model.CheckOutput{Title: req.Title, Summary: req.Summary()}
	for _, run := range runs {
		if run.Name != req.JobName {
			continue
		}
		if err := client.CompleteCheckRun(ctx, req.Repo, run.ID, req.JobName, req.Conclusion, output); err != nil {
			return Result{}, err
		}
		log.Info("updated check run", "name", req.JobName, "id", run.ID, "conclusion", req.Conclusion)
		return Result{CheckRunID: run.ID}, nil
	}

	id, err := client.CreateCompletedCheckRun(ctx, req.Repo, sha, req.JobName, req.Conclusion, output)
	if err != nil {
		return Result{}, err
	}
	log.Info("created check run", "name", req.JobName, "id", id, "conclusion", req.Conclusion)
	return Result{CheckRunID: id, Created: true}, nil
}
