package model

// PullRequestLabels holds the labels of a pull request and of every issue it closes.
type PullRequestLabels struct {
	PullRequest   []string
	ClosingIssues [][]string
}
