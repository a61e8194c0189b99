package model

// Project is an organization-level GitHub Project (v2).
type Project struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Number int    `json:"number"`
	Readme string `json:"readme"`
}

// ProjectItem is a board entry. ContentID references the issue, pull request
// or draft issue; ID addresses the entry itself for removal.
type ProjectItem struct {
	ID        string `json:"id"`
	ContentID string `json:"contentId"`
}
