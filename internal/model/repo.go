// Package model contains the values passed between the GitHub client and the jobs.
// These types are independent of any external GitHub library.
package model

import (
	"fmt"
	"strings"
)

// Repo identifies a repository by owner and name.
type Repo struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// ParseRepo parses "owner/name".
func ParseRepo(fullName string) (Repo, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repository %q (want owner/name)", fullName)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// String returns "owner/name".
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}
