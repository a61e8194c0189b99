package projectsync

import (
	"cmp"
	"slices"

	"github.com/spiffcs/repobot/internal/model"
)

// Plan lists the changes that bring a project in line with the expected issues.
type Plan struct {
	// ToAdd holds content IDs to add.
	ToAdd []string `json:"toAdd"`
	// ToRemove holds the project items whose content is no longer expected.
	ToRemove []model.ProjectItem `json:"toRemove"`
}

// Empty reports whether the plan has nothing to do.
func (p Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToRemove) == 0
}

// Reconcile computes expected minus present (to add) and present minus
// expected (to remove). Both lists are sorted by content ID.
func Reconcile(expected map[string]struct{}, present []model.ProjectItem) Plan {
	var plan Plan

	inProject := make(map[string]struct{}, len(present))
	for _, item := range present {
		inProject[item.ContentID] = struct{}{}
		if _, ok := expected[item.ContentID]; !ok {
			plan.ToRemove = append(plan.ToRemove, item)
		}
	}
	for id := range expected {
		if _, ok := inProject[id]; !ok {
			plan.ToAdd = append(plan.ToAdd, id)
		}
	}

	slices.Sort(plan.ToAdd)
	slices.SortFunc(plan.ToRemove, func(a, b model.ProjectItem) int {
		return cmp.Or(cmp.Compare(a.ContentID, b.ContentID), cmp.Compare(a.ID, b.ID))
	})
	return plan
}
