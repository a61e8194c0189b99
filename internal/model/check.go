package model

// CheckRun is the subset of a check run the status action works with.
type CheckRun struct {
	ID         int64
	Name       string
	Status     string
	Conclusion string
}

// CheckOutput is the title and summary shown on a check run.
type CheckOutput struct {
	Title   string
	Summary string
}
