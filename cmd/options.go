package cmd

// Options holds the command-line options shared by the repobot jobs.
type Options struct {
	Format    string
	Verbosity int
	DryRun    bool
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Projects restricts the project sync to these project numbers.
	Projects []int

	// Profiling options
	CPUProfile string
	MemProfile string
	Trace      string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithDryRun computes changes without writing them.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithProjects restricts the project sync to the given project numbers.
func WithProjects(numbers ...int) Option {
	return func(o *Options) {
		o.Projects = numbers
	}
}
