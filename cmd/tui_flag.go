package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/internal/tui"
)

// tuiFlag implements pflag.Value for the tri-state --tui flag.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

// addTUIFlag registers --tui on cmd; a bare --tui means true.
func addTUIFlag(cmd *cobra.Command, opts *Options) {
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable progress display (default: auto-detect)")
	cmd.Flags().Lookup("tui").NoOptDefVal = "true"
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	if *f.opts.TUI {
		return "true"
	}
	return "false"
}

// Set accepts "auto" or anything strconv.ParseBool does.
func (f *tuiFlag) Set(s string) error {
	if strings.EqualFold(s, "auto") {
		f.opts.TUI = nil
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// shouldUseTUI determines whether to use the TUI. Verbose logging disables it
// so log lines stay readable.
func shouldUseTUI(opts *Options) bool {
	if opts.Verbosity > 0 {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}
