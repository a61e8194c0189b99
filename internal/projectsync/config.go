package projectsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoLabel is returned for an autosync block without a label.
var ErrNoLabel = errors.New("autosync config has no label")

// AutosyncConfig is the JSON object a project README carries inside an
// ```autosync fenced block to opt in to syncing.
type AutosyncConfig struct {
	Label string `json:"label"`
}

var autosyncBlock = regexp.MustCompile("(?ms)^```autosync[ \\t]*\\r?\\n(.*?)^```")

// ParseAutosyncConfig extracts the autosync config from a project README.
// ok is false when the README has no autosync block.
func ParseAutosyncConfig(readme string) (cfg AutosyncConfig, ok bool, err error) {
	m := autosyncBlock.FindStringSubmatch(readme)
	if m == nil {
		return AutosyncConfig{}, false, nil
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &cfg); err != nil {
		return AutosyncConfig{}, true, fmt.Errorf("invalid autosync config: %w", err)
	}
	if cfg.Label == "" {
		return AutosyncConfig{}, true, ErrNoLabel
	}
	return cfg, true, nil
}
