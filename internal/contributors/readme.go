package contributors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spiffcs/repobot/internal/model"
)

// ErrSectionNotFound is returned when the README has no Top Contributors heading.
var ErrSectionNotFound = errors.New("could not find top contributors section in README")

var sectionHeading = regexp.MustCompile(`^#+\s*Top Contributors\b`)

// Line renders one contributor as a circular avatar linking to their profile.
func Line(c model.Contributor) string {
	return fmt.Sprintf("[![%s](https://images.weserv.nl/?url=%s&w=50&h=50&mask=circle)](%s)", c.Login, c.AvatarURL, c.ProfileURL)
}

// Lines renders every contributor in order.
func Lines(contributors []model.Contributor) []string {
	lines := make([]string, 0, len(contributors))
	for _, c := range contributors {
		lines = append(lines, Line(c))
	}
	return lines
}

// RewriteReadme replaces the body of the Top Contributors section with lines.
// The section runs from its heading to the next heading or the end of the document.
func RewriteReadme(readme string, lines []string) (string, error) {
	start, headingEnd, next := -1, -1, len(readme)

	offset := 0
	for _, line := range strings.SplitAfter(readme, "\n") {
		trimmed := strings.TrimRight(line, "\r\n")
		switch {
		case start < 0 && sectionHeading.MatchString(trimmed):
			start = offset
			headingEnd = offset + len(trimmed)
		case start >= 0 && strings.HasPrefix(trimmed, "#"):
			next = offset
		}
		if next < len(readme) {
			break
		}
		offset += len(line)
	}
	if start < 0 {
		return "", ErrSectionNotFound
	}

	body := strings.Join(lines, "\n")
	rest := readme[next:]
	if rest == "" {
		return readme[:headingEnd] + "\n\n" + body + "\n", nil
	}
	return readme[:headingEnd] + "\n\n" + body + "\n\n" + rest, nil
}
