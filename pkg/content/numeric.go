// pkg/content/numeric.go
package content

import (
	"errors"
	"regexp"
	"strconv"

	"golang.org/x/text/width"
)

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// ExtractNumber returns the earliest number found in s. The second return value
// is false when s holds no number at all. Full-width and other non-ASCII
// digits count as numbers.
func ExtractNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	s = foldDigits(width.Fold.String(s))

	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}
