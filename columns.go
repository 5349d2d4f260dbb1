// SPDX-License-Identifier: MIT

package geoanonymizer

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Column candidates for auto-detection, in canonical form. Order matters:
// earlier names win when a header contains several matches.
var (
	latNames = []string{"lat", "latitude", "y"}
	lonNames = []string{"lon", "lng", "long", "longitude", "x"}
	altNames = []string{"alt", "altitude", "elevation", "height", "z"}
)

// canonical folds a header cell for comparison: Unicode compatibility
// normalization, case folding, surrounding whitespace and a leading BOM
// stripped.
func canonical(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = cases.Fold().String(norm.NFKC.String(name))
	return strings.TrimSpace(name)
}

// resolveColumn maps a column spec to an index in header. A numeric spec is
// a 0-based index, anything else matches header names canonically.
func resolveColumn(spec string, header []string) (int, error) {
	if idx, err := strconv.Atoi(strings.TrimSpace(spec)); err == nil {
		if idx < 0 || idx >= len(header) {
			return -1, fmt.Errorf("column index %d outside 0..%d", idx, len(header)-1)
		}
		return idx, nil
	}
	want := canonical(spec)
	for i, cell := range header {
		if canonical(cell) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found in header %v", spec, header)
}

// detectColumn finds the first header cell matching any candidate name.
func detectColumn(candidates []string, header []string) int {
	canon := make([]string, len(header))
	for i, cell := range header {
		canon[i] = canonical(cell)
	}
	for _, want := range candidates {
		for i, have := range canon {
			if have == want {
				return i
			}
		}
	}
	return -1
}
