package platform

import (
	"regexp"
	"strconv"
	"strings"
)

var versionTokenRe = regexp.MustCompile(`\d+(?:\.\d+)+`)

// extractVersion returns the first dotted-numeric token found in text,
// e.g. "cmake version 3.24.1" -> "3.24.1".
func extractVersion(text string) (string, bool) {
	m := versionTokenRe.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

func versionParts(v string) []int {
	fields := strings.Split(v, ".")
	out := make([]int, len(fields))
	for i, f := range fields {
		n, _ := strconv.Atoi(strings.TrimSpace(f))
		out[i] = n
	}
	return out
}

// compareVersions compares a and b component by component, treating
// missing trailing components as zero. Returns -1, 0, or 1.
func compareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		var va, vb int
		if i < len(pa) {
			va = pa[i]
		}
		if i < len(pb) {
			vb = pb[i]
		}
		if va != vb {
			if va < vb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// satisfiesConstraint evaluates detected against a constraint string that
// is either a fixed version ("1.2.3") or a comparison (">=3.16", "==1.0",
// "<2").
func satisfiesConstraint(detected, constraint string) bool {
	constraint = strings.TrimSpace(constraint)
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if strings.HasPrefix(constraint, op) {
			expected := strings.TrimSpace(strings.TrimPrefix(constraint, op))
			cmp := compareVersions(detected, expected)
			switch op {
			case ">=":
				return cmp >= 0
			case "<=":
				return cmp <= 0
			case "==":
				return cmp == 0
			case "!=":
				return cmp != 0
			case ">":
				return cmp > 0
			case "<":
				return cmp < 0
			}
		}
	}
	return compareVersions(detected, constraint) == 0
}
