package metrics

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	uuidSegment  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegment   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegment = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// normalizePath replaces ids and tokens in a path with ":param" to bound
// label cardinality.
func normalizePath(p string) string {
	clean, _, _ := strings.Cut(p, "?")

	var out []string
	for _, seg := range strings.Split(clean, "/") {
		switch {
		case seg == "":
			continue
		case dynamic(seg):
			out = append(out, ":param")
		default:
			out = append(out, seg)
		}
	}

	return "/" + strings.Join(out, "/")
}

func dynamic(seg string) bool {
	if len(seg) > 48 || uuidSegment.MatchString(seg) || hexSegment.MatchString(seg) || tokenSegment.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
