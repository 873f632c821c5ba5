package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFields lists the keys consulted for a post's creation moment, highest priority first.
var DateFields = []string{"created_at", "createdAt", "published_at", "publishedAt", "date"}

var (
	subMillisRe = regexp.MustCompile(`\.(\d{3})\d+`)
	zoneRe      = regexp.MustCompile(`[zZ]|[+-]\d{2}:?\d{2}$`)
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02Z07:00",
}

// ParseDate parses an ISO-8601 timestamp leniently. Fractional seconds are
// cut to milliseconds and a missing offset means UTC. It returns nil when
// the value still cannot be parsed.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if loc := subMillisRe.FindStringSubmatchIndex(s); loc != nil {
		s = s[:loc[0]] + "." + s[loc[2]:loc[3]] + s[loc[1]:]
	}
	if !zoneRe.MatchString(s) {
		s += "Z"
	} else if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ResolveDate picks the first truthy date field and parses it. A present but
// unparseable value yields nil; later fields are not consulted.
func ResolveDate(raw map[string]any) *time.Time {
	for _, key := range DateFields {
		v, ok := raw[key]
		if !ok || !truthy(v) {
			continue
		}
		return ParseDate(stringify(v))
	}
	return nil
}

// HasDate reports whether any of DateFields carries a usable value.
func HasDate(raw map[string]any) bool {
	for _, key := range DateFields {
		if truthy(raw[key]) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
