// Package normalize maps stored post records of any historical shape onto
// the canonical post served by the API. Nothing in here returns an error:
// malformed records degrade to a missing date or an unresolved author.
package normalize

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	isoMillis       = "2006-01-02T15:04:05.000Z07:00"
	formattedLayout = "Jan 2, 2006, 3:04 PM UTC"
)

// Post is a canonical post: the original fields plus a resolved author and
// a parsed creation moment.
type Post struct {
	Fields    map[string]any
	Author    any
	HasAuthor bool
	CreatedAt *time.Time
}

// Normalize builds the canonical form of one stored post record.
func Normalize(raw map[string]any) Post {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	author, ok := ResolveAuthor(fields)
	return Post{
		Fields:    fields,
		Author:    author,
		HasAuthor: ok,
		CreatedAt: ResolveDate(fields),
	}
}

// NormalizeAll normalizes each record, preserving order.
func NormalizeAll(raws []map[string]any) []Post {
	out := make([]Post, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// SortNewestFirst orders posts by CreatedAt descending. Posts without a
// date go last, keeping their relative order.
func SortNewestFirst(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].CreatedAt, posts[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// ID returns the record's id, or "" when it is missing or not a string.
func (p Post) ID() string {
	id, _ := p.Fields["id"].(string)
	return id
}

// Formatted is the display form of CreatedAt, empty when there is no date.
func (p Post) Formatted() string {
	if p.CreatedAt == nil {
		return ""
	}
	return p.CreatedAt.Format(formattedLayout)
}

func (p Post) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+3)
	for k, v := range p.Fields {
		out[k] = v
	}
	if p.HasAuthor {
		out["author"] = p.Author
	} else {
		delete(out, "author")
	}
	if p.CreatedAt != nil {
		out["createdAt"] = p.CreatedAt.Format(isoMillis)
	} else {
		out["createdAt"] = nil
	}
	out["createdAtFormatted"] = p.Formatted()
	return json.Marshal(out)
}
