package normalize

import "math"

var (
	identityFields = []string{"name", "username", "email"}
	fallbackFields = []string{"author_name", "authorName", "created_by", "createdBy"}
)

// ResolveAuthor returns the display author of a raw record. A string author
// is used as is; otherwise the author or user object is searched for name,
// username and email, then the flat fallback fields. When nothing resolves
// the original value is returned, and ok is false only if the record had no
// author key at all.
func ResolveAuthor(raw map[string]any) (author any, ok bool) {
	original, present := raw["author"]
	if s, isString := original.(string); isString {
		return s, true
	}
	if v := identityOf(original); v != nil {
		return v, true
	}
	if v := identityOf(raw["user"]); v != nil {
		return v, true
	}
	if v := firstTruthy(raw, fallbackFields); v != nil {
		return v, true
	}
	return original, present
}

// IdentityName resolves an author-like object to a display value, or nil.
func IdentityName(v any) any {
	return identityOf(v)
}

func identityOf(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return firstTruthy(obj, identityFields)
}

func firstTruthy(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

// truthy mirrors the loose emptiness checks older clients applied to these records.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
