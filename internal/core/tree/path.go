// Package tree contains the pure helpers shared by every tree store and by the engines:
// path manipulation, JSON-value coercion, and leaf flattening for flat storage backends.
package tree

import "strings"

// Join builds a slash separated tree path. Empty segments and stray slashes are dropped,
// so Join("lms", "", "/courses/") == "lms/courses".
func Join(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		segs = append(segs, Split(p)...)
	}
	return strings.Join(segs, "/")
}

// Split returns the non-empty segments of a path.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	segs := raw[:0]
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Clean normalizes a path the same way Join does.
func Clean(path string) string {
	return Join(path)
}

// Parent returns the parent path, or "" for top-level paths.
func Parent(path string) string {
	segs := Split(path)
	if len(segs) <= 1 {
		return ""
	}
	return strings.Join(segs[:len(segs)-1], "/")
}

// Base returns the last segment of a path.
func Base(path string) string {
	segs := Split(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Ancestors returns the proper ancestors of path, shortest first.
// The root ("") is not included.
func Ancestors(path string) []string {
	segs := Split(path)
	if len(segs) <= 1 {
		return nil
	}
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}

// Rel returns path relative to base, and whether path lies at or under base.
func Rel(base, path string) (string, bool) {
	base, path = Clean(base), Clean(path)
	if base == "" {
		return path, true
	}
	if path == base {
		return "", true
	}
	if strings.HasPrefix(path, base+"/") {
		return path[len(base)+1:], true
	}
	return "", false
}

// SubtreeBounds returns the half-open lexicographic range [lo, hi) that contains
// exactly the strict descendants of path. '0' is the byte after '/'.
func SubtreeBounds(path string) (lo, hi string) {
	path = Clean(path)
	return path + "/", path + "0"
}

// ValidKey reports whether key can be used as a single path segment.
func ValidKey(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	return !strings.ContainsAny(key, "/.#$[]")
}
