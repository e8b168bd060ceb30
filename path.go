package fieldcheck

import "strconv"

// AppendPath joins a field name onto a base path with a dot, skipping the
// dot at the root: AppendPath("", "a") == "a", AppendPath("a", "b") == "a.b".
func AppendPath(base, name string) string {
	if base == "" {
		return name
	}
	if name == "" {
		return base
	}
	return base + "." + name
}

// AppendIndex appends a zero-based bracket index with no dot before the
// bracket: AppendIndex("a", 0) == "a[0]", AppendIndex("", 0) == "[0]".
func AppendIndex(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}
